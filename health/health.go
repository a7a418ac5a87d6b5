// Package health provides readiness checks for an ATT&CK knowledge base:
// the CTI source tree on disk and the store the resolver reads from.
package health

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/zero-day-ai/attackgraph/stix"
	"github.com/zero-day-ai/attackgraph/store"
)

// State orders check outcomes from best to worst.
type State int

const (
	// Healthy means the dependency is usable.
	Healthy State = iota
	// Degraded means the dependency answers but holds nothing to resolve.
	Degraded
	// Unhealthy means the dependency cannot be used.
	Unhealthy
)

func (s State) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Unhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Check is the outcome of one readiness check.
type Check struct {
	Name    string
	State   State
	Message string
}

func pass(name, format string, args ...any) Check {
	return Check{Name: name, State: Healthy, Message: fmt.Sprintf(format, args...)}
}

func warn(name, format string, args ...any) Check {
	return Check{Name: name, State: Degraded, Message: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...any) Check {
	return Check{Name: name, State: Unhealthy, Message: fmt.Sprintf(format, args...)}
}

// Failed returns an unhealthy check for an error raised outside this package.
func Failed(name string, err error) Check {
	return fail(name, "%v", err)
}

// SourceCheck verifies that dir is a readable directory holding at least one
// document matching pattern. An empty pattern means store.DefaultPattern.
func SourceCheck(dir, pattern string) Check {
	const name = "source"
	if dir == "" {
		return fail(name, "source path is empty")
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return fail(name, "%s does not exist", dir)
	case err != nil:
		return fail(name, "stat %s: %v", dir, err)
	case !info.IsDir():
		return fail(name, "%s is not a directory", dir)
	}
	return documentCheck(os.DirFS(dir), dir, pattern)
}

func documentCheck(fsys fs.FS, dir, pattern string) Check {
	const name = "source"
	if pattern == "" {
		pattern = store.DefaultPattern
	}
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return fail(name, "pattern %q: %v", pattern, err)
	}
	if len(matches) == 0 {
		return warn(name, "%s has no documents matching %s", dir, pattern)
	}
	return pass(name, "%s has %d document(s)", dir, len(matches))
}

// StoreCheck verifies that s answers queries and holds relationships.
func StoreCheck(ctx context.Context, s store.Store) Check {
	const name = "store"
	rels, err := s.Query(ctx, store.TypeIs(stix.TypeRelationship))
	if err != nil {
		return Failed(name, err)
	}
	if len(rels) == 0 {
		return warn(name, "no relationships stored")
	}
	return pass(name, "%d relationship(s) stored", len(rels))
}

// Report aggregates checks. Its State is the worst State among them.
type Report struct {
	State  State
	Checks []Check
}

// Run aggregates checks into a Report. No checks is healthy.
func Run(checks ...Check) Report {
	r := Report{State: Healthy, Checks: checks}
	for _, c := range checks {
		r.State = max(r.State, c.State)
	}
	return r
}

// Failing returns the names of the checks that are not healthy.
func (r Report) Failing() []string {
	var out []string
	for _, c := range r.Checks {
		if c.State != Healthy {
			out = append(out, c.Name)
		}
	}
	return out
}
