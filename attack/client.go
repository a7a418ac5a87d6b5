package attack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/zero-day-ai/attackgraph/stix"
	"github.com/zero-day-ai/attackgraph/store"
)

// Domain is an ATT&CK matrix domain. It decides the kill chain name
// techniques are filed under.
type Domain string

const (
	DomainEnterprise Domain = "enterprise-attack"
	DomainMobile     Domain = "mobile-attack"
	DomainICS        Domain = "ics-attack"
)

// KillChainName returns the kill_chain_name used by techniques of the domain.
func (d Domain) KillChainName() (string, error) {
	switch d {
	case DomainEnterprise:
		return "mitre-attack", nil
	case DomainMobile:
		return "mitre-mobile-attack", nil
	case DomainICS:
		return "mitre-ics-attack", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDomain, string(d))
	}
}

// ParseDomain parses a domain name. The empty string selects DomainEnterprise.
func ParseDomain(s string) (Domain, error) {
	if s == "" {
		return DomainEnterprise, nil
	}
	d := Domain(s)
	if _, err := d.KillChainName(); err != nil {
		return "", err
	}
	return d, nil
}

// Include selects which attack-patterns Techniques returns.
type Include string

const (
	IncludeTechniques    Include = "techniques"
	IncludeSubtechniques Include = "subtechniques"
	IncludeBoth          Include = "both"
)

var (
	// ErrUnknownInclude is returned by Techniques for an unsupported Include.
	ErrUnknownInclude = errors.New("attack: unknown include option")

	// ErrUnknownDomain is returned for a domain outside enterprise, mobile and ics.
	ErrUnknownDomain = errors.New("attack: unknown domain")
)

// Client answers single-field lookups over a store.
type Client struct {
	store  store.Store
	domain Domain
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDomain sets the matrix domain. Defaults to DomainEnterprise.
func WithDomain(d Domain) Option {
	return func(c *Client) {
		c.domain = d
	}
}

// WithLogger sets the logger. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client reading from s.
func New(s store.Store, opts ...Option) *Client {
	c := &Client{store: s, domain: DomainEnterprise}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Domain returns the configured matrix domain.
func (c *Client) Domain() Domain {
	return c.domain
}

// ObjectByID returns the object with the given STIX id.
func (c *Client) ObjectByID(ctx context.Context, id string) (*stix.Object, error) {
	return c.store.Get(ctx, id)
}

// TechniquesByName returns the attack-patterns named name.
func (c *Client) TechniquesByName(ctx context.Context, name string) ([]*stix.Object, error) {
	return c.store.Query(ctx,
		store.TypeIs(stix.TypeAttackPattern),
		store.Eq("name", name),
	)
}

// GroupByAlias returns the first intrusion-set carrying alias.
// Fails with store.ErrNotFound when no group matches.
func (c *Client) GroupByAlias(ctx context.Context, alias string) (*stix.Object, error) {
	groups, err := c.store.Query(ctx,
		store.TypeIs(stix.TypeIntrusionSet),
		store.Eq("aliases", alias),
	)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, store.NotFound("attack.GroupByAlias", alias)
	}
	return groups[0], nil
}

// Aliases returns the aliases of the group known as alias.
func (c *Client) Aliases(ctx context.Context, alias string) ([]string, error) {
	group, err := c.GroupByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}
	return Strings(group, "aliases"), nil
}

// Software returns every tool followed by every malware.
func (c *Client) Software(ctx context.Context) ([]*stix.Object, error) {
	var out []*stix.Object
	for _, t := range []string{stix.TypeTool, stix.TypeMalware} {
		objs, err := c.store.Query(ctx, store.TypeIs(t))
		if err != nil {
			return nil, err
		}
		out = append(out, objs...)
	}
	return out, nil
}

// Techniques returns attack-patterns filtered by sub-technique status.
func (c *Client) Techniques(ctx context.Context, include Include) ([]*stix.Object, error) {
	filters := []store.Filter{store.TypeIs(stix.TypeAttackPattern)}
	switch include {
	case IncludeTechniques:
		filters = append(filters, store.Eq("x_mitre_is_subtechnique", false))
	case IncludeSubtechniques:
		filters = append(filters, store.Eq("x_mitre_is_subtechnique", true))
	case IncludeBoth:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInclude, string(include))
	}
	return c.store.Query(ctx, filters...)
}

// TechniquesByContent returns attack-patterns whose description contains
// content, ignoring case.
func (c *Client) TechniquesByContent(ctx context.Context, content string) ([]*stix.Object, error) {
	techniques, err := c.store.Query(ctx, store.TypeIs(stix.TypeAttackPattern))
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(content)
	var out []*stix.Object
	for _, t := range techniques {
		if strings.Contains(strings.ToLower(t.Description), needle) {
			out = append(out, t)
		}
	}
	return out, nil
}

// TechniquesByPlatform returns attack-patterns listing platform.
func (c *Client) TechniquesByPlatform(ctx context.Context, platform string) ([]*stix.Object, error) {
	return c.store.Query(ctx,
		store.TypeIs(stix.TypeAttackPattern),
		store.Eq("x_mitre_platforms", platform),
	)
}

// TacticTechniques returns the attack-patterns filed under the tactic
// shortname (e.g., "credential-access") in the client's kill chain.
func (c *Client) TacticTechniques(ctx context.Context, tactic string) ([]*stix.Object, error) {
	killChain, err := c.domain.KillChainName()
	if err != nil {
		return nil, err
	}
	return c.store.Query(ctx,
		store.TypeIs(stix.TypeAttackPattern),
		store.Eq("kill_chain_phases.phase_name", tactic),
		store.Eq("kill_chain_phases.kill_chain_name", killChain),
	)
}

// TacticsByMatrix maps each matrix name to its tactics, in tactic_refs order.
// Tactic references that do not resolve are skipped.
func (c *Client) TacticsByMatrix(ctx context.Context) (map[string][]*stix.Object, error) {
	matrices, err := c.store.Query(ctx, store.TypeIs(stix.TypeMatrix))
	if err != nil {
		return nil, err
	}

	out := make(map[string][]*stix.Object, len(matrices))
	for _, matrix := range matrices {
		tactics := []*stix.Object{}
		for _, ref := range Strings(matrix, "tactic_refs") {
			tactic, err := c.store.Get(ctx, ref)
			if errors.Is(err, store.ErrNotFound) {
				c.logger.Warn("matrix references missing tactic",
					"matrix", matrix.ID,
					"tactic", ref,
				)
				continue
			}
			if err != nil {
				return nil, err
			}
			tactics = append(tactics, tactic)
		}
		out[matrix.Name] = tactics
	}
	return out, nil
}

// CreatedAfter returns objects created strictly after t.
func (c *Client) CreatedAfter(ctx context.Context, t time.Time) ([]*stix.Object, error) {
	return c.store.Query(ctx, store.Gt("created", t))
}

// ModifiedAfter returns objects modified strictly after t.
func (c *Client) ModifiedAfter(ctx context.Context, t time.Time) ([]*stix.Object, error) {
	return c.store.Query(ctx, store.Gt("modified", t))
}

// Strings returns the string elements of a list-valued property.
func Strings(obj *stix.Object, path string) []string {
	v, ok := obj.Value(path)
	if !ok {
		return nil
	}
	var out []string
	switch list := v.(type) {
	case []any:
		for _, elem := range list {
			if s, ok := elem.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = slices.Clone(list)
	case string:
		out = []string{list}
	}
	return out
}
