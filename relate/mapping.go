package relate

import (
	"sort"

	"github.com/zero-day-ai/attackgraph/stix"
)

// RelationEntry is one accepted edge before partner resolution: the
// relationship and the id of the endpoint opposite the anchor.
type RelationEntry struct {
	Relationship *stix.Relationship
	RelatedID    string
}

// Entry is one resolved partner of an anchor, with the edge that links them.
type Entry struct {
	// Object is the live partner object.
	Object *stix.Object `json:"object"`

	// Relationship is the edge between the anchor and Object.
	Relationship *stix.Relationship `json:"relationship"`
}

// Mapping maps an anchor object id to its resolved partners, in store order.
// A Mapping never holds a key with an empty list.
type Mapping map[string][]Entry

// Keys returns the anchor ids in sorted order.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the total number of entries across all anchors.
func (m Mapping) Len() int {
	n := 0
	for _, entries := range m {
		n += len(entries)
	}
	return n
}

// Pair is a flattened (anchor, partner) edge.
type Pair struct {
	Anchor         string
	Related        string
	RelationshipID string
}

// Pairs flattens the mapping, anchors sorted, entries in mapping order.
func (m Mapping) Pairs() []Pair {
	var out []Pair
	for _, k := range m.Keys() {
		for _, e := range m[k] {
			out = append(out, Pair{Anchor: k, Related: e.Object.ID, RelationshipID: e.Relationship.ID})
		}
	}
	return out
}

// builder accumulates RelationEntry records per anchor, remembering the
// order in which anchors first appeared.
type builder struct {
	order  []string
	groups map[string][]RelationEntry
}

func newBuilder() *builder {
	return &builder{groups: make(map[string][]RelationEntry)}
}

// add appends e to the anchor's group, creating the group on first use.
func (b *builder) add(anchor string, e RelationEntry) {
	if _, ok := b.groups[anchor]; !ok {
		b.order = append(b.order, anchor)
	}
	b.groups[anchor] = append(b.groups[anchor], e)
}

// build swaps related ids for live objects. Entries whose partner is not in
// live are dropped, and anchors left without entries are omitted. Returns
// the mapping and the number of dropped entries.
func (b *builder) build(live map[string]*stix.Object) (Mapping, int) {
	out := make(Mapping, len(b.order))
	dropped := 0
	for _, anchor := range b.order {
		var entries []Entry
		for _, re := range b.groups[anchor] {
			obj, ok := live[re.RelatedID]
			if !ok {
				dropped++
				continue
			}
			entries = append(entries, Entry{Object: obj, Relationship: re.Relationship})
		}
		if len(entries) > 0 {
			out[anchor] = entries
		}
	}
	return out, dropped
}

// Merge combines mappings that express one logical relation over several
// object subtypes (e.g., malware and tool as "software").
//
// The key set of the result is the union of the inputs. Lists for a shared
// key are concatenated in argument order without deduplication: two edges to
// the same partner are distinct relationships. Input keys with empty lists
// are skipped. The result never aliases the input slices.
func Merge(mappings ...Mapping) Mapping {
	out := make(Mapping)
	for _, m := range mappings {
		for anchor, entries := range m {
			if len(entries) == 0 {
				continue
			}
			out[anchor] = append(out[anchor], entries...)
		}
	}
	return out
}
