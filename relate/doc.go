// Package relate resolves typed, directed relationships in an ATT&CK
// knowledge graph into adjacency mappings such as "which groups use which
// software" or "which mitigations address which technique".
//
// # Resolution
//
// A Spec names an edge class (source type, relationship type, target type)
// and the endpoint used as key. Resolver.Resolve returns a Mapping from
// anchor id to the live partner objects and the edges that link them:
//
//	r := relate.NewResolver(s)
//	m, err := r.Resolve(ctx, relate.NewSpec("intrusion-set", "uses", "attack-pattern"))
//	for _, e := range m["intrusion-set--899ce53f-13a0-479b-a0e4-67d46e241542"] {
//	    fmt.Println(e.Object.Name, e.Relationship.Description)
//	}
//
// Partners that are revoked or deprecated are dropped, and anchors left
// without partners are omitted: a Mapping never holds an empty list.
//
// # Merging
//
// Merge combines mappings that express one logical relation over several
// object subtypes. ATT&CK "software" spans malware and tool, so software
// used by a group is the merge of two resolutions.
//
// # Catalog
//
// Catalog exposes the fixed set of derived queries (Queries) by name and
// through typed methods:
//
//	c := relate.NewCatalog(r)
//	software, err := c.SoftwareUsedByGroups(ctx)
//	parent, err := c.ParentOf(ctx, subtechniqueID)
//	if errors.Is(err, relate.ErrMissingParent) {
//	    // not a sub-technique, or its parent was revoked
//	}
package relate
