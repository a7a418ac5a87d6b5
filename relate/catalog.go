package relate

import (
	"context"
	"fmt"

	"github.com/zero-day-ai/attackgraph/stix"
)

// Catalog query names.
const (
	QuerySoftwareUsedByGroups              = "software_used_by_groups"
	QueryGroupsUsingSoftware               = "groups_using_software"
	QueryTechniquesUsedByGroups            = "techniques_used_by_groups"
	QueryGroupsUsingTechnique              = "groups_using_technique"
	QueryTechniquesUsedBySoftware          = "techniques_used_by_software"
	QuerySoftwareUsingTechnique            = "software_using_technique"
	QueryMitigationMitigatesTechniques     = "mitigation_mitigates_techniques"
	QueryTechniqueMitigatedByMitigations   = "technique_mitigated_by_mitigations"
	QuerySubtechniquesOf                   = "subtechniques_of"
	QueryParentTechniqueOf                 = "parent_technique_of"
	QueryDatacomponentDetectsTechniques    = "datacomponent_detects_techniques"
	QueryTechniqueDetectedByDatacomponents = "technique_detected_by_datacomponents"
)

// Query is a named, pre-parameterized relation. Specs with more than one
// element are resolved in order and merged.
type Query struct {
	Name        string
	Description string
	Specs       []Spec

	// Single collapses each anchor's list to its first entry.
	Single bool
}

var (
	groupUsesMalware = NewSpec(stix.TypeIntrusionSet, stix.RelUses, stix.TypeMalware)
	groupUsesTool    = NewSpec(stix.TypeIntrusionSet, stix.RelUses, stix.TypeTool)
	groupUsesTech    = NewSpec(stix.TypeIntrusionSet, stix.RelUses, stix.TypeAttackPattern)
	malwareUsesTech  = NewSpec(stix.TypeMalware, stix.RelUses, stix.TypeAttackPattern)
	toolUsesTech     = NewSpec(stix.TypeTool, stix.RelUses, stix.TypeAttackPattern)
	mitigationOfTech = NewSpec(stix.TypeCourseOfAction, stix.RelMitigates, stix.TypeAttackPattern)
	subtechniqueOf   = NewSpec(stix.TypeAttackPattern, stix.RelSubtechniqueOf, stix.TypeAttackPattern)
	componentDetTech = NewSpec(stix.TypeDataComponent, stix.RelDetects, stix.TypeAttackPattern)
)

// Queries is the fixed table of derived relations.
var Queries = []Query{
	{
		Name:        QuerySoftwareUsedByGroups,
		Description: "group_id => software used by the group",
		Specs:       []Spec{groupUsesMalware, groupUsesTool},
	},
	{
		Name:        QueryGroupsUsingSoftware,
		Description: "software_id => groups using the software",
		Specs:       []Spec{groupUsesMalware.Reversed(), groupUsesTool.Reversed()},
	},
	{
		Name:        QueryTechniquesUsedByGroups,
		Description: "group_id => techniques used by the group",
		Specs:       []Spec{groupUsesTech},
	},
	{
		Name:        QueryGroupsUsingTechnique,
		Description: "technique_id => groups using the technique",
		Specs:       []Spec{groupUsesTech.Reversed()},
	},
	{
		Name:        QueryTechniquesUsedBySoftware,
		Description: "software_id => techniques used by the software",
		Specs:       []Spec{malwareUsesTech, toolUsesTech},
	},
	{
		Name:        QuerySoftwareUsingTechnique,
		Description: "technique_id => software using the technique",
		Specs:       []Spec{malwareUsesTech.Reversed(), toolUsesTech.Reversed()},
	},
	{
		Name:        QueryMitigationMitigatesTechniques,
		Description: "mitigation_id => techniques mitigated by the mitigation",
		Specs:       []Spec{mitigationOfTech},
	},
	{
		Name:        QueryTechniqueMitigatedByMitigations,
		Description: "technique_id => mitigations of the technique",
		Specs:       []Spec{mitigationOfTech.Reversed()},
	},
	{
		Name:        QuerySubtechniquesOf,
		Description: "technique_id => sub-techniques of the technique",
		Specs:       []Spec{subtechniqueOf.Reversed()},
	},
	{
		Name:        QueryParentTechniqueOf,
		Description: "subtechnique_id => parent technique",
		Specs:       []Spec{subtechniqueOf},
		Single:      true,
	},
	{
		Name:        QueryDatacomponentDetectsTechniques,
		Description: "datacomponent_id => techniques detected by the data component",
		Specs:       []Spec{componentDetTech},
	},
	{
		Name:        QueryTechniqueDetectedByDatacomponents,
		Description: "technique_id => data components that can detect the technique",
		Specs:       []Spec{componentDetTech.Reversed()},
	},
}

// LookupQuery returns the catalog query with the given name.
func LookupQuery(name string) (Query, bool) {
	for _, q := range Queries {
		if q.Name == name {
			return q, true
		}
	}
	return Query{}, false
}

// Catalog runs the derived queries against a Resolver.
type Catalog struct {
	resolver *Resolver
}

// NewCatalog creates a Catalog backed by r.
func NewCatalog(r *Resolver) *Catalog {
	return &Catalog{resolver: r}
}

// Run resolves the named query. Unknown names fail with ErrUnknownQuery.
func (c *Catalog) Run(ctx context.Context, name string) (Mapping, error) {
	q, ok := LookupQuery(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
	return c.run(ctx, q)
}

func (c *Catalog) run(ctx context.Context, q Query) (Mapping, error) {
	m, err := c.resolver.ResolveAll(ctx, q.Specs...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Name, err)
	}
	if q.Single {
		for anchor, entries := range m {
			m[anchor] = entries[:1:1]
		}
	}
	return m, nil
}

// SoftwareUsedByGroups returns group_id => software (malware and tool) used by the group.
func (c *Catalog) SoftwareUsedByGroups(ctx context.Context) (Mapping, error) {
	return c.Run(ctx, QuerySoftwareUsedByGroups)
}

// GroupsUsingSoftware returns software_id => groups using the software.
func (c *Catalog) GroupsUsingSoftware(ctx context.Context) (Mapping, error) {
	return c.Run(ctx, QueryGroupsUsingSoftware)
}

// TechniquesUsedByGroups returns group_id => techniques used by the group.
func (c *Catalog) TechniquesUsedByGroups(ctx context.Context) (Mapping, error) {
	return c.Run(ctx, QueryTechniquesUsedByGroups)
}

// GroupsUsingTechnique returns technique_id => groups using the technique.
func (c *Catalog) GroupsUsingTechnique(ctx context.Context) (Mapping, error) {
	return c.Run(ctx, QueryGroupsUsingTechnique)
}

// TechniquesUsedBySoftware returns software_id => techniques used by the software.
func (c *Catalog) TechniquesUsedBySoftware(ctx context.Context) (Mapping, error) {
	return c.Run(ctx, QueryTechniquesUsedBySoftware)
}

// SoftwareUsingTechnique returns technique_id => software using the technique.
func (c *Catalog) SoftwareUsingTechnique(ctx context.Context) (Mapping, error) {
	return c.Run(ctx, QuerySoftwareUsingTechnique)
}

// MitigationMitigatesTechniques returns mitigation_id => techniques it mitigates.
func (c *Catalog) MitigationMitigatesTechniques(ctx context.Context) (Mapping, error) {
	return c.Run(ctx, QueryMitigationMitigatesTechniques)
}

// TechniqueMitigatedByMitigations returns technique_id => its mitigations.
func (c *Catalog) TechniqueMitigatedByMitigations(ctx context.Context) (Mapping, error) {
	return c.Run(ctx, QueryTechniqueMitigatedByMitigations)
}

// SubtechniquesOf returns technique_id => its sub-techniques.
func (c *Catalog) SubtechniquesOf(ctx context.Context) (Mapping, error) {
	return c.Run(ctx, QuerySubtechniquesOf)
}

// DatacomponentDetectsTechniques returns datacomponent_id => techniques it detects.
func (c *Catalog) DatacomponentDetectsTechniques(ctx context.Context) (Mapping, error) {
	return c.Run(ctx, QueryDatacomponentDetectsTechniques)
}

// TechniqueDetectedByDatacomponents returns technique_id => data components detecting it.
func (c *Catalog) TechniqueDetectedByDatacomponents(ctx context.Context) (Mapping, error) {
	return c.Run(ctx, QueryTechniqueDetectedByDatacomponents)
}

// ParentTechniqueOf returns subtechnique_id => the parent technique entry.
// A sub-technique has exactly one parent; only the first resolved edge is kept.
func (c *Catalog) ParentTechniqueOf(ctx context.Context) (map[string]Entry, error) {
	m, err := c.Run(ctx, QueryParentTechniqueOf)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Entry, len(m))
	for anchor, entries := range m {
		out[anchor] = entries[0]
	}
	return out, nil
}

// ParentOf returns the parent technique of one sub-technique.
// Fails with ErrMissingParent when no live parent is linked to it.
func (c *Catalog) ParentOf(ctx context.Context, subtechniqueID string) (Entry, error) {
	parents, err := c.ParentTechniqueOf(ctx)
	if err != nil {
		return Entry{}, err
	}
	e, ok := parents[subtechniqueID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrMissingParent, subtechniqueID)
	}
	return e, nil
}
