// Package stix models the STIX 2.x objects that make up the MITRE ATT&CK
// knowledge graph: techniques (attack-pattern), groups (intrusion-set),
// software (malware, tool), mitigations (course-of-action), data components
// and the relationship edges between them.
//
// Objects are decoded from bundle or single-object JSON documents. The
// revoked and x_mitre_deprecated lifecycle flags are resolved once at decode
// time into Object.Revoked and Object.Deprecated:
//
//	objs, err := stix.Decode(data)
//	for _, o := range objs {
//	    if !o.Live() {
//	        continue
//	    }
//	    if rel, ok := o.AsRelationship(); ok {
//	        fmt.Println(rel.SourceRef, rel.RelationshipType, rel.TargetRef)
//	    }
//	}
//
// STIX identifiers encode the object type as a prefix ("malware--<uuid>");
// TypeOf and ParseID read it back without a store lookup.
package stix
