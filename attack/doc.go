// Package attack provides single-field lookups over an ATT&CK store:
// techniques by name, platform or tactic, groups by alias, software,
// matrices and their tactics, and objects changed after a point in time.
//
// Lookups return objects as stored, revoked and deprecated ones included.
// Use the relate package for relationship traversal.
package attack
