// Package registry implements procedure identity: definition discovery,
// name legality and uniqueness, caller enumeration, rename propagation, and
// guarded deletion.
//
// INVARIANT: at most one non-flyout definition per proc code per workspace.
// The invariant is enforced by the legality check at naming time, not by
// storage; FindLegalName always resolves a collision by suffixing rather
// than surfacing an error.
//
// Rename and DeleteDefinition each emit exactly one grouped change
// notification regardless of how many blocks they touch, so the host's
// history system treats the whole operation as one step.
//
// Complexity: definition and caller lookups are linear scans over top-level
// subtrees. Procedure counts per workspace are small (tens, not thousands),
// so no index is maintained.
package registry
