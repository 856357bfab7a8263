// Package workspace provides the mutable block graph container and its
// structural mutation primitives.
//
// A Workspace owns a set of top-level block subtrees (insertion order is
// preserved and observable) and an index of every live block by ID. All
// structural edits go through Workspace methods so each edit is recorded on
// the change bus with before/after snapshots:
//
//   - AddTop / Rebuild: instantiate subtrees (ChangeCreate)
//   - Detach: unplug a block from its parent or stack (no event; detach is
//     always half of a larger grouped operation)
//   - Destroy: dispose a subtree (ChangeDelete)
//   - Move: reposition a top-level subtree (ChangeMove)
//   - RecordMutation: in-place procedure shape edit (ChangeMutate)
//
// Flyout workspaces model a palette preview area: their contents never
// commit, so name collision checking skips them entirely.
package workspace
