// Package cli implements the prockit command line interface.
//
// Commands operate on workspace documents: YAML files describing the
// top-level block subtrees of one workspace. Documents are validated
// against an embedded CUE schema before any blocks are built, so every
// command sees a structurally sound workspace or a coded load error.
//
// Output goes through OutputFormatter in either text or JSON form.
// Exit codes: 0 success, 1 operation refused or drift found, 2 command
// error (bad paths, malformed documents, unknown procedures).
package cli
