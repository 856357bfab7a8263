// Package block provides the workspace graph model for prockit.
//
// This package contains node and snapshot type definitions only. All other
// internal packages import block; block imports nothing internal. This keeps
// the graph model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Node capabilities are a tagged Kind, never reflection or probing
//   - Snapshots are the ONLY serialized form; strings are NFC normalized at
//     the serialization boundary
//   - All JSON tags use snake_case
//   - Name comparison is locale and case insensitive (see NameComparer)
package block
