// Package events provides grouped structural-change notifications.
//
// Every mutation of the workspace graph is recorded as a Change carrying
// before/after snapshots. Changes are batched into Groups delimited by
// explicit begin/end markers so a host's history system can treat an entire
// operation (a rename touching N callers, a reconciliation pass rewriting M
// call sites) as ONE undoable unit.
//
// ARCHITECTURE:
//
// Single-Writer Discipline:
// All mutation happens synchronously on one goroutine in response to user
// gestures or timer callbacks. The bus therefore performs no locking of its
// own; the debounce timer in the reconcile package re-dispatches onto the
// mutation goroutine before touching the bus.
//
// Exception-Safe Grouping:
// BeginGroup returns a scope whose End method is idempotent and intended for
// defer. The end-of-group notification fires even if a rewrite step fails
// mid-batch, preventing the host's history from being left in a half-open
// group.
//
// Nested groups coalesce: only the outermost End publishes the group.
package events
