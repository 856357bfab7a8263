// Package reconcile keeps call-site shapes consistent with the inferred
// return behavior of the procedures they reference.
//
// A reconciliation pass compares two snapshots of every definition's return
// type: initialTypes (captured when an edit batch starts) and finalTypes
// (recomputed when the batch ends). Call sites whose cached type drifted
// from the freshly inferred type are rewritten in place, all inside one
// grouped notification, and the host is told to refresh its cached
// procedure listing only when a type actually changed between snapshots.
//
// Passes are triggered by the Scheduler: a debounce timer that fires once
// after a quiet period following definition edits, or immediately on Flush
// when a user gesture completes. Passes never run concurrently with each
// other; a pending timer is cancelled when a new edit batch starts.
//
// ERROR HANDLING: a failed call-site rewrite is logged with full context
// and the pass continues. Aborting mid-pass would leave sibling call sites
// inconsistent, which is worse than one stale shape.
package reconcile
