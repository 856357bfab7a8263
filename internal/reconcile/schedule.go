package reconcile

import (
	"sync"
	"time"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/workspace"
)

// DefaultQuietPeriod is the debounce delay after the last definition edit
// before a reconciliation pass fires.
const DefaultQuietPeriod = 500 * time.Millisecond

// Scheduler coalesces bursts of definition edits into single
// reconciliation passes.
//
// Edited marks the start (or continuation) of an edit batch: the initial
// type snapshot is captured on the first Edited of a batch, and the quiet
// timer restarts on every call. When the timer fires, or when Flush is
// called at gesture end, one pass runs against the captured snapshot.
//
// The timer callback runs on a timer goroutine. Hosts with a UI thread
// should wrap the dispatch function to re-post onto it; the zero dispatch
// runs the pass inline.
type Scheduler struct {
	mu       sync.Mutex
	rec      *Reconciler
	ws       *workspace.Workspace
	quiet    time.Duration
	dispatch func(func())

	timer   *time.Timer
	initial map[string]block.ReturnType
	closed  bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithQuietPeriod overrides the debounce delay.
func WithQuietPeriod(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.quiet = d
	}
}

// WithDispatch sets the function used to run timer-fired passes, letting a
// host marshal the pass back onto its mutation goroutine.
func WithDispatch(dispatch func(func())) SchedulerOption {
	return func(s *Scheduler) {
		s.dispatch = dispatch
	}
}

// NewScheduler creates a Scheduler for one workspace.
func NewScheduler(rec *Reconciler, ws *workspace.Workspace, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		rec:      rec,
		ws:       ws,
		quiet:    DefaultQuietPeriod,
		dispatch: func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Edited records that a definition edit happened. The first call of a
// batch captures the initial type snapshot; every call restarts the quiet
// timer, cancelling any pending pass.
func (s *Scheduler) Edited() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.initial == nil {
		s.initial = s.rec.SnapshotTypes(s.ws)
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, s.fire)
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	pending := s.initial != nil && !s.closed
	s.mu.Unlock()
	if !pending {
		// Flush or Close consumed the batch between timer expiry and now.
		return
	}
	s.dispatch(func() {
		s.mu.Lock()
		initial := s.takeBatchLocked()
		s.mu.Unlock()
		if initial == nil {
			return
		}
		s.rec.Reconcile(s.ws, initial)
	})
}

// Flush runs a pending pass synchronously, as at the end of a user
// gesture. Returns the pass result, or nil when no edit batch was open.
func (s *Scheduler) Flush() *Result {
	s.mu.Lock()
	initial := s.takeBatchLocked()
	s.mu.Unlock()
	if initial == nil {
		return nil
	}
	result := s.rec.Reconcile(s.ws, initial)
	return &result
}

// Close cancels any pending pass. Subsequent Edited calls are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.initial = nil
}

// takeBatchLocked consumes the open batch: stops the timer and returns the
// captured snapshot, or nil when no batch is open.
func (s *Scheduler) takeBatchLocked() map[string]block.ReturnType {
	if s.closed || s.initial == nil {
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	initial := s.initial
	s.initial = nil
	return initial
}
