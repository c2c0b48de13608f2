// Package sched provides the frame and idle callback scheduler behind every
// emulated window, plus the logical clock used to stamp events.
//
// The scheduler models browser animation-frame semantics: callbacks
// registered before a frame fires run together in registration order, and a
// callback registered while a frame is executing lands in the next frame,
// never the current one. That boundary is what the update-cycle
// synchronizer's two-frame wait relies on, so it is treated as an invariant
// here rather than an implementation detail.
//
// Frames are driven by a zero-delay timer, which is exactly the polyfill
// the environment provisioner installs on backends without native frame
// scheduling. Backends with native scheduling embed their own Scheduler
// constructed the same way; "native" is a capability-table fact, not a
// different mechanism in-process.
package sched

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs frame and idle callbacks for one window.
//
// Thread-safety: all methods are safe for concurrent use. Callbacks of one
// frame run sequentially on a single goroutine; two frames never overlap.
type Scheduler struct {
	mu      sync.Mutex
	runMu   sync.Mutex // serializes frame execution
	nextID  int64
	frame   []entry
	idle    []entry
	armed   bool
	closed  bool
	onFrame func() // test hook, may be nil
}

type entry struct {
	id int64
	fn func()
}

// NewScheduler creates an idle scheduler. The first registered callback
// arms the frame timer.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// RequestFrame schedules fn for the next frame and returns its callback id.
// A zero return means the scheduler is closed and fn will never run.
func (s *Scheduler) RequestFrame(fn func()) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.nextID++
	id := s.nextID
	s.frame = append(s.frame, entry{id: id, fn: fn})
	s.armLocked()
	return id
}

// CancelFrame removes a pending frame callback. Unknown ids are ignored.
func (s *Scheduler) CancelFrame(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = remove(s.frame, id)
}

// RequestIdle schedules fn for the idle phase of the next frame. Idle
// callbacks run after all frame callbacks of that frame.
func (s *Scheduler) RequestIdle(fn func()) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.nextID++
	id := s.nextID
	s.idle = append(s.idle, entry{id: id, fn: fn})
	s.armLocked()
	return id
}

// CancelIdle removes a pending idle callback.
func (s *Scheduler) CancelIdle(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = remove(s.idle, id)
}

// WaitFrame blocks until the next frame after the call has executed, or the
// context is done.
func (s *Scheduler) WaitFrame(ctx context.Context) error {
	done := make(chan struct{})
	s.RequestFrame(func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drops all pending callbacks. Pending WaitFrame calls only return
// when their context is cancelled; Close is for teardown paths where the
// context is already dead.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.frame = nil
	s.idle = nil
}

// armLocked starts the zero-delay frame timer unless one is already armed.
// Caller holds s.mu.
func (s *Scheduler) armLocked() {
	if s.armed {
		return
	}
	s.armed = true
	time.AfterFunc(0, s.runFrame)
}

// runFrame executes one frame: the snapshot of frame callbacks registered
// before this moment, then the idle snapshot. Callbacks registered during
// execution re-arm the timer and run next frame.
func (s *Scheduler) runFrame() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	frame := s.frame
	idle := s.idle
	s.frame = nil
	s.idle = nil
	s.armed = false
	hook := s.onFrame
	s.mu.Unlock()

	for _, e := range frame {
		e.fn()
	}
	for _, e := range idle {
		e.fn()
	}
	if hook != nil {
		hook()
	}
}

func remove(entries []entry, id int64) []entry {
	for i, e := range entries {
		if e.id == id {
			return append(entries[:i:i], entries[i+1:]...)
		}
	}
	return entries
}
