// Package idle tracks user inactivity. Timer is a single-threshold
// idleness primitive; Monitor composes two thresholds (warning, logout)
// per session on top of it. Both are event-driven -- transitions fire
// from timer callbacks, there is no polling loop.
package idle

import (
	"sync"
	"time"
)

// Timer fires a callback once when no activity has been reported for the
// configured timeout, and another when activity resumes afterwards. Each
// transition fires exactly once: repeated activity while active, or
// continued silence while idle, does not re-fire.
type Timer struct {
	mu      sync.Mutex
	timeout time.Duration
	timer   *time.Timer
	idle    bool
	stopped bool

	onIdle   func()
	onActive func()
}

// NewTimer creates a running Timer. Either callback may be nil. onIdle is
// invoked from an internal timer goroutine; onActive is invoked from the
// goroutine calling Activity. Callbacks must not block.
func NewTimer(timeout time.Duration, onIdle, onActive func()) *Timer {
	t := &Timer{
		timeout:  timeout,
		onIdle:   onIdle,
		onActive: onActive,
	}
	t.timer = time.AfterFunc(timeout, t.fire)
	return t
}

func (t *Timer) fire() {
	t.mu.Lock()
	if t.stopped || t.idle {
		t.mu.Unlock()
		return
	}
	t.idle = true
	cb := t.onIdle
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Activity reports user activity, restarting the idle countdown. If the
// timer had already gone idle, the active-again callback fires.
func (t *Timer) Activity() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	wasIdle := t.idle
	t.idle = false
	t.timer.Reset(t.timeout)
	cb := t.onActive
	t.mu.Unlock()

	if wasIdle && cb != nil {
		cb()
	}
}

// Idle reports whether the timer is currently in the idle state.
func (t *Timer) Idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.idle
}

// Stop halts the timer permanently. Pending callbacks are cancelled; a
// callback already in flight may still complete.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.timer.Stop()
}
