// Package timer provides a re-armable one-shot timer used for roll display
// expiry and debounced saves.
package timer

import (
	"sync"
	"time"
)

// Timer fires a callback once after a delay unless it is stopped or re-armed
// first. Re-arming invalidates any callback still pending from an earlier arm.
// It is safe for concurrent use.
type Timer struct {
	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
}

// New creates and arms a Timer that calls onFire after d.
// onFire is called in a separate goroutine.
//
// Precondition: onFire must not be nil.
func New(d time.Duration, onFire func()) *Timer {
	t := &Timer{}
	t.Reset(d, onFire)
	return t
}

// Reset cancels any pending callback and arms the timer to call onFire after d.
//
// Postcondition: only this onFire can fire, after d from now, unless Stop or
// Reset is called first.
func (t *Timer) Reset(d time.Duration, onFire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.pending = true
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		live := t.gen == gen
		if live {
			t.pending = false
		}
		t.mu.Unlock()
		if live {
			onFire()
		}
	})
}

// Stop cancels the pending callback and reports whether one was pending.
// Safe to call multiple times.
//
// Postcondition: no callback armed before Stop will run after Stop returns.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
	}
	was := t.pending
	t.pending = false
	return was
}

// Pending reports whether a callback is armed and has not yet fired.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}
