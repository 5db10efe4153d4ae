// Package clock abstracts time so that code scheduling callbacks can be
// driven deterministically in tests. Production code injects Real();
// tests inject Fake() and move time with Advance.
package clock

import "time"

// Clock is the time source and scheduler used by services.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for duration d, then calls f. The returned Timer
	// cancels the pending call with Stop. If d <= 0, f is called
	// immediately in a new goroutine (real) or synchronously (fake).
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a cancellable handle for a scheduled callback.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the Timer from firing. Returns true if the call stops
// the timer, false if the timer has already fired or been stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}
	return t.stopFunc()
}
