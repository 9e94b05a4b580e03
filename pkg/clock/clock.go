// Package clock abstracts the timer source used by the presentation engine.
//
// Every suspension point of a session (the pause between staged reveals, the
// floating tick, the layout settle timeout) is a scheduled callback rather
// than a blocking wait. Components receive a [Clock] so the same code runs
// against wall-clock timers in production ([Real]) and a manually advanced
// virtual timeline in tests ([Fake]).
package clock

import "time"

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer; false means the callback already ran or the timer
	// was already stopped.
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	// Now returns the current time on this clock.
	Now() time.Time

	// AfterFunc calls f once, d after the call. A non-positive d schedules
	// f as soon as possible but never runs it synchronously.
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is a [Clock] backed by the time package. Callbacks run on their own
// goroutine, as with [time.AfterFunc].
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// AfterFunc wraps [time.AfterFunc].
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

var _ Clock = Real{}
