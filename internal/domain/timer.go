package domain

import "time"

// DefaultTimerLabel is used when a voice command names no timer.
const DefaultTimerLabel = "kitchen"

// Timer is a named countdown. Timers are owned by the timer registry;
// everything outside it works on copies.
type Timer struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	Duration  time.Duration `json:"-"`
	Remaining time.Duration `json:"-"`
	Active    bool          `json:"active"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiredAt time.Time     `json:"expired_at,omitempty"`
}

// Expired reports whether the countdown has reached zero.
func (t *Timer) Expired() bool {
	return t.Remaining <= 0
}

// RemainingSeconds returns the remaining time in whole seconds, rounded up
// so a timer with 200ms left still shows 1.
func (t *Timer) RemainingSeconds() int {
	if t.Remaining <= 0 {
		return 0
	}
	return int((t.Remaining + time.Second - 1) / time.Second)
}

// DurationSeconds returns the total duration in seconds.
func (t *Timer) DurationSeconds() int {
	return int(t.Duration / time.Second)
}

// Status returns the display state of the timer.
func (t *Timer) Status() TimerStatus {
	switch {
	case t.Expired():
		return TimerExpired
	case t.Active:
		return TimerRunning
	default:
		return TimerPaused
	}
}

// TimerStatus represents the state of a timer.
type TimerStatus int

const (
	TimerRunning TimerStatus = iota
	TimerPaused
	TimerExpired
)

// String returns a human-readable timer status.
func (s TimerStatus) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	case TimerExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ExpiredEvent is emitted exactly once, on the tick where a timer reaches zero.
type ExpiredEvent struct {
	ID    string
	Label string
}
