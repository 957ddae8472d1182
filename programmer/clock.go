package programmer

import "time"

// Clock abstracts the monotonic time source used for write polling
// deadlines and self-timed write waits. Production code uses SystemClock;
// tests inject a fake to make the polling state machine deterministic.
type Clock interface {
	// Now returns the current time. Deadline arithmetic relies on the
	// monotonic component, never on wall-clock readings.
	Now() time.Time

	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the real monotonic clock.
func SystemClock() Clock { return systemClock{} }
