package pipeline

import (
	"context"
	"time"
)

// DefaultThrottleInterval is the minimum spacing between provider calls,
// chosen to stay well within third-party usage policies.
const DefaultThrottleInterval = 100 * time.Millisecond

// Throttle enforces a minimum interval between the completion of one provider
// call and the start of the next. The interval is measured on the monotonic
// clock from the last recorded completion, not from a wall-clock schedule, so
// repeated use from a single control loop does not drift.
//
// Throttle is not safe for concurrent use; the pipeline issues exactly one
// stream of calls.
type Throttle struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time // injectable clock for tests
	sleep    func(time.Duration)
}

// NewThrottle creates a throttle with the given minimum interval. A
// non-positive interval disables waiting.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Wait blocks until at least the configured interval has passed since the last
// call to Done. The first call never blocks. Returns the context error if ctx
// is already cancelled; the wait itself is short and is not interrupted
// mid-sleep.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.last.IsZero() || t.interval <= 0 {
		return nil
	}
	if remaining := t.interval - t.now().Sub(t.last); remaining > 0 {
		t.sleep(remaining)
	}
	return nil
}

// Done records the completion of a provider call as the reference point for
// the next Wait.
func (t *Throttle) Done() {
	t.last = t.now()
}
