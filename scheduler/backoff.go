package scheduler

import "time"

// Backoff tracks the sleep after a failed cycle.
// The value stays between base and max; each failure doubles it, a success resets it.
type Backoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
}

func NewBackoff(base, max time.Duration) *Backoff {
	if max < base {
		max = base
	}
	return &Backoff{base: base, max: max, current: base}
}

// Failure returns how long to wait after this failure and doubles the next wait
func (b *Backoff) Failure() time.Duration {
	wait := b.current
	b.current *= 2
	if b.current > b.max || b.current <= 0 {
		b.current = b.max
	}
	return wait
}

// Success resets the backoff and returns the base interval
func (b *Backoff) Success() time.Duration {
	b.current = b.base
	return b.base
}

// Current is the wait the next failure would get
func (b *Backoff) Current() time.Duration {
	return b.current
}
