package notify

import "time"

// Policy bounds the delivery attempts of one dispatch.
type Policy struct {
	MaxAttempts int
	// Timeout applies to each attempt independently.
	Timeout time.Duration
	// BackoffBase and BackoffUnit give a wait of BackoffUnit * BackoffBase^i
	// between attempt i and i+1 (zero-indexed).
	BackoffBase int
	BackoffUnit time.Duration
}

// DefaultPolicy is 3 attempts, 5s each, with 1s, 2s backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Timeout:     5 * time.Second,
		BackoffBase: 2,
		BackoffUnit: time.Second,
	}
}

// Backoff returns the wait after zero-indexed attempt i.
func (p Policy) Backoff(i int) time.Duration {
	d := p.BackoffUnit
	for range i {
		d *= time.Duration(p.BackoffBase)
	}

	return d
}
