package synth

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy is the backoff schedule for transient synthesis failures.
// Delays grow exponentially from BaseDelay and individual waits are
// capped at MaxDelay.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int `json:"attempts" yaml:"attempts"`
	// BaseDelay is the wait after the first failure.
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`
	// MaxDelay caps any single wait.
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`
}

// DefaultPolicy matches the engine's observed recovery behavior: five
// tries with waits of 0.8s doubling up to an 8s cap.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  5,
		BaseDelay: 800 * time.Millisecond,
		MaxDelay:  8 * time.Second,
	}
}

func (p Policy) backoff() retry.Backoff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	b := retry.NewExponential(base)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}
