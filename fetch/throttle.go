package fetch

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ThrottleConfig holds fetch bandwidth limits.
type ThrottleConfig struct {
	// MaxInFlightBytes caps the packed bytes in flight across concurrent
	// fetches. If 0, no cap is enforced (only tracking).
	MaxInFlightBytes int64

	// BytesPerSec is the maximum sustained read throughput against the
	// remote mirror. If 0, unlimited.
	BytesPerSec int64
}

// Throttle bounds the load concurrent fetches put on a remote mirror.
// A nil *Throttle is valid and enforces nothing.
type Throttle struct {
	cfg ThrottleConfig

	sem      *semaphore.Weighted // nil if uncapped
	inFlight atomic.Int64

	limiter *rate.Limiter // nil if unlimited
}

// NewThrottle creates a Throttle from the given limits.
func NewThrottle(cfg ThrottleConfig) *Throttle {
	t := &Throttle{cfg: cfg}

	if cfg.MaxInFlightBytes > 0 {
		t.sem = semaphore.NewWeighted(cfg.MaxInFlightBytes)
	}
	if cfg.BytesPerSec > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.BytesPerSec), int(cfg.BytesPerSec))
	}

	return t
}

// Acquire reserves capacity for a read of the given size, blocking until the
// in-flight cap and the rate limit both allow it or ctx is canceled.
// Requests larger than a configured limit consume the whole limit rather
// than failing.
func (t *Throttle) Acquire(ctx context.Context, bytes int64) error {
	if t == nil || bytes <= 0 {
		return nil
	}

	if t.sem != nil {
		n := min(bytes, t.cfg.MaxInFlightBytes)
		if err := t.sem.Acquire(ctx, n); err != nil {
			return err
		}
	}
	t.inFlight.Add(bytes)

	if err := t.waitRate(ctx, bytes); err != nil {
		t.release(bytes)
		return err
	}
	return nil
}

// Release returns the capacity reserved by a matching Acquire.
func (t *Throttle) Release(bytes int64) {
	if t == nil || bytes <= 0 {
		return
	}
	t.release(bytes)
}

func (t *Throttle) release(bytes int64) {
	if t.sem != nil {
		t.sem.Release(min(bytes, t.cfg.MaxInFlightBytes))
	}
	t.inFlight.Add(-bytes)
}

// waitRate consumes bytes from the rate limiter in burst-sized steps.
func (t *Throttle) waitRate(ctx context.Context, bytes int64) error {
	if t.limiter == nil {
		return nil
	}
	burst := int64(t.limiter.Burst())
	for bytes > 0 {
		n := min(bytes, burst)
		if err := t.limiter.WaitN(ctx, int(n)); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// InFlight returns the packed bytes currently in flight.
func (t *Throttle) InFlight() int64 {
	if t == nil {
		return 0
	}
	return t.inFlight.Load()
}
