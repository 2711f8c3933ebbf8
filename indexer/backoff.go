package indexer

import (
	"math/rand"
	"time"
)

// Backoff computes the next wait given the previous one, mirroring
// clients/feeder.Backoff in the teacher.
type Backoff func(wait time.Duration) time.Duration

const (
	backoffBase   = 100 * time.Millisecond
	backoffFactor = 2
	backoffCap    = 30 * time.Second
	backoffJitter = 0.10
)

// ExponentialBackoff implements §4.1's reconnect schedule: base 100ms, factor 2,
// cap 30s, jitter ±10%.
func ExponentialBackoff(wait time.Duration) time.Duration {
	if wait <= 0 {
		wait = backoffBase
	} else {
		wait *= backoffFactor
	}
	if wait > backoffCap {
		wait = backoffCap
	}
	jitter := 1 + backoffJitter*(2*rand.Float64()-1) //nolint:gosec
	return time.Duration(float64(wait) * jitter)
}
