package bridge

import (
	rand "math/rand/v2"
	"time"
)

const (
	defaultResubscribeBase = 50 * time.Millisecond
	defaultResubscribeCap  = 5 * time.Second
	resubscribeMultiplier  = 3.0
)

// jitterBackoff returns the delay before the next resubscribe attempt using
// decorrelated jitter bounded by capDur.
//
//	next = min(cap, base + rand(prev*multiplier - base))
//
// A non-positive prev starts from base. A nil rng uses the package-level PRNG.
func jitterBackoff(prev, base time.Duration, mult float64, capDur time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		base = defaultResubscribeBase
	}
	if mult < 1.0 {
		mult = 1.0
	}
	if capDur > 0 && capDur < base {
		return capDur
	}
	if prev <= 0 {
		return base
	}

	spread := time.Duration(float64(prev)*mult) - base
	if spread <= 0 {
		spread = base
	}

	var jitter int64
	if rng != nil {
		jitter = rng.Int64N(int64(spread))
	} else {
		jitter = rand.Int64N(int64(spread)) //nolint:gosec // non-crypto backoff jitter
	}

	next := base + time.Duration(jitter)
	if capDur > 0 && next > capDur {
		return capDur
	}

	return next
}

// newRetryRNG returns a deterministic RNG for a non-zero seed, nil otherwise.
//
//nolint:gosec
func newRetryRNG(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	s1 := uint64(seed)

	return rand.New(rand.NewPCG(s1, s1^0x9e3779b97f4a7c15))
}
