// Package backoff computes retry delays. Strategies are stateless and safe
// for concurrent use; jitter draws from math/rand.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before a given retry attempt.
type Strategy interface {
	// Delay returns the wait before attempt n (0-based) given the base delay,
	// the cap, the growth multiplier and a jitter fraction in [0, 1].
	Delay(attempt int, base, cap time.Duration, multiplier, jitter float64) time.Duration
}

// ExponentialJitter grows the delay by multiplier per attempt, caps it, and
// adds a uniform jitter fraction on top.
type ExponentialJitter struct{}

// Delay implements Strategy.
func (ExponentialJitter) Delay(attempt int, base, cap time.Duration, multiplier, jitter float64) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap the exponent so the float product cannot overflow the duration.
	if attempt > 30 {
		attempt = 30
	}

	d := time.Duration(float64(base) * pow(multiplier, attempt))
	if d < 0 || d > cap {
		d = cap
	}

	jitter = clamp01(jitter)
	if jitter > 0 {
		extra := time.Duration(float64(d) * jitter * rand.Float64())
		if d+extra > cap {
			d = cap
		} else {
			d += extra
		}
	}
	return d
}

// DecorrelatedJitter implements the AWS decorrelated-jitter schedule:
// a random delay between base and min(cap, base*3^attempt). It trades the
// per-dispatch state of the exact formula for a stateless approximation.
type DecorrelatedJitter struct{}

// Delay implements Strategy.
func (DecorrelatedJitter) Delay(attempt int, base, cap time.Duration, _, _ float64) time.Duration {
	if attempt <= 0 {
		return base
	}
	if attempt > 10 {
		attempt = 10
	}

	lower := float64(base)
	upper := lower * pow(3.0, attempt)
	if upper > float64(cap) || upper < 0 {
		upper = float64(cap)
	}
	if upper < lower {
		upper = lower
	}

	d := time.Duration(lower + rand.Float64()*(upper-lower))
	if d < 0 || d > cap {
		d = cap
	}
	return d
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
