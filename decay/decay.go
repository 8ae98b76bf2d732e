// Package decay implements time-based score attenuation.
//
// Both context extraction and store search multiply a base score by the
// decay factor so that recent documents outrank older ones:
//
//	factor = 1 / (1 + elapsed_days * rate)
//
// A recent weak match can therefore beat an old strong one.
package decay

import (
	"errors"
	"time"
)

// ErrNegativeRate is returned when a caller supplies a decay rate below
// zero, which would make the factor grow or diverge instead of decaying.
var ErrNegativeRate = errors.New("decay: rate must be >= 0")

const hoursPerDay = 24.0

// Factor computes the attenuation for a score at reference time observed
// at now. Elapsed time is clamped at zero, so a reference in the future
// yields exactly 1. The factor is always in (0, 1].
func Factor(reference, now time.Time, rate float64) (float64, error) {
	if rate < 0 {
		return 0, ErrNegativeRate
	}
	days := now.Sub(reference).Hours() / hoursPerDay
	if days < 0 {
		days = 0
	}
	return 1.0 / (1.0 + days*rate), nil
}
