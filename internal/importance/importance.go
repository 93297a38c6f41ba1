// Package importance turns an entry's sub-scores into a single composite score.
//
// The model is a fixed linear blend:
//
//	0.35·emotional + 0.25·practical + 0.25·frequency + 0.15·duration
//
// rounded to two decimals. The weights sum to exactly 1, so equal sub-scores
// reproduce themselves (all 10s score 10.00, all 1s score 1.00). Inputs are
// expected in [MinScore, MaxScore]; callers validate before computing.
package importance

import "math"

// Score bounds shared by every sub-score and the user-set overall score.
const (
	MinScore     = 1
	MaxScore     = 10
	DefaultScore = 5
)

// Weights of the composite. Not configurable.
const (
	EmotionalWeight = 0.35
	PracticalWeight = 0.25
	FrequencyWeight = 0.25
	DurationWeight  = 0.15
)

// Compute returns the weighted composite of the four sub-scores, rounded to
// two decimal places.
func Compute(emotional, practical, frequency, duration int) float64 {
	raw := EmotionalWeight*float64(emotional) +
		PracticalWeight*float64(practical) +
		FrequencyWeight*float64(frequency) +
		DurationWeight*float64(duration)
	return round2(raw)
}

// InRange reports whether v is a valid score.
func InRange(v int) bool {
	return v >= MinScore && v <= MaxScore
}

// round2 rounds half away from zero at the second decimal. The small epsilon
// absorbs binary representation error (2.675 is stored as 2.67499...).
func round2(v float64) float64 {
	return math.Round(v*100+copysign(1e-9, v)) / 100
}

func copysign(eps, v float64) float64 {
	if v < 0 {
		return -eps
	}
	return eps
}
