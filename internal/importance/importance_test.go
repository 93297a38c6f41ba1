package importance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		e, p, f, d int
		want       float64
	}{
		{"worked_example", 8, 6, 7, 9, 7.40},
		{"all_max", 10, 10, 10, 10, 10.00},
		{"all_min", 1, 1, 1, 1, 1.00},
		{"defaults", 5, 5, 5, 5, 5.00},
		{"emotional_only_high", 10, 1, 1, 1, 4.15},
		{"duration_only_high", 1, 1, 1, 10, 2.35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.e, tt.p, tt.f, tt.d))
		})
	}
}

func TestCompute_MatchesFormulaOverDomain(t *testing.T) {
	assert.InDelta(t, 1.0, EmotionalWeight+PracticalWeight+FrequencyWeight+DurationWeight, 1e-12)

	for e := MinScore; e <= MaxScore; e++ {
		for p := MinScore; p <= MaxScore; p++ {
			for f := MinScore; f <= MaxScore; f++ {
				for d := MinScore; d <= MaxScore; d++ {
					// integer hundredths avoid float noise in the expectation
					hundredths := 35*e + 25*p + 25*f + 15*d
					got := Compute(e, p, f, d)
					if math.Abs(got*100-float64(hundredths)) > 1e-6 {
						t.Fatalf("Compute(%d,%d,%d,%d) = %v, want %v", e, p, f, d, got, float64(hundredths)/100)
					}
				}
			}
		}
	}
}

func TestInRange(t *testing.T) {
	assert.False(t, InRange(0))
	assert.True(t, InRange(1))
	assert.True(t, InRange(10))
	assert.False(t, InRange(11))
}

func intp(v int) *int { return &v }

func TestScores_Apply(t *testing.T) {
	base := Scores{Overall: 5, Emotional: 5, Practical: 5, Frequency: 5, Duration: 5}

	t.Run("no_fields", func(t *testing.T) {
		next, changed := base.Apply(Patch{})
		assert.False(t, changed)
		assert.Equal(t, base, next)
	})

	t.Run("same_value_is_not_a_change", func(t *testing.T) {
		_, changed := base.Apply(Patch{Emotional: intp(5), Overall: intp(5)})
		assert.False(t, changed)
	})

	t.Run("overall_alone_counts", func(t *testing.T) {
		next, changed := base.Apply(Patch{Overall: intp(9)})
		assert.True(t, changed)
		assert.Equal(t, 9, next.Overall)
		assert.Equal(t, 5.0, next.Composite(), "overall does not feed the composite")
	})

	t.Run("sub_scores", func(t *testing.T) {
		next, changed := base.Apply(Patch{Emotional: intp(8), Practical: intp(6), Frequency: intp(7), Duration: intp(9)})
		assert.True(t, changed)
		assert.Equal(t, 7.4, next.Composite())
		assert.Equal(t, 5, base.Emotional, "receiver is not modified")
	})
}

func TestPatch_Invalid(t *testing.T) {
	assert.Equal(t, "", Patch{}.Invalid())
	assert.Equal(t, "", Patch{Overall: intp(1), Duration: intp(10)}.Invalid())
	assert.Equal(t, "emotional_value", Patch{Emotional: intp(0)}.Invalid())
	assert.Equal(t, "importance_score", Patch{Overall: intp(11), Duration: intp(0)}.Invalid())
	assert.Equal(t, "frequency_of_use", Patch{Frequency: intp(-3)}.Invalid())
}
