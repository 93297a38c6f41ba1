package importance

// Scores holds the five importance inputs stored on an entry.
type Scores struct {
	Overall   int `json:"importance_score"`
	Emotional int `json:"emotional_value"`
	Practical int `json:"practical_value"`
	Frequency int `json:"frequency_of_use"`
	Duration  int `json:"duration_owned"`
}

// Patch carries the score fields supplied by an update; nil means untouched.
type Patch struct {
	Overall   *int
	Emotional *int
	Practical *int
	Frequency *int
	Duration  *int
}

// Composite computes the weighted score from the four sub-scores.
func (s Scores) Composite() float64 {
	return Compute(s.Emotional, s.Practical, s.Frequency, s.Duration)
}

// Apply returns the scores after the patch and whether any field changed
// value. A supplied field equal to the stored one is not a change; a changed
// result is what moves an entry's importance_last_evaluated forward.
func (s Scores) Apply(p Patch) (Scores, bool) {
	next := s
	changed := false
	set := func(dst *int, v *int) {
		if v == nil || *dst == *v {
			return
		}
		*dst = *v
		changed = true
	}
	set(&next.Overall, p.Overall)
	set(&next.Emotional, p.Emotional)
	set(&next.Practical, p.Practical)
	set(&next.Frequency, p.Frequency)
	set(&next.Duration, p.Duration)
	return next, changed
}

// Invalid returns the name of the first supplied field outside the score
// range, or "" when every supplied field is valid.
func (p Patch) Invalid() string {
	fields := []struct {
		name string
		v    *int
	}{
		{"importance_score", p.Overall},
		{"emotional_value", p.Emotional},
		{"practical_value", p.Practical},
		{"frequency_of_use", p.Frequency},
		{"duration_owned", p.Duration},
	}
	for _, f := range fields {
		if f.v != nil && !InRange(*f.v) {
			return f.name
		}
	}
	return ""
}
