// Package valuation estimates the present value of a possession from its
// purchase price, age, category and condition.
//
// The model compounds a monthly depreciation rate over the calendar-month age
// of the item, clamps the resulting factor at the category floor and scales
// by a condition factor:
//
//	age     = (today.year-acquired.year)*12 + (today.month-acquired.month)
//	factor  = max((1 - annual_rate/12)^age, floor_percentage/100)
//	current = original_price * factor * condition_factor
//
// A negative annual rate makes the factor grow with age (appreciation); the
// floor only ever bounds from below.
package valuation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"keepsake/internal/models"
)

// CategoryFactor is recorded on every valuation. It is reserved for a
// category-level multiplier and currently always 1.
var CategoryFactor = decimal.New(1, 0)

// ConditionFactor maps an item condition to its value multiplier. Unknown or
// missing conditions count as good.
func ConditionFactor(c models.Condition) decimal.Decimal {
	switch c {
	case models.ConditionNew:
		return decimal.New(1, 0)
	case models.ConditionExcellent:
		return decimal.New(9, -1)
	case models.ConditionGood:
		return decimal.New(75, -2)
	case models.ConditionFair:
		return decimal.New(6, -1)
	case models.ConditionPoor:
		return decimal.New(4, -1)
	default:
		return decimal.New(75, -2)
	}
}

// Subject is the input of a valuation: an item with a price and an
// acquisition date. Callers check those preconditions before building one.
type Subject struct {
	OriginalPrice   decimal.Decimal
	AcquisitionDate time.Time
	Category        string
	Condition       models.Condition
}

// SubjectFromEntry builds a Subject when the entry is an item with both a
// price and an acquisition date; ok is false otherwise.
func SubjectFromEntry(e *models.Entry) (Subject, bool) {
	item, isItem := e.Item()
	if !isItem || !item.Valuable() {
		return Subject{}, false
	}
	s := Subject{
		OriginalPrice:   item.OriginalPrice.Decimal,
		AcquisitionDate: *item.AcquisitionDate,
		Category:        item.Category,
	}
	if item.Condition != nil {
		s.Condition = *item.Condition
	}
	return s, true
}

// Result is everything a valuation produced, including the intermediate
// values, so it can be persisted and explained.
type Result struct {
	OriginalPrice      decimal.Decimal
	CurrentValue       decimal.Decimal
	AnnualRate         decimal.Decimal
	FloorPercentage    decimal.Decimal
	RuleSource         Source
	CategoryFactor     decimal.Decimal
	ConditionFactor    decimal.Decimal
	RawFactor          float64
	DepreciationFactor float64
	FloorApplied       bool
	AgeInMonths        int
	Methodology        string
	CalculatedAt       time.Time
}

// Calculator computes valuations against a rule resolver.
type Calculator struct {
	rules *Resolver
	now   func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock overrides the time source used for ages and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

// NewCalculator returns a Calculator resolving rules through r.
func NewCalculator(r *Resolver, opts ...Option) *Calculator {
	c := &Calculator{rules: r, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate values s as of the calculator's current time. It has no failure
// mode; the same subject valued in a later month yields a different result.
func (c *Calculator) Calculate(ctx context.Context, s Subject) Result {
	now := c.now()
	rule := c.rules.Resolve(ctx, s.Category)

	age := AgeInMonths(s.AcquisitionDate, now)
	raw := DepreciationFactor(rule.AnnualRate, age)
	floor := rule.FloorPercentage.InexactFloat64() / 100
	factor := math.Max(raw, floor)
	condition := ConditionFactor(s.Condition)

	current := s.OriginalPrice.
		Mul(decimal.NewFromFloat(factor)).
		Mul(CategoryFactor).
		Mul(condition).
		Round(2)

	res := Result{
		OriginalPrice:      s.OriginalPrice.Round(2),
		CurrentValue:       current,
		AnnualRate:         rule.AnnualRate,
		FloorPercentage:    rule.FloorPercentage,
		RuleSource:         rule.Source,
		CategoryFactor:     CategoryFactor,
		ConditionFactor:    condition,
		RawFactor:          raw,
		DepreciationFactor: factor,
		FloorApplied:       raw < floor,
		AgeInMonths:        age,
		CalculatedAt:       now,
	}
	res.Methodology = describe(s, res)
	return res
}

// Record converts the result into the row appended to the entry's history.
func (r Result) Record(entryID string) *models.ValuationRecord {
	return &models.ValuationRecord{
		EntryID:          entryID,
		OriginalPrice:    r.OriginalPrice,
		CurrentValue:     r.CurrentValue,
		DepreciationRate: r.AnnualRate,
		CategoryFactor:   r.CategoryFactor,
		ConditionFactor:  r.ConditionFactor,
		AgeInMonths:      r.AgeInMonths,
		Methodology:      r.Methodology,
		CalculatedAt:     r.CalculatedAt,
	}
}

// AgeInMonths is the calendar-month difference between two dates. The day of
// the month is ignored, so Jan 31 to Feb 1 is one month.
func AgeInMonths(acquired, now time.Time) int {
	return (now.Year()-acquired.Year())*12 + int(now.Month()) - int(acquired.Month())
}

// DepreciationFactor is the unclamped (1 - annualRate/12)^months.
func DepreciationFactor(annualRate decimal.Decimal, months int) float64 {
	monthly := annualRate.InexactFloat64() / 12
	return math.Pow(1-monthly, float64(months))
}

func describe(s Subject, r Result) string {
	category := s.Category
	if category == "" {
		category = "(uncategorized)"
	}
	condition := string(s.Condition)
	if condition == "" {
		condition = "unspecified"
	}
	floorNote := "not reached"
	if r.FloorApplied {
		floorNote = "applied"
	}
	return fmt.Sprintf(
		"category %s: annual rate %s%% (%s rule, monthly %.4f%%); age %d months; "+
			"depreciation factor %.6f (raw %.6f, floor %s%% %s); condition %s factor %s; "+
			"category factor %s; current value = %s x %.6f x %s x %s = %s",
		category,
		r.AnnualRate.Mul(decimal.New(100, 0)).StringFixed(2), r.RuleSource, r.AnnualRate.InexactFloat64()/12*100,
		r.AgeInMonths,
		r.DepreciationFactor, r.RawFactor, r.FloorPercentage.StringFixed(2), floorNote,
		condition, r.ConditionFactor.StringFixed(2),
		r.CategoryFactor.StringFixed(2),
		r.OriginalPrice.StringFixed(2), r.DepreciationFactor, r.CategoryFactor.StringFixed(2),
		r.ConditionFactor.StringFixed(2), r.CurrentValue.StringFixed(2),
	)
}
