package valuation

import (
	"context"

	"github.com/shopspring/decimal"
)

// Source names the link of the resolver chain that produced a rule.
type Source string

const (
	SourcePersisted Source = "persisted"
	SourceBuiltin   Source = "builtin"
	SourceDefault   Source = "default"
)

// Rule holds the depreciation parameters for one category. FloorPercentage
// is the share of the original price (0-100) the depreciation factor never
// drops below.
type Rule struct {
	Category        string          `json:"category"`
	AnnualRate      decimal.Decimal `json:"annual_rate"`
	FloorPercentage decimal.Decimal `json:"min_value_percentage"`
	Source          Source          `json:"source"`
}

// Fallback parameters for categories nobody has a rule for.
var (
	DefaultAnnualRate      = decimal.New(12, -2)
	DefaultFloorPercentage = decimal.New(10, 0)
)

// RuleSource is one link of the resolution chain.
type RuleSource interface {
	Lookup(ctx context.Context, category string) (Rule, bool)
}

// RuleSourceFunc adapts a function to RuleSource.
type RuleSourceFunc func(ctx context.Context, category string) (Rule, bool)

// Lookup implements RuleSource.
func (f RuleSourceFunc) Lookup(ctx context.Context, category string) (Rule, bool) {
	return f(ctx, category)
}

// Resolver walks its sources in order and returns the first rule found. The
// built-in table and the hardcoded default always close the chain, so
// resolution never fails.
type Resolver struct {
	sources []RuleSource
}

// NewResolver builds a chain that consults sources first, then the built-in
// table, then the default.
func NewResolver(sources ...RuleSource) *Resolver {
	chain := make([]RuleSource, 0, len(sources)+1)
	for _, s := range sources {
		if s != nil {
			chain = append(chain, s)
		}
	}
	chain = append(chain, RuleSourceFunc(func(_ context.Context, category string) (Rule, bool) {
		return BuiltinRule(category)
	}))
	return &Resolver{sources: chain}
}

// Resolve returns the rule for category.
func (r *Resolver) Resolve(ctx context.Context, category string) Rule {
	for _, s := range r.sources {
		if rule, ok := s.Lookup(ctx, category); ok {
			rule.Category = category
			return rule
		}
	}
	return Rule{
		Category:        category,
		AnnualRate:      DefaultAnnualRate,
		FloorPercentage: DefaultFloorPercentage,
		Source:          SourceDefault,
	}
}

// RateFor returns the annual depreciation rate for category.
func (r *Resolver) RateFor(ctx context.Context, category string) decimal.Decimal {
	return r.Resolve(ctx, category).AnnualRate
}

// FloorFor returns the minimum value percentage for category.
func (r *Resolver) FloorFor(ctx context.Context, category string) decimal.Decimal {
	return r.Resolve(ctx, category).FloorPercentage
}

// Built-in category names.
const (
	CategoryElectronics = "electronics"
	CategoryVehicles    = "vehicles"
	CategoryFurniture   = "furniture"
	CategoryClothing    = "clothing"
	CategoryBooks       = "books"
	CategoryArt         = "art"
	CategoryJewelry     = "jewelry"
	CategoryOther       = "other"
)

// BuiltinCategories lists the built-in table's keys in seed order.
func BuiltinCategories() []string {
	return []string{
		CategoryElectronics,
		CategoryVehicles,
		CategoryFurniture,
		CategoryClothing,
		CategoryBooks,
		CategoryArt,
		CategoryJewelry,
		CategoryOther,
	}
}

// BuiltinRule looks category up in the compiled default table. Matching is
// exact.
func BuiltinRule(category string) (Rule, bool) {
	var rate, floor decimal.Decimal
	switch category {
	case CategoryElectronics:
		rate, floor = decimal.New(25, -2), decimal.New(10, 0)
	case CategoryVehicles:
		rate, floor = decimal.New(15, -2), decimal.New(15, 0)
	case CategoryFurniture:
		rate, floor = decimal.New(10, -2), decimal.New(20, 0)
	case CategoryClothing:
		rate, floor = decimal.New(30, -2), decimal.New(5, 0)
	case CategoryBooks:
		rate, floor = decimal.New(5, -2), decimal.New(30, 0)
	case CategoryArt:
		rate, floor = decimal.New(-5, -2), decimal.New(50, 0)
	case CategoryJewelry:
		rate, floor = decimal.New(2, -2), decimal.New(40, 0)
	case CategoryOther:
		rate, floor = decimal.New(12, -2), decimal.New(15, 0)
	default:
		return Rule{}, false
	}
	return Rule{Category: category, AnnualRate: rate, FloorPercentage: floor, Source: SourceBuiltin}, true
}

// BuiltinRules returns a fresh copy of the whole built-in table.
func BuiltinRules() []Rule {
	cats := BuiltinCategories()
	rules := make([]Rule, 0, len(cats))
	for _, c := range cats {
		r, _ := BuiltinRule(c)
		rules = append(rules, r)
	}
	return rules
}
