package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "keepsake/internal/errors"
	"keepsake/internal/logger"
	"keepsake/internal/models"
	"keepsake/internal/valuation"
)

// ruleService reads and seeds persisted depreciation rules.
type ruleService struct {
	db *gorm.DB
}

// NewRuleService creates a new RuleServicer.
func NewRuleService(db *gorm.DB) RuleServicer {
	return &ruleService{db: db}
}

// Lookup implements valuation.RuleSource. Database errors are logged and
// treated as a miss so resolution falls through to the built-in table.
func (s *ruleService) Lookup(ctx context.Context, category string) (valuation.Rule, bool) {
	var rule models.DepreciationRule
	err := s.db.WithContext(ctx).Where("category = ?", category).First(&rule).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Errorw("failed to look up depreciation rule", "error", err, "category", category)
		}
		return valuation.Rule{}, false
	}
	return valuation.Rule{
		Category:        rule.Category,
		AnnualRate:      rule.AnnualRate,
		FloorPercentage: rule.MinValuePercentage,
		Source:          valuation.SourcePersisted,
	}, true
}

// ListRules returns every persisted rule ordered by category.
func (s *ruleService) ListRules() ([]models.DepreciationRule, error) {
	var rules []models.DepreciationRule
	if err := s.db.Order("category").Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if rules == nil {
		rules = []models.DepreciationRule{}
	}
	return rules, nil
}

// ResolveRule runs the full resolver chain for category.
func (s *ruleService) ResolveRule(ctx context.Context, category string) valuation.Rule {
	return s.Resolver().Resolve(ctx, category)
}

// Resolver returns a chain that consults persisted rules first.
func (s *ruleService) Resolver() *valuation.Resolver {
	return valuation.NewResolver(s)
}

// SeedDefaultRules inserts the built-in table for categories that have no
// persisted rule yet and returns how many rows were added. Existing rows are
// left untouched.
func (s *ruleService) SeedDefaultRules() (int, error) {
	builtin := valuation.BuiltinRules()
	rows := make([]models.DepreciationRule, 0, len(builtin))
	for _, r := range builtin {
		rows = append(rows, models.DepreciationRule{
			Category:           r.Category,
			AnnualRate:         r.AnnualRate,
			MinValuePercentage: r.FloorPercentage,
		})
	}

	var added int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "category"}}, DoNothing: true}).Create(&rows)
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	logger.Get().Infow("seeded depreciation rules", "added", added, "total", len(rows))
	return int(added), nil
}
