package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"keepsake/internal/uuid"
)

// ErrAppendOnly is returned by hooks on history tables when a write would
// modify an existing row.
var ErrAppendOnly = errors.New("history rows are append-only")

// ValuationRecord is an immutable snapshot of one value computation. It
// carries every input used so the value can be explained without rerunning
// the calculation.
type ValuationRecord struct {
	ID               string          `gorm:"type:uuid;primaryKey" json:"id"`
	EntryID          string          `gorm:"type:uuid;not null;index:idx_valuations_entry_calculated,priority:1" json:"entry_id"`
	OriginalPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"original_price"`
	CurrentValue     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"current_value"`
	DepreciationRate decimal.Decimal `gorm:"type:numeric(6,4);not null" json:"depreciation_rate"`
	CategoryFactor   decimal.Decimal `gorm:"type:numeric(4,2);not null" json:"category_factor"`
	ConditionFactor  decimal.Decimal `gorm:"type:numeric(4,2);not null" json:"condition_factor"`
	AgeInMonths      int             `gorm:"not null" json:"age_in_months"`
	Methodology      string          `gorm:"type:text;not null" json:"methodology"`
	CalculatedAt     time.Time       `gorm:"not null;index:idx_valuations_entry_calculated,priority:2,sort:desc" json:"calculated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (v *ValuationRecord) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate rejects any attempt to rewrite a recorded valuation.
func (v *ValuationRecord) BeforeUpdate(tx *gorm.DB) error {
	return ErrAppendOnly
}

// DepreciationRule overrides the built-in depreciation parameters for one
// category. AnnualRate may be negative for categories that appreciate.
type DepreciationRule struct {
	Base
	Category           string          `gorm:"size:100;not null;uniqueIndex" json:"category"`
	AnnualRate         decimal.Decimal `gorm:"type:numeric(6,4);not null" json:"annual_rate"`
	MinValuePercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:10" json:"min_value_percentage"`
}
