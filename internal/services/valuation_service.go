package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "keepsake/internal/errors"
	"keepsake/internal/logger"
	"keepsake/internal/models"
	"keepsake/internal/pagination"
	"keepsake/internal/valuation"
)

const revaluationBatchSize = 100

// valuationService appends valuation records to item entries.
type valuationService struct {
	db   *gorm.DB
	calc *valuation.Calculator
}

// NewValuationService creates a new ValuationServicer.
func NewValuationService(db *gorm.DB, calc *valuation.Calculator) ValuationServicer {
	return &valuationService{db: db, calc: calc}
}

// appendValuation values the entry and stores the record. Nothing is written
// when the entry cannot be valued.
func (s *valuationService) appendValuation(ctx context.Context, tx *gorm.DB, entry *models.Entry) (*models.ValuationRecord, error) {
	subject, ok := valuation.SubjectFromEntry(entry)
	if !ok {
		return nil, apperrors.ErrValuationNotApplicable
	}
	record := s.calc.Calculate(ctx, subject).Record(entry.ID)
	if err := tx.Create(record).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return record, nil
}

// CalculateValuation appends a fresh valuation for an owned item.
func (s *valuationService) CalculateValuation(ctx context.Context, userID, entryID string) (*models.ValuationRecord, error) {
	entry, err := findOwnedEntry(s.db, userID, entryID)
	if err != nil {
		return nil, err
	}
	return s.appendValuation(ctx, s.db, entry)
}

// GetLatestValuation returns the newest record, calculating one first when
// the entry has none.
func (s *valuationService) GetLatestValuation(ctx context.Context, userID, entryID string) (*models.ValuationRecord, error) {
	entry, err := findOwnedEntry(s.db, userID, entryID)
	if err != nil {
		return nil, err
	}

	var record models.ValuationRecord
	err = s.db.Where("entry_id = ?", entry.ID).
		Order("calculated_at DESC, id DESC").
		First(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.appendValuation(ctx, s.db, entry)
}

// GetValuationHistory lists an entry's valuations, newest first.
func (s *valuationService) GetValuationHistory(userID, entryID string, page pagination.PageRequest) (*pagination.PageResponse[models.ValuationRecord], error) {
	page.Defaults()
	entry, err := findOwnedEntry(s.db, userID, entryID)
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&models.ValuationRecord{}).Where("entry_id = ?", entry.ID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var records []models.ValuationRecord
	if err := query.Order("calculated_at DESC, id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(records, page.Page, page.PageSize, total)
	return &resp, nil
}

// RevalueAll appends a valuation to every item that has a price and an
// acquisition date, across all users. A failing entry is logged and skipped.
func (s *valuationService) RevalueAll(ctx context.Context) (*RevaluationSummary, error) {
	log := logger.Named("revaluation")
	summary := &RevaluationSummary{}
	var batch []models.Entry

	res := s.db.WithContext(ctx).
		Where("kind = ? AND original_price IS NOT NULL AND acquisition_date IS NOT NULL", models.EntryKindItem).
		FindInBatches(&batch, revaluationBatchSize, func(_ *gorm.DB, _ int) error {
			for i := range batch {
				summary.Evaluated++
				if _, err := s.appendValuation(ctx, s.db.WithContext(ctx), &batch[i]); err != nil {
					summary.Failed++
					log.Errorw("failed to revalue entry", "error", err, "entry_id", batch[i].ID)
					continue
				}
				summary.Appended++
			}
			return ctx.Err()
		})
	if res.Error != nil {
		return summary, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	log.Infow("revaluation finished",
		"evaluated", summary.Evaluated,
		"appended", summary.Appended,
		"failed", summary.Failed,
	)
	return summary, nil
}
