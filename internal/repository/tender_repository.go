package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ormasrl/tenderdesk/internal/model"
)

type TenderRepository struct {
	db *gorm.DB
}

func NewTenderRepository(db *gorm.DB) *TenderRepository {
	return &TenderRepository{db: db}
}

func (r *TenderRepository) GetTenderWithLots(ctx context.Context, id uuid.UUID) (*model.Tender, error) {
	var tender model.Tender
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			manual_close,
			manual_close_reason,
			version,
			created_at
		FROM tenders
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&tender).Error
	if err != nil {
		return nil, err
	}
	if tender.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var lots []model.Lot
	err = r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			tender_id,
			name,
			status,
			rejection_reason,
			exam_start_date,
			integration_open,
			contract_signed_at,
			version,
			created_at
		FROM lots
		WHERE tender_id = ?
		ORDER BY created_at ASC
	`, id).Scan(&lots).Error
	if err != nil {
		return nil, err
	}
	tender.Lots = lots
	return &tender, nil
}

func (r *TenderRepository) GetLot(ctx context.Context, id uuid.UUID) (*model.Lot, error) {
	var lot model.Lot
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			tender_id,
			name,
			status,
			rejection_reason,
			exam_start_date,
			integration_open,
			contract_signed_at,
			version,
			created_at
		FROM lots
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&lot).Error
	if err != nil {
		return nil, err
	}
	if lot.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &lot, nil
}

// UpdateLotStatus persists a lot transition with an optimistic version check.
func (r *TenderRepository) UpdateLotStatus(ctx context.Context, lot model.Lot, expectedVersion int64) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE lots
		SET
			status = ?,
			rejection_reason = ?,
			integration_open = ?,
			contract_signed_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?
	`, lot.Status, lot.RejectionReason, lot.IntegrationOpen, lot.ContractSignedAt, lot.ID, expectedVersion)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, "lots", lot.ID)
	}
	return nil
}

func (r *TenderRepository) SetExamStartDate(ctx context.Context, lotID uuid.UUID, date time.Time, expectedVersion int64) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE lots
		SET exam_start_date = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, date, lotID, expectedVersion)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, "lots", lotID)
	}
	return nil
}

func (r *TenderRepository) SetManualClose(ctx context.Context, tenderID uuid.UUID, reason string, expectedVersion int64) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE tenders
		SET manual_close = TRUE, manual_close_reason = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, reason, tenderID, expectedVersion)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, "tenders", tenderID)
	}
	return nil
}

// ListLotsAwaitingExamination returns submitted lots whose exam start date is
// set, i.e. lots the sweep should move to UNDER_EXAMINATION.
func (r *TenderRepository) ListLotsAwaitingExamination(ctx context.Context) ([]model.Lot, error) {
	var lots []model.Lot
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			tender_id,
			name,
			status,
			rejection_reason,
			exam_start_date,
			integration_open,
			contract_signed_at,
			version,
			created_at
		FROM lots
		WHERE status = ? AND exam_start_date IS NOT NULL
		ORDER BY created_at ASC
	`, model.LotStatusSubmitted).Scan(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *TenderRepository) missingOrStale(ctx context.Context, table string, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM "+table+" WHERE id = ?", id,
	).Scan(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return ErrVersionConflict
}
