package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ormasrl/tenderdesk/internal/model"
)

const registryColumns = `
	id,
	kind,
	subject,
	counterparty,
	status,
	document_date,
	start_date,
	end_date,
	notice_period_days,
	alert_lead_days,
	auto_renew,
	auto_renew_duration_days,
	parent_id,
	version,
	created_at`

type RegistryRepository struct {
	db *gorm.DB
}

func NewRegistryRepository(db *gorm.DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

func (r *RegistryRepository) Create(ctx context.Context, rec model.RegistryRecord) (*model.RegistryRecord, error) {
	var saved model.RegistryRecord
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO registry_records (
			kind,
			subject,
			counterparty,
			status,
			document_date,
			start_date,
			end_date,
			notice_period_days,
			alert_lead_days,
			auto_renew,
			auto_renew_duration_days,
			parent_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+registryColumns,
		rec.Kind,
		rec.Subject,
		rec.Counterparty,
		rec.Status,
		rec.DocumentDate,
		rec.StartDate,
		rec.EndDate,
		rec.NoticePeriodDays,
		rec.AlertLeadDays,
		rec.AutoRenew,
		rec.AutoRenewDurationDays,
		rec.ParentID,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *RegistryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RegistryRecord, error) {
	var rec model.RegistryRecord
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+registryColumns+`
		FROM registry_records
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &rec, nil
}

// ListNonTerminal returns every record the sweep still has to consider.
func (r *RegistryRepository) ListNonTerminal(ctx context.Context) ([]model.RegistryRecord, error) {
	var records []model.RegistryRecord
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+registryColumns+`
		FROM registry_records
		WHERE status NOT IN (?, ?)
		ORDER BY created_at ASC
	`, model.RegistryStatusRenewed, model.RegistryStatusCancelled).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateStatus persists a state change with an optimistic version check.
func (r *RegistryRepository) UpdateStatus(ctx context.Context, rec model.RegistryRecord, expectedVersion int64) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE registry_records
		SET status = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, rec.Status, rec.ID, expectedVersion)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, rec.ID)
	}
	return nil
}

// CreateRenewal marks the parent RENEWED and inserts its child in one
// transaction, both-or-neither. The parent update is version-guarded so a
// concurrent manual edit wins and the renewal is retried next tick.
func (r *RegistryRepository) CreateRenewal(ctx context.Context, parent model.RegistryRecord, child model.RegistryRecord, expectedVersion int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE registry_records
			SET status = ?, version = version + 1
			WHERE id = ? AND version = ?
		`, model.RegistryStatusRenewed, parent.ID, expectedVersion)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}

		return tx.Exec(`
			INSERT INTO registry_records (
				id,
				kind,
				subject,
				counterparty,
				status,
				document_date,
				start_date,
				end_date,
				notice_period_days,
				alert_lead_days,
				auto_renew,
				auto_renew_duration_days,
				parent_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			child.ID,
			child.Kind,
			child.Subject,
			child.Counterparty,
			child.Status,
			child.DocumentDate,
			child.StartDate,
			child.EndDate,
			child.NoticePeriodDays,
			child.AlertLeadDays,
			child.AutoRenew,
			child.AutoRenewDurationDays,
			child.ParentID,
		).Error
	})
}

func (r *RegistryRepository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM registry_records WHERE parent_id = ?
	`, id).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a record. The DRAFT-and-childless guard is repeated in SQL
// so a stale read in the service cannot delete a record that just gained a
// child or left draft.
func (r *RegistryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM registry_records
		WHERE id = ?
			AND status = ?
			AND NOT EXISTS (
				SELECT 1 FROM registry_records child WHERE child.parent_id = registry_records.id
			)
	`, id, model.RegistryStatusDraft)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

func (r *RegistryRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM registry_records WHERE id = ?", id,
	).Scan(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return ErrVersionConflict
}
