package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ormasrl/tenderdesk/internal/model"
)

const bookingColumns = `
	id,
	vehicle_id,
	user_id,
	start_at,
	end_at,
	version,
	created_at`

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.VehicleBooking, error) {
	var b model.VehicleBooking
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+bookingColumns+`
		FROM vehicle_bookings
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

// ListForVehicle returns bookings for a vehicle that are open-ended or end
// after the given instant.
func (r *BookingRepository) ListForVehicle(ctx context.Context, vehicleID uuid.UUID, since time.Time) ([]model.VehicleBooking, error) {
	var bookings []model.VehicleBooking
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+bookingColumns+`
		FROM vehicle_bookings
		WHERE vehicle_id = ?
			AND (end_at IS NULL OR end_at > ?)
		ORDER BY start_at ASC
	`, vehicleID, since).Scan(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// CreateSerialized runs check-then-insert under an advisory lock keyed by the
// vehicle, closing the race between two users booking the same vehicle. The
// check callback sees the bookings read inside the transaction; any error it
// returns aborts the insert.
func (r *BookingRepository) CreateSerialized(
	ctx context.Context,
	candidate model.VehicleBooking,
	since time.Time,
	check func(existing []model.VehicleBooking) error,
) (*model.VehicleBooking, error) {
	var saved model.VehicleBooking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"SELECT pg_advisory_xact_lock(hashtext(?))", candidate.VehicleID.String(),
		).Error; err != nil {
			return err
		}

		var existing []model.VehicleBooking
		if err := tx.Raw(`
			SELECT `+bookingColumns+`
			FROM vehicle_bookings
			WHERE vehicle_id = ?
				AND (end_at IS NULL OR end_at > ?)
			ORDER BY start_at ASC
		`, candidate.VehicleID, since).Scan(&existing).Error; err != nil {
			return err
		}

		if err := check(existing); err != nil {
			return err
		}

		return tx.Raw(`
			INSERT INTO vehicle_bookings (vehicle_id, user_id, start_at, end_at)
			VALUES (?, ?, ?, ?)
			RETURNING `+bookingColumns,
			candidate.VehicleID,
			candidate.UserID,
			candidate.StartAt,
			candidate.EndAt,
		).Scan(&saved).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// SetEndSerialized rewrites a booking's end instant under the same
// per-vehicle advisory lock as CreateSerialized. The check callback sees the
// vehicle's other bookings read inside the transaction, so a widened window
// is validated against concurrent writes before it lands.
func (r *BookingRepository) SetEndSerialized(
	ctx context.Context,
	b model.VehicleBooking,
	end time.Time,
	since time.Time,
	check func(existing []model.VehicleBooking) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"SELECT pg_advisory_xact_lock(hashtext(?))", b.VehicleID.String(),
		).Error; err != nil {
			return err
		}

		var existing []model.VehicleBooking
		if err := tx.Raw(`
			SELECT `+bookingColumns+`
			FROM vehicle_bookings
			WHERE vehicle_id = ?
				AND id <> ?
				AND (end_at IS NULL OR end_at > ?)
			ORDER BY start_at ASC
		`, b.VehicleID, b.ID, since).Scan(&existing).Error; err != nil {
			return err
		}

		if err := check(existing); err != nil {
			return err
		}

		result := tx.Exec(`
			UPDATE vehicle_bookings
			SET end_at = ?, version = version + 1
			WHERE id = ? AND version = ?
		`, end, b.ID, b.Version)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Raw(
				"SELECT COUNT(*) FROM vehicle_bookings WHERE id = ?", b.ID,
			).Scan(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrVersionConflict
		}
		return nil
	})
}
