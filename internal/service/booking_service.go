package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ormasrl/tenderdesk/internal/booking"
	"github.com/ormasrl/tenderdesk/internal/clock"
	"github.com/ormasrl/tenderdesk/internal/model"
)

// BookingStore is the persistence surface the booking service needs. The
// serialized calls run check-then-write under a per-vehicle lock.
type BookingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.VehicleBooking, error)
	ListForVehicle(ctx context.Context, vehicleID uuid.UUID, since time.Time) ([]model.VehicleBooking, error)
	CreateSerialized(ctx context.Context, candidate model.VehicleBooking, since time.Time, check func(existing []model.VehicleBooking) error) (*model.VehicleBooking, error)
	SetEndSerialized(ctx context.Context, b model.VehicleBooking, end time.Time, since time.Time, check func(existing []model.VehicleBooking) error) error
}

type BookingService struct {
	repo         BookingStore
	clk          clock.Clock
	lookbackDays int
}

func NewBookingService(repo BookingStore, clk clock.Clock, lookbackDays int) *BookingService {
	return &BookingService{repo: repo, clk: clk, lookbackDays: lookbackDays}
}

type CreateBookingInput struct {
	VehicleID uuid.UUID
	StartAt   time.Time
	EndAt     *time.Time
	Principal model.Principal
}

// CreateBooking checks the candidate interval against every live booking for
// the vehicle and inserts it. Check and insert run serialized per vehicle in
// the repository, so two concurrent requests cannot both pass the check. The
// conflict read is floored at the candidate's own start: any overlapping
// booking necessarily ends after it, so nothing relevant is cut off.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*model.VehicleBooking, error) {
	if !input.Principal.CanMutate() {
		return nil, ErrPermissionDenied
	}
	if input.VehicleID == uuid.Nil {
		return nil, fmt.Errorf("%w: vehicle_id is required", ErrInvalidInput)
	}
	if input.StartAt.IsZero() {
		return nil, fmt.Errorf("%w: start is required", ErrInvalidInput)
	}
	if input.EndAt != nil && !input.EndAt.After(input.StartAt) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidInput)
	}

	candidate := model.VehicleBooking{
		VehicleID: input.VehicleID,
		UserID:    input.Principal.UserID,
		StartAt:   input.StartAt,
		EndAt:     input.EndAt,
	}
	interval := booking.NewInterval(input.StartAt, input.EndAt)

	saved, err := s.repo.CreateSerialized(ctx, candidate, input.StartAt, func(existing []model.VehicleBooking) error {
		if conflict := booking.FindConflict(interval, existing); conflict != nil {
			return &BookingConflictError{Existing: *conflict}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// CloseBooking hands the vehicle back by supplying the end instant. The new
// bound is checked against the vehicle's other bookings under the same
// serialization as creation, so a widened window cannot land on top of a
// later booking.
func (s *BookingService) CloseBooking(ctx context.Context, id uuid.UUID, end time.Time, principal model.Principal) error {
	if !principal.CanMutate() {
		return ErrPermissionDenied
	}
	if end.IsZero() {
		return fmt.Errorf("%w: end is required", ErrInvalidInput)
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !end.After(b.StartAt) {
		return fmt.Errorf("%w: end must be after start", ErrInvalidInput)
	}

	interval := booking.NewInterval(b.StartAt, &end)
	err = s.repo.SetEndSerialized(ctx, *b, end, b.StartAt, func(existing []model.VehicleBooking) error {
		if conflict := booking.FindConflict(interval, existing); conflict != nil {
			return &BookingConflictError{Existing: *conflict}
		}
		return nil
	})
	if err != nil {
		return mapRepoError(err)
	}
	return nil
}

// VehicleStatus derives the display status of a vehicle from its bookings
// at the current instant.
func (s *BookingService) VehicleStatus(ctx context.Context, vehicleID uuid.UUID) (model.VehicleStatus, error) {
	bookings, err := s.repo.ListForVehicle(ctx, vehicleID, s.horizon())
	if err != nil {
		return "", err
	}
	return booking.StatusAt(bookings, s.clk.Now()), nil
}

func (s *BookingService) horizon() time.Time {
	return s.clk.Now().AddDate(0, 0, -s.lookbackDays)
}
