package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ormasrl/tenderdesk/internal/clock"
	"github.com/ormasrl/tenderdesk/internal/model"
)

type fakeBookingStore struct {
	bookings []model.VehicleBooking

	createSince time.Time
	setEndSince time.Time
	setEnd      *time.Time
	setEndID    uuid.UUID
}

func (f *fakeBookingStore) GetByID(_ context.Context, id uuid.UUID) (*model.VehicleBooking, error) {
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			b := f.bookings[i]
			return &b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBookingStore) ListForVehicle(_ context.Context, vehicleID uuid.UUID, since time.Time) ([]model.VehicleBooking, error) {
	return f.visible(vehicleID, uuid.Nil, since), nil
}

func (f *fakeBookingStore) CreateSerialized(_ context.Context, candidate model.VehicleBooking, since time.Time, check func([]model.VehicleBooking) error) (*model.VehicleBooking, error) {
	f.createSince = since
	if err := check(f.visible(candidate.VehicleID, uuid.Nil, since)); err != nil {
		return nil, err
	}
	candidate.ID = uuid.New()
	f.bookings = append(f.bookings, candidate)
	return &candidate, nil
}

func (f *fakeBookingStore) SetEndSerialized(_ context.Context, b model.VehicleBooking, end time.Time, since time.Time, check func([]model.VehicleBooking) error) error {
	f.setEndSince = since
	if err := check(f.visible(b.VehicleID, b.ID, since)); err != nil {
		return err
	}
	f.setEndID = b.ID
	f.setEnd = &end
	return nil
}

// visible mirrors the repository's read: open-ended rows always, bounded
// rows only when they end after since, excluding the given booking.
func (f *fakeBookingStore) visible(vehicleID, exclude uuid.UUID, since time.Time) []model.VehicleBooking {
	var out []model.VehicleBooking
	for _, b := range f.bookings {
		if b.VehicleID != vehicleID || b.ID == exclude {
			continue
		}
		if b.EndAt != nil && !b.EndAt.After(since) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func bookingBetween(vehicleID uuid.UUID, start, end string) model.VehicleBooking {
	e := day(end)
	return model.VehicleBooking{
		ID:        uuid.New(),
		VehicleID: vehicleID,
		StartAt:   day(start),
		EndAt:     &e,
	}
}

func operator() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: "OPERATOR"}
}

func TestCloseBooking_RejectsEndOverlappingLaterBooking(t *testing.T) {
	vehicleID := uuid.New()
	first := bookingBetween(vehicleID, "2025-03-01", "2025-03-05")
	later := bookingBetween(vehicleID, "2025-03-10", "2025-03-15")
	store := &fakeBookingStore{bookings: []model.VehicleBooking{first, later}}
	svc := NewBookingService(store, clock.Fixed(day("2025-03-20")), 90)

	err := svc.CloseBooking(context.Background(), first.ID, day("2025-03-20"), operator())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntervalConflict)

	var conflict *BookingConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, later.ID, conflict.Existing.ID)
	assert.Nil(t, store.setEnd, "conflicting end must not be written")
}

func TestCloseBooking_RewritesEndWhenClear(t *testing.T) {
	vehicleID := uuid.New()
	first := bookingBetween(vehicleID, "2025-03-01", "2025-03-05")
	later := bookingBetween(vehicleID, "2025-03-10", "2025-03-15")
	store := &fakeBookingStore{bookings: []model.VehicleBooking{first, later}}
	svc := NewBookingService(store, clock.Fixed(day("2025-03-08")), 90)

	err := svc.CloseBooking(context.Background(), first.ID, day("2025-03-08"), operator())
	require.NoError(t, err)
	assert.Equal(t, first.ID, store.setEndID)
	require.NotNil(t, store.setEnd)
	assert.Equal(t, day("2025-03-08"), *store.setEnd)
	assert.Equal(t, first.StartAt, store.setEndSince,
		"conflict read is floored at the booking's own start")
}

func TestCloseBooking_EndBeforeStartRejected(t *testing.T) {
	vehicleID := uuid.New()
	b := bookingBetween(vehicleID, "2025-03-10", "2025-03-15")
	store := &fakeBookingStore{bookings: []model.VehicleBooking{b}}
	svc := NewBookingService(store, clock.Fixed(day("2025-03-20")), 90)

	err := svc.CloseBooking(context.Background(), b.ID, day("2025-03-10"), operator())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateBooking_ConflictWithBookingOlderThanLookback(t *testing.T) {
	vehicleID := uuid.New()
	old := bookingBetween(vehicleID, "2024-01-01", "2024-06-30")
	store := &fakeBookingStore{bookings: []model.VehicleBooking{old}}
	// now is far past the old booking, so a horizon-based read would miss it.
	svc := NewBookingService(store, clock.Fixed(day("2025-06-01")), 90)

	start := day("2024-03-01")
	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		VehicleID: vehicleID,
		StartAt:   start,
		Principal: operator(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntervalConflict)
	assert.Equal(t, start, store.createSince,
		"conflict read is floored at the candidate's start, not the lookback horizon")
}

func TestCreateBooking_OpenEndedThenOverlapRejected(t *testing.T) {
	vehicleID := uuid.New()
	store := &fakeBookingStore{}
	svc := NewBookingService(store, clock.Fixed(day("2025-03-01")), 90)

	saved, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		VehicleID: vehicleID,
		StartAt:   day("2025-03-10"),
		Principal: operator(),
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	_, err = svc.CreateBooking(context.Background(), CreateBookingInput{
		VehicleID: vehicleID,
		StartAt:   day("2025-04-01"),
		Principal: operator(),
	})
	assert.ErrorIs(t, err, ErrIntervalConflict, "open-ended booking blocks everything after its start")
}

func TestCreateBooking_ViewerDenied(t *testing.T) {
	svc := NewBookingService(&fakeBookingStore{}, clock.Fixed(day("2025-03-01")), 90)

	_, err := svc.CreateBooking(context.Background(), CreateBookingInput{
		VehicleID: uuid.New(),
		StartAt:   day("2025-03-10"),
		Principal: model.Principal{UserID: uuid.New(), Role: "VIEWER"},
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}
