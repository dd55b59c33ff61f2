package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormasrl/tenderdesk/internal/model"
)

func TestBookingConflictError_UnwrapsToIntervalConflict(t *testing.T) {
	existing := model.VehicleBooking{ID: uuid.New()}
	err := fmt.Errorf("create booking: %w", &BookingConflictError{Existing: existing})

	assert.ErrorIs(t, err, ErrIntervalConflict)

	var conflict *BookingConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, existing.ID, conflict.Existing.ID)
}

func TestBookingConflictError_NotMistakenForOtherErrors(t *testing.T) {
	err := &BookingConflictError{}
	assert.False(t, errors.Is(err, ErrConcurrencyConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
}
