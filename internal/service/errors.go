package service

import (
	"errors"
	"fmt"

	"github.com/ormasrl/tenderdesk/internal/model"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConcurrencyConflict = errors.New("concurrent modification, please retry")
	ErrIntervalConflict    = errors.New("booking interval conflict")
)

// BookingConflictError reports an interval conflict together with the
// existing booking, so the caller can show it to the user.
type BookingConflictError struct {
	Existing model.VehicleBooking
}

func (e *BookingConflictError) Error() string {
	return fmt.Sprintf("booking conflicts with existing booking %s", e.Existing.ID)
}

func (e *BookingConflictError) Unwrap() error {
	return ErrIntervalConflict
}
