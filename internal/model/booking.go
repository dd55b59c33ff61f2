package model

import (
	"time"

	"github.com/google/uuid"
)

// VehicleBooking reserves a vehicle for a user over a time interval.
// EndAt nil means the booking is open-ended until handed back.
type VehicleBooking struct {
	ID        uuid.UUID
	VehicleID uuid.UUID
	UserID    uuid.UUID
	StartAt   time.Time
	EndAt     *time.Time
	Version   int64
	CreatedAt time.Time
}

type VehicleStatus string

const (
	VehicleStatusAvailable VehicleStatus = "AVAILABLE"
	VehicleStatusInUse     VehicleStatus = "IN_USE"
	VehicleStatusReserved  VehicleStatus = "RESERVED"
)
