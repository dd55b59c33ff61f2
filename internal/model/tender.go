package model

import (
	"time"

	"github.com/google/uuid"
)

type TenderStatus string

const (
	TenderStatusDraft          TenderStatus = "DRAFT"
	TenderStatusInProgress     TenderStatus = "IN_PROGRESS"
	TenderStatusConcluded      TenderStatus = "CONCLUDED"
	TenderStatusManuallyClosed TenderStatus = "MANUALLY_CLOSED"
)

// Tender status is never stored as authoritative; it is derived from the
// lots and the manual-close flag on every read.
type Tender struct {
	ID                uuid.UUID
	Name              string
	ManualClose       bool
	ManualCloseReason *string
	Lots              []Lot
	Version           int64
	CreatedAt         time.Time
}
