package model

import (
	"time"

	"github.com/google/uuid"
)

type LotStatus string

const (
	LotStatusDraft                LotStatus = "DRAFT"
	LotStatusInTechnicalReview    LotStatus = "IN_TECHNICAL_REVIEW"
	LotStatusInEconomicReview     LotStatus = "IN_ECONOMIC_REVIEW"
	LotStatusApproved             LotStatus = "APPROVED"
	LotStatusRejected             LotStatus = "REJECTED"
	LotStatusInProcessing         LotStatus = "IN_PROCESSING"
	LotStatusSubmitted            LotStatus = "SUBMITTED"
	LotStatusUnderExamination     LotStatus = "UNDER_EXAMINATION"
	LotStatusIntegrationRequested LotStatus = "INTEGRATION_REQUESTED"
	LotStatusWon                  LotStatus = "WON"
	LotStatusLost                 LotStatus = "LOST"
	LotStatusDiscarded            LotStatus = "DISCARDED"
)

// Terminal reports whether a lot in this status can never transition again.
func (s LotStatus) Terminal() bool {
	switch s {
	case LotStatusWon, LotStatusLost, LotStatusDiscarded, LotStatusRejected:
		return true
	}
	return false
}

type Lot struct {
	ID               uuid.UUID
	TenderID         uuid.UUID
	Name             string
	Status           LotStatus
	RejectionReason  *string // set iff Status == REJECTED
	ExamStartDate    *time.Time
	IntegrationOpen  bool
	ContractSignedAt *time.Time
	Version          int64
	CreatedAt        time.Time
}
