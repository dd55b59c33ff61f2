package model

import (
	"time"

	"github.com/google/uuid"
)

type RegistryKind string

const (
	RegistryKindQuote    RegistryKind = "QUOTE"
	RegistryKindContract RegistryKind = "CONTRACT"
)

type RegistryStatus string

const (
	RegistryStatusDraft           RegistryStatus = "DRAFT"
	RegistryStatusInReview        RegistryStatus = "IN_REVIEW"
	RegistryStatusSent            RegistryStatus = "SENT"
	RegistryStatusActive          RegistryStatus = "ACTIVE"
	RegistryStatusExpiring        RegistryStatus = "EXPIRING"
	RegistryStatusRenewalProposed RegistryStatus = "RENEWAL_PROPOSED"
	RegistryStatusExpired         RegistryStatus = "EXPIRED"
	RegistryStatusRenewed         RegistryStatus = "RENEWED"
	RegistryStatusCancelled       RegistryStatus = "CANCELLED"
	RegistryStatusSuspended       RegistryStatus = "SUSPENDED"
)

// Terminal reports whether a record in this status can never transition again.
func (s RegistryStatus) Terminal() bool {
	return s == RegistryStatusRenewed || s == RegistryStatusCancelled
}

// RegistryRecord is a quote or contract issued to a client. Superseded
// records transition to RENEWED and gain a child record holding the new
// validity window; ParentID forms a forest.
type RegistryRecord struct {
	ID                    uuid.UUID
	Kind                  RegistryKind
	Subject               string
	Counterparty          string
	Status                RegistryStatus
	DocumentDate          time.Time
	StartDate             *time.Time
	EndDate               *time.Time
	NoticePeriodDays      *int
	AlertLeadDays         int
	AutoRenew             bool
	AutoRenewDurationDays *int
	ParentID              *uuid.UUID
	Version               int64
	CreatedAt             time.Time
}
