package model

import "github.com/google/uuid"

type NotificationKind string

const (
	NotificationExpiringSoon     NotificationKind = "EXPIRING_SOON"
	NotificationExpiredNoRenewal NotificationKind = "EXPIRED_NO_RENEWAL"
	NotificationRenewalProposed  NotificationKind = "RENEWAL_PROPOSED"
	NotificationRenewed          NotificationKind = "RENEWED"
)

// NotificationIntent is emitted by the engine as data; delivery belongs to
// an external collaborator.
type NotificationIntent struct {
	Kind     NotificationKind
	EntityID uuid.UUID
	Payload  map[string]string
}
