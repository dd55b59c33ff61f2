package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ormasrl/tenderdesk/internal/model"
)

var (
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrInvariantViolation = errors.New("invariant violation")
)

// Single source of truth for the registry-record lifecycle. RENEWED and
// CANCELLED have no outgoing edges.
var transitions = map[model.RegistryStatus][]model.RegistryStatus{
	model.RegistryStatusDraft: {
		model.RegistryStatusInReview, model.RegistryStatusCancelled,
	},
	model.RegistryStatusInReview: {
		model.RegistryStatusDraft, model.RegistryStatusSent, model.RegistryStatusCancelled,
	},
	model.RegistryStatusSent: {
		model.RegistryStatusInReview, model.RegistryStatusActive, model.RegistryStatusCancelled,
	},
	model.RegistryStatusActive: {
		model.RegistryStatusExpiring, model.RegistryStatusSuspended, model.RegistryStatusCancelled,
	},
	model.RegistryStatusExpiring: {
		model.RegistryStatusRenewalProposed, model.RegistryStatusActive,
		model.RegistryStatusExpired, model.RegistryStatusCancelled,
	},
	model.RegistryStatusRenewalProposed: {
		model.RegistryStatusExpiring, model.RegistryStatusRenewed,
		model.RegistryStatusExpired, model.RegistryStatusCancelled,
	},
	model.RegistryStatusExpired: {
		model.RegistryStatusRenewed,
	},
	model.RegistryStatusSuspended: {
		model.RegistryStatusActive, model.RegistryStatusCancelled,
	},
}

// AllowedNext returns the legal targets from the given status.
func AllowedNext(s model.RegistryStatus) []model.RegistryStatus {
	next := transitions[s]
	out := make([]model.RegistryStatus, len(next))
	copy(out, next)
	return out
}

func canTransition(from, to model.RegistryStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ChangeState validates and performs a manual transition. The input is not
// mutated.
func ChangeState(rec model.RegistryRecord, target model.RegistryStatus) (model.RegistryRecord, error) {
	if !canTransition(rec.Status, target) {
		return rec, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rec.Status, target)
	}
	rec.Status = target
	return rec, nil
}

// ValidateInvariants checks structural invariants that should never fail
// past input validation.
func ValidateInvariants(rec model.RegistryRecord) error {
	if rec.AutoRenew && rec.AutoRenewDurationDays == nil {
		return fmt.Errorf("%w: auto-renew requires a duration", ErrInvariantViolation)
	}
	return nil
}

// Outcome is the pure result of one automatic evaluation of a record:
// the updated record, an optional renewal child, and the notification
// intents to dispatch if the change is persisted.
type Outcome struct {
	Record  model.RegistryRecord
	Child   *model.RegistryRecord
	Intents []model.NotificationIntent
	Changed bool
}

// Evaluate computes the automatic transitions due for a record at the given
// instant. Guards depend only on the current status and the record's dates,
// so re-evaluating an unchanged record yields no further change.
func Evaluate(rec model.RegistryRecord, now time.Time) (Outcome, error) {
	out := Outcome{Record: rec}
	if rec.Status.Terminal() {
		return out, nil
	}
	if err := ValidateInvariants(rec); err != nil {
		return out, err
	}

	if out.Record.Status == model.RegistryStatusActive {
		if alert := effectiveAlertDate(out.Record); alert != nil && !now.Before(*alert) {
			out.Record.Status = model.RegistryStatusExpiring
			out.Changed = true
			out.Intents = append(out.Intents, intent(model.NotificationExpiringSoon, out.Record))
		}
	}

	if out.Record.Status == model.RegistryStatusExpiring {
		if end := out.Record.EndDate; end != nil && now.After(*end) {
			if out.Record.AutoRenew {
				return renew(out, now), nil
			}
			out.Record.Status = model.RegistryStatusExpired
			out.Changed = true
			out.Intents = append(out.Intents, intent(model.NotificationExpiredNoRenewal, out.Record))
		}
	}

	// Entering EXPIRED or RENEWAL_PROPOSED with auto-renew set triggers the
	// renewal; records parked there are renewed regardless of how they got
	// there, keeping the sweep a pure function of current state.
	switch out.Record.Status {
	case model.RegistryStatusExpired, model.RegistryStatusRenewalProposed:
		if out.Record.AutoRenew {
			return renew(out, now), nil
		}
	}

	return out, nil
}

func renew(out Outcome, now time.Time) Outcome {
	parent := out.Record
	parent.Status = model.RegistryStatusRenewed

	start := now
	if parent.EndDate != nil {
		start = *parent.EndDate
	}
	end := start.AddDate(0, 0, *parent.AutoRenewDurationDays)

	child := parent
	child.ID = uuid.New()
	child.ParentID = &parent.ID
	child.Status = model.RegistryStatusActive
	child.DocumentDate = now
	child.StartDate = &start
	child.EndDate = &end
	child.Version = 0
	child.CreatedAt = time.Time{}

	out.Record = parent
	out.Child = &child
	out.Changed = true
	out.Intents = append(out.Intents, model.NotificationIntent{
		Kind:     model.NotificationRenewed,
		EntityID: parent.ID,
		Payload: map[string]string{
			"status":   string(parent.Status),
			"child_id": child.ID.String(),
		},
	})
	return out
}

func intent(kind model.NotificationKind, rec model.RegistryRecord) model.NotificationIntent {
	payload := map[string]string{"status": string(rec.Status)}
	if rec.EndDate != nil {
		payload["end_date"] = rec.EndDate.Format("2006-01-02")
	}
	return model.NotificationIntent{Kind: kind, EntityID: rec.ID, Payload: payload}
}
