package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ormasrl/tenderdesk/internal/model"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMissingGuardData  = errors.New("missing guard data")
)

// Single source of truth for the lot workflow. Queried by the validator and
// by read paths that offer only legal next states.
var lotTransitions = map[model.LotStatus][]model.LotStatus{
	model.LotStatusDraft:             {model.LotStatusInTechnicalReview},
	model.LotStatusInTechnicalReview: {model.LotStatusInEconomicReview, model.LotStatusRejected},
	model.LotStatusInEconomicReview:  {model.LotStatusApproved, model.LotStatusRejected},
	model.LotStatusApproved:          {model.LotStatusInProcessing},
	model.LotStatusInProcessing:      {model.LotStatusSubmitted},
	model.LotStatusSubmitted:         {model.LotStatusUnderExamination},
	model.LotStatusUnderExamination: {
		model.LotStatusIntegrationRequested,
		model.LotStatusWon,
		model.LotStatusLost,
		model.LotStatusDiscarded,
	},
	model.LotStatusIntegrationRequested: {model.LotStatusUnderExamination},
}

// AllowedNext returns the legal targets from the given status.
func AllowedNext(s model.LotStatus) []model.LotStatus {
	next := lotTransitions[s]
	out := make([]model.LotStatus, len(next))
	copy(out, next)
	return out
}

func canTransition(from, to model.LotStatus) bool {
	for _, s := range lotTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Guard carries the data required by guarded transitions.
type Guard struct {
	RejectionReason string
}

// Normalize applies the automatic SUBMITTED -> UNDER_EXAMINATION derivation:
// a submitted lot whose exam start date is set is logically under
// examination. Read paths must call this before evaluating further
// transitions.
func Normalize(lot model.Lot) model.Lot {
	if lot.Status == model.LotStatusSubmitted && lot.ExamStartDate != nil {
		lot.Status = model.LotStatusUnderExamination
	}
	return lot
}

// Apply validates and performs a lot transition. The input is not mutated.
func Apply(lot model.Lot, target model.LotStatus, guard Guard) (model.Lot, error) {
	lot = Normalize(lot)
	if !canTransition(lot.Status, target) {
		return lot, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, lot.Status, target)
	}

	switch target {
	case model.LotStatusRejected:
		if strings.TrimSpace(guard.RejectionReason) == "" {
			return lot, fmt.Errorf("%w: rejection requires a reason", ErrMissingGuardData)
		}
	case model.LotStatusUnderExamination:
		// Entry from SUBMITTED is the automatic derivation; after Normalize a
		// lot still in SUBMITTED has no exam start date yet.
		if lot.Status == model.LotStatusSubmitted {
			return lot, fmt.Errorf("%w: examination requires an exam start date", ErrMissingGuardData)
		}
	}

	lot.Status = target
	if target == model.LotStatusRejected {
		reason := strings.TrimSpace(guard.RejectionReason)
		lot.RejectionReason = &reason
	} else {
		lot.RejectionReason = nil
	}
	lot.IntegrationOpen = target == model.LotStatusIntegrationRequested
	return lot, nil
}
