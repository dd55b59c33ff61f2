package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormasrl/tenderdesk/internal/model"
)

var allLotStatuses = []model.LotStatus{
	model.LotStatusDraft,
	model.LotStatusInTechnicalReview,
	model.LotStatusInEconomicReview,
	model.LotStatusApproved,
	model.LotStatusRejected,
	model.LotStatusInProcessing,
	model.LotStatusSubmitted,
	model.LotStatusUnderExamination,
	model.LotStatusIntegrationRequested,
	model.LotStatusWon,
	model.LotStatusLost,
	model.LotStatusDiscarded,
}

func isEdge(from, to model.LotStatus) bool {
	for _, s := range lotTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Apply must succeed exactly on the edges of the transition table, guards
// satisfied. The SUBMITTED -> UNDER_EXAMINATION edge is automatic: without
// an exam start date it fails its guard, and once the date is set the lot is
// normalized past SUBMITTED before the edge check.
func TestApply_MatchesTransitionTable(t *testing.T) {
	for _, from := range allLotStatuses {
		for _, to := range allLotStatuses {
			lot := model.Lot{Status: from}
			guard := Guard{}
			if to == model.LotStatusRejected {
				guard.RejectionReason = "missing documentation"
			}

			updated, err := Apply(lot, to, guard)
			switch {
			case from == model.LotStatusSubmitted && to == model.LotStatusUnderExamination:
				assert.ErrorIs(t, err, ErrMissingGuardData,
					"examination entry requires the exam start date")
			case isEdge(from, to):
				require.NoErrorf(t, err, "%s -> %s should be allowed", from, to)
				assert.Equal(t, to, updated.Status)
			default:
				assert.ErrorIsf(t, err, ErrInvalidTransition, "%s -> %s should be rejected", from, to)
			}
		}
	}
}

// Once the exam date is set the lot is logically under examination, so the
// examination targets become reachable.
func TestApply_AfterExamDateSet(t *testing.T) {
	examDate := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	lot := model.Lot{Status: model.LotStatusSubmitted, ExamStartDate: &examDate}

	updated, err := Apply(lot, model.LotStatusWon, Guard{})
	require.NoError(t, err)
	assert.Equal(t, model.LotStatusWon, updated.Status)

	_, err = Apply(lot, model.LotStatusUnderExamination, Guard{})
	assert.ErrorIs(t, err, ErrInvalidTransition, "already under examination")
}

func TestApply_TerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, from := range allLotStatuses {
		if !from.Terminal() {
			continue
		}
		assert.Emptyf(t, lotTransitions[from], "%s is terminal", from)
	}
}

func TestApply_RejectionRequiresReason(t *testing.T) {
	lot := model.Lot{Status: model.LotStatusInTechnicalReview}

	_, err := Apply(lot, model.LotStatusRejected, Guard{})
	assert.ErrorIs(t, err, ErrMissingGuardData)

	_, err = Apply(lot, model.LotStatusRejected, Guard{RejectionReason: "   "})
	assert.ErrorIs(t, err, ErrMissingGuardData, "blank reason does not count")

	updated, err := Apply(lot, model.LotStatusRejected, Guard{RejectionReason: "price out of range"})
	require.NoError(t, err)
	require.NotNil(t, updated.RejectionReason)
	assert.Equal(t, "price out of range", *updated.RejectionReason)
}

func TestApply_RejectionReasonClearedOnOtherTransitions(t *testing.T) {
	reason := "stale"
	lot := model.Lot{Status: model.LotStatusInEconomicReview, RejectionReason: &reason}

	updated, err := Apply(lot, model.LotStatusApproved, Guard{})
	require.NoError(t, err)
	assert.Nil(t, updated.RejectionReason)
}

func TestApply_ExaminationRequiresExamDate(t *testing.T) {
	lot := model.Lot{Status: model.LotStatusSubmitted}

	_, err := Apply(lot, model.LotStatusUnderExamination, Guard{})
	assert.ErrorIs(t, err, ErrMissingGuardData)
}

func TestApply_IntegrationFlagFollowsStatus(t *testing.T) {
	examDate := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	lot := model.Lot{Status: model.LotStatusUnderExamination, ExamStartDate: &examDate}

	updated, err := Apply(lot, model.LotStatusIntegrationRequested, Guard{})
	require.NoError(t, err)
	assert.True(t, updated.IntegrationOpen)

	back, err := Apply(updated, model.LotStatusUnderExamination, Guard{})
	require.NoError(t, err)
	assert.False(t, back.IntegrationOpen)
}

func TestNormalize(t *testing.T) {
	examDate := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	submitted := model.Lot{Status: model.LotStatusSubmitted}
	assert.Equal(t, model.LotStatusSubmitted, Normalize(submitted).Status,
		"no exam date, no derivation")

	submitted.ExamStartDate = &examDate
	assert.Equal(t, model.LotStatusUnderExamination, Normalize(submitted).Status)

	draft := model.Lot{Status: model.LotStatusDraft, ExamStartDate: &examDate}
	assert.Equal(t, model.LotStatusDraft, Normalize(draft).Status,
		"derivation applies to SUBMITTED only")
}

func TestAllowedNext_ReturnsCopy(t *testing.T) {
	next := AllowedNext(model.LotStatusUnderExamination)
	require.Len(t, next, 4)
	next[0] = model.LotStatusDraft
	assert.NotEqual(t, model.LotStatusDraft, lotTransitions[model.LotStatusUnderExamination][0])
}
