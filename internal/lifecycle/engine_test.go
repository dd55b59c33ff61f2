package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormasrl/tenderdesk/internal/model"
)

var allStatuses = []model.RegistryStatus{
	model.RegistryStatusDraft,
	model.RegistryStatusInReview,
	model.RegistryStatusSent,
	model.RegistryStatusActive,
	model.RegistryStatusExpiring,
	model.RegistryStatusRenewalProposed,
	model.RegistryStatusExpired,
	model.RegistryStatusRenewed,
	model.RegistryStatusCancelled,
	model.RegistryStatusSuspended,
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptrDate(s string) *time.Time {
	t := day(s)
	return &t
}

func ptrInt(v int) *int { return &v }

func isEdge(from, to model.RegistryStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func TestChangeState_MatchesTransitionTable(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			rec := model.RegistryRecord{ID: uuid.New(), Status: from}
			updated, err := ChangeState(rec, to)
			if isEdge(from, to) {
				require.NoErrorf(t, err, "%s -> %s should be allowed", from, to)
				assert.Equal(t, to, updated.Status)
			} else {
				assert.ErrorIsf(t, err, ErrInvalidTransition, "%s -> %s should be rejected", from, to)
			}
		}
	}
}

func TestChangeState_TerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, from := range allStatuses {
		if !from.Terminal() {
			continue
		}
		assert.Emptyf(t, transitions[from], "%s is terminal", from)
		for _, to := range allStatuses {
			_, err := ChangeState(model.RegistryRecord{Status: from}, to)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
	}
}

func TestComputeDeadlines(t *testing.T) {
	rec := model.RegistryRecord{
		EndDate:          ptrDate("2025-06-30"),
		NoticePeriodDays: ptrInt(30),
		AlertLeadDays:    60,
	}
	d := ComputeDeadlines(rec, day("2025-03-01"))

	require.NotNil(t, d.NoticeDeadline)
	assert.Equal(t, day("2025-05-31"), *d.NoticeDeadline)
	require.NotNil(t, d.AlertDate)
	assert.Equal(t, day("2025-04-01"), *d.AlertDate)
	require.NotNil(t, d.DaysToExpiry)
	assert.Equal(t, 121, *d.DaysToExpiry)
}

func TestComputeDeadlines_MissingInputs(t *testing.T) {
	d := ComputeDeadlines(model.RegistryRecord{EndDate: ptrDate("2025-06-30")}, day("2025-07-02"))
	assert.Nil(t, d.NoticeDeadline, "no notice period, no deadline")
	assert.Nil(t, d.AlertDate)
	require.NotNil(t, d.DaysToExpiry)
	assert.Equal(t, -2, *d.DaysToExpiry, "plain day difference, may be negative")

	empty := ComputeDeadlines(model.RegistryRecord{NoticePeriodDays: ptrInt(30)}, day("2025-07-02"))
	assert.Nil(t, empty.NoticeDeadline, "no end date, nothing to derive")
	assert.Nil(t, empty.DaysToExpiry)
}

func TestEvaluate_ActiveToExpiringAtAlertDate(t *testing.T) {
	rec := model.RegistryRecord{
		ID:               uuid.New(),
		Status:           model.RegistryStatusActive,
		EndDate:          ptrDate("2025-06-30"),
		NoticePeriodDays: ptrInt(30),
		AlertLeadDays:    60,
	}

	before, err := Evaluate(rec, day("2025-03-31"))
	require.NoError(t, err)
	assert.False(t, before.Changed, "before the alert date nothing happens")

	at, err := Evaluate(rec, day("2025-04-01"))
	require.NoError(t, err)
	assert.True(t, at.Changed)
	assert.Equal(t, model.RegistryStatusExpiring, at.Record.Status)
	require.Len(t, at.Intents, 1)
	assert.Equal(t, model.NotificationExpiringSoon, at.Intents[0].Kind)
}

func TestEvaluate_ExpiringToExpiredWithoutRenewal(t *testing.T) {
	rec := model.RegistryRecord{
		ID:      uuid.New(),
		Status:  model.RegistryStatusExpiring,
		EndDate: ptrDate("2025-01-31"),
	}

	onExpiry, err := Evaluate(rec, day("2025-01-31"))
	require.NoError(t, err)
	assert.False(t, onExpiry.Changed, "expiry day itself is still within validity")

	after, err := Evaluate(rec, day("2025-02-01"))
	require.NoError(t, err)
	assert.True(t, after.Changed)
	assert.Equal(t, model.RegistryStatusExpired, after.Record.Status)
	assert.Nil(t, after.Child)
	require.Len(t, after.Intents, 1)
	assert.Equal(t, model.NotificationExpiredNoRenewal, after.Intents[0].Kind)
}

func TestEvaluate_AutoRenewal(t *testing.T) {
	rec := model.RegistryRecord{
		ID:                    uuid.New(),
		Kind:                  model.RegistryKindContract,
		Subject:               "maintenance contract",
		Status:                model.RegistryStatusExpiring,
		EndDate:               ptrDate("2025-01-31"),
		AutoRenew:             true,
		AutoRenewDurationDays: ptrInt(365),
	}

	out, err := Evaluate(rec, day("2025-02-01"))
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, model.RegistryStatusRenewed, out.Record.Status)

	require.NotNil(t, out.Child)
	child := *out.Child
	assert.Equal(t, model.RegistryStatusActive, child.Status)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, rec.ID, *child.ParentID)
	assert.Equal(t, day("2025-02-01"), child.DocumentDate)
	require.NotNil(t, child.StartDate)
	assert.Equal(t, day("2025-01-31"), *child.StartDate)
	require.NotNil(t, child.EndDate)
	assert.Equal(t, day("2026-01-31"), *child.EndDate)
	assert.Equal(t, rec.Subject, child.Subject, "descriptive fields are copied")
	assert.True(t, child.AutoRenew)
}

func TestEvaluate_AutoRenewalFromActiveInOneTick(t *testing.T) {
	rec := model.RegistryRecord{
		ID:                    uuid.New(),
		Status:                model.RegistryStatusActive,
		EndDate:               ptrDate("2025-01-31"),
		AutoRenew:             true,
		AutoRenewDurationDays: ptrInt(90),
	}

	out, err := Evaluate(rec, day("2025-02-01"))
	require.NoError(t, err)
	assert.Equal(t, model.RegistryStatusRenewed, out.Record.Status,
		"a record past expiry is walked through EXPIRING to renewal in a single pass")
	require.NotNil(t, out.Child)
}

func TestEvaluate_RenewsParkedExpiredRecord(t *testing.T) {
	rec := model.RegistryRecord{
		ID:                    uuid.New(),
		Status:                model.RegistryStatusExpired,
		EndDate:               ptrDate("2025-01-31"),
		AutoRenew:             true,
		AutoRenewDurationDays: ptrInt(30),
	}

	out, err := Evaluate(rec, day("2025-03-01"))
	require.NoError(t, err)
	assert.Equal(t, model.RegistryStatusRenewed, out.Record.Status)
	require.NotNil(t, out.Child)
	assert.Equal(t, day("2025-03-02"), out.Child.EndDate.UTC(),
		"window still anchors on the old expiry date")
}

func TestEvaluate_RenewsProposedAutoRenewRecord(t *testing.T) {
	rec := model.RegistryRecord{
		ID:                    uuid.New(),
		Status:                model.RegistryStatusRenewalProposed,
		EndDate:               ptrDate("2025-06-30"),
		AutoRenew:             true,
		AutoRenewDurationDays: ptrInt(365),
	}

	out, err := Evaluate(rec, day("2025-06-01"))
	require.NoError(t, err)
	assert.Equal(t, model.RegistryStatusRenewed, out.Record.Status,
		"auto-renew proposal is renewed without waiting for expiry")
	require.NotNil(t, out.Child)
	assert.Equal(t, day("2025-06-30"), *out.Child.StartDate,
		"new window still anchors on the old expiry date")
}

func TestEvaluate_RenewsProposedRecordWithoutEndDate(t *testing.T) {
	rec := model.RegistryRecord{
		ID:                    uuid.New(),
		Status:                model.RegistryStatusRenewalProposed,
		AutoRenew:             true,
		AutoRenewDurationDays: ptrInt(90),
	}
	now := day("2025-06-01")

	out, err := Evaluate(rec, now)
	require.NoError(t, err)
	assert.Equal(t, model.RegistryStatusRenewed, out.Record.Status)
	require.NotNil(t, out.Child)
	assert.Equal(t, now, *out.Child.StartDate, "no old expiry, window starts now")
	assert.Equal(t, day("2025-08-30"), *out.Child.EndDate)
}

func TestEvaluate_PendingProposalBlocksExpiry(t *testing.T) {
	rec := model.RegistryRecord{
		ID:      uuid.New(),
		Status:  model.RegistryStatusRenewalProposed,
		EndDate: ptrDate("2025-01-31"),
	}

	out, err := Evaluate(rec, day("2025-02-15"))
	require.NoError(t, err)
	assert.False(t, out.Changed,
		"a record with a pending proposal and no auto-renew waits for a manual decision")
}

func TestEvaluate_TerminalRecordsUntouched(t *testing.T) {
	for _, status := range []model.RegistryStatus{model.RegistryStatusRenewed, model.RegistryStatusCancelled} {
		rec := model.RegistryRecord{
			ID:        uuid.New(),
			Status:    status,
			EndDate:   ptrDate("2020-01-01"),
			AutoRenew: true,
		}
		out, err := Evaluate(rec, day("2025-01-01"))
		require.NoError(t, err)
		assert.False(t, out.Changed)
	}
}

func TestEvaluate_InvariantViolation(t *testing.T) {
	rec := model.RegistryRecord{
		ID:        uuid.New(),
		Status:    model.RegistryStatusExpired,
		EndDate:   ptrDate("2025-01-31"),
		AutoRenew: true,
		// AutoRenewDurationDays deliberately missing.
	}

	_, err := Evaluate(rec, day("2025-02-01"))
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

// Re-evaluating the outcome of a tick must produce no further change.
func TestEvaluate_Idempotent(t *testing.T) {
	records := []model.RegistryRecord{
		{
			ID:               uuid.New(),
			Status:           model.RegistryStatusActive,
			EndDate:          ptrDate("2025-06-30"),
			NoticePeriodDays: ptrInt(30),
			AlertLeadDays:    60,
		},
		{
			ID:                    uuid.New(),
			Status:                model.RegistryStatusExpiring,
			EndDate:               ptrDate("2025-01-31"),
			AutoRenew:             true,
			AutoRenewDurationDays: ptrInt(365),
		},
		{
			ID:      uuid.New(),
			Status:  model.RegistryStatusExpiring,
			EndDate: ptrDate("2025-03-31"),
		},
	}
	now := day("2025-05-01")

	for _, rec := range records {
		first, err := Evaluate(rec, now)
		require.NoError(t, err)

		second, err := Evaluate(first.Record, now)
		require.NoError(t, err)
		assert.Falsef(t, second.Changed, "record %s transitioned twice", rec.ID)
		if first.Child != nil {
			childAgain, err := Evaluate(*first.Child, now)
			require.NoError(t, err)
			assert.False(t, childAgain.Changed, "fresh renewal child must be stable")
		}
	}
}
