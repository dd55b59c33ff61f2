package lifecycle

import (
	"time"

	"github.com/ormasrl/tenderdesk/internal/model"
)

// Deadlines are derived from the record's dates on demand, never stored.
type Deadlines struct {
	NoticeDeadline *time.Time
	AlertDate      *time.Time
	DaysToExpiry   *int
}

// ComputeDeadlines derives the notice deadline (expiry minus notice period),
// the alert date (notice deadline minus alert lead) and the plain calendar-day
// distance to expiry. Fields stay nil when their inputs are missing.
func ComputeDeadlines(rec model.RegistryRecord, now time.Time) Deadlines {
	var d Deadlines
	if rec.EndDate != nil && rec.NoticePeriodDays != nil {
		notice := rec.EndDate.AddDate(0, 0, -*rec.NoticePeriodDays)
		alert := notice.AddDate(0, 0, -rec.AlertLeadDays)
		d.NoticeDeadline = &notice
		d.AlertDate = &alert
	}
	if rec.EndDate != nil {
		days := daysBetween(now, *rec.EndDate)
		d.DaysToExpiry = &days
	}
	return d
}

// effectiveAlertDate is the instant from which an active record counts as
// expiring. When the notice fields are blank it falls back to the expiry
// date itself, so a record past expiry never sits in ACTIVE forever.
func effectiveAlertDate(rec model.RegistryRecord) *time.Time {
	d := ComputeDeadlines(rec, time.Time{})
	if d.AlertDate != nil {
		return d.AlertDate
	}
	return rec.EndDate
}

func daysBetween(from, to time.Time) int {
	return int(dateOnly(to).Sub(dateOnly(from)).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
