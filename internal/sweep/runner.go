package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ormasrl/tenderdesk/internal/lifecycle"
	"github.com/ormasrl/tenderdesk/internal/model"
	"github.com/ormasrl/tenderdesk/internal/notify"
	"github.com/ormasrl/tenderdesk/internal/repository"
	"github.com/ormasrl/tenderdesk/internal/workflow"
)

// RegistryStore is the slice of persistence the sweep needs for registry
// records. Writes are version-guarded; a conflict means a concurrent manual
// edit won and the record is re-evaluated next tick.
type RegistryStore interface {
	ListNonTerminal(ctx context.Context) ([]model.RegistryRecord, error)
	UpdateStatus(ctx context.Context, rec model.RegistryRecord, expectedVersion int64) error
	CreateRenewal(ctx context.Context, parent model.RegistryRecord, child model.RegistryRecord, expectedVersion int64) error
}

// LotStore is the slice of persistence the sweep needs to write back the
// exam-date derivation.
type LotStore interface {
	ListLotsAwaitingExamination(ctx context.Context) ([]model.Lot, error)
	UpdateLotStatus(ctx context.Context, lot model.Lot, expectedVersion int64) error
}

type Runner struct {
	registry RegistryStore
	lots     LotStore
	notifier notify.Dispatcher
	log      zerolog.Logger
}

func NewRunner(registry RegistryStore, lots LotStore, notifier notify.Dispatcher, log zerolog.Logger) *Runner {
	return &Runner{
		registry: registry,
		lots:     lots,
		notifier: notifier,
		log:      log,
	}
}

type Summary struct {
	Evaluated    int
	Transitioned int
	Renewed      int
	LotsExamined int
	Skipped      int
	Failed       int
}

// RunOnce executes one sweep tick. Every transition is guarded by the
// record's current state, so calling it again on an unchanged set is a
// no-op; overlapping invocations are resolved by the version checks. One
// record's failure never aborts the rest.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) (Summary, error) {
	var summary Summary

	records, err := r.registry.ListNonTerminal(ctx)
	if err != nil {
		return summary, err
	}

	for _, rec := range records {
		summary.Evaluated++

		outcome, err := lifecycle.Evaluate(rec, now)
		if err != nil {
			// Invariant violations are logged and skipped, never fatal.
			summary.Failed++
			r.log.Error().Err(err).Str("record_id", rec.ID.String()).Msg("sweep: record skipped")
			continue
		}
		if !outcome.Changed {
			continue
		}

		if outcome.Child != nil {
			err = r.registry.CreateRenewal(ctx, outcome.Record, *outcome.Child, rec.Version)
		} else {
			err = r.registry.UpdateStatus(ctx, outcome.Record, rec.Version)
		}
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			summary.Skipped++
			r.log.Debug().Str("record_id", rec.ID.String()).Msg("sweep: lost version race, deferred")
			continue
		case err != nil:
			summary.Failed++
			r.log.Error().Err(err).Str("record_id", rec.ID.String()).Msg("sweep: persist failed")
			continue
		}

		summary.Transitioned++
		if outcome.Child != nil {
			summary.Renewed++
		}
		if err := r.notifier.Dispatch(ctx, outcome.Intents); err != nil {
			r.log.Error().Err(err).Str("record_id", rec.ID.String()).Msg("sweep: dispatch failed")
		}
	}

	if err := r.sweepLots(ctx, &summary); err != nil {
		r.log.Error().Err(err).Msg("sweep: lot pass failed")
	}

	r.log.Info().
		Int("evaluated", summary.Evaluated).
		Int("transitioned", summary.Transitioned).
		Int("renewed", summary.Renewed).
		Int("lots_examined", summary.LotsExamined).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("sweep finished")
	return summary, nil
}

// sweepLots writes back the automatic SUBMITTED -> UNDER_EXAMINATION
// derivation so persisted rows converge with what read paths already report.
func (r *Runner) sweepLots(ctx context.Context, summary *Summary) error {
	lots, err := r.lots.ListLotsAwaitingExamination(ctx)
	if err != nil {
		return err
	}

	for _, lot := range lots {
		normalized := workflow.Normalize(lot)
		if normalized.Status == lot.Status {
			continue
		}

		err := r.lots.UpdateLotStatus(ctx, normalized, lot.Version)
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			summary.Skipped++
			continue
		case err != nil:
			summary.Failed++
			r.log.Error().Err(err).Str("lot_id", lot.ID.String()).Msg("sweep: lot persist failed")
			continue
		}
		summary.LotsExamined++
	}
	return nil
}
