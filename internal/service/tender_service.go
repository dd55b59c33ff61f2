package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ormasrl/tenderdesk/internal/model"
	"github.com/ormasrl/tenderdesk/internal/repository"
	"github.com/ormasrl/tenderdesk/internal/workflow"
)

type TenderService struct {
	repo *repository.TenderRepository
}

func NewTenderService(repo *repository.TenderRepository) *TenderService {
	return &TenderService{repo: repo}
}

// TenderView is a tender with its derived status. The status is recomputed
// from the lots on every read, never trusted from storage.
type TenderView struct {
	Tender model.Tender
	Status model.TenderStatus
}

func (s *TenderService) GetTender(ctx context.Context, id uuid.UUID) (*TenderView, error) {
	tender, err := s.repo.GetTenderWithLots(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	statuses := make([]model.LotStatus, len(tender.Lots))
	for i, lot := range tender.Lots {
		tender.Lots[i] = workflow.Normalize(lot)
		statuses[i] = tender.Lots[i].Status
	}

	return &TenderView{
		Tender: *tender,
		Status: workflow.DeriveTenderStatus(statuses, tender.ManualClose),
	}, nil
}

type LotTransitionInput struct {
	LotID            uuid.UUID
	Target           model.LotStatus
	RejectionReason  string
	ContractSignedAt *time.Time
	Principal        model.Principal
}

func (s *TenderService) ApplyLotTransition(ctx context.Context, input LotTransitionInput) (*model.Lot, error) {
	if !input.Principal.CanMutate() {
		return nil, ErrPermissionDenied
	}

	lot, err := s.repo.GetLot(ctx, input.LotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	updated, err := workflow.Apply(*lot, input.Target, workflow.Guard{
		RejectionReason: input.RejectionReason,
	})
	if err != nil {
		return nil, err
	}

	// Contract signature date on WON is advisory, never a guard.
	if input.Target == model.LotStatusWon && input.ContractSignedAt != nil {
		updated.ContractSignedAt = input.ContractSignedAt
	}

	if err := s.repo.UpdateLotStatus(ctx, updated, lot.Version); err != nil {
		return nil, mapRepoError(err)
	}
	updated.Version = lot.Version + 1
	return &updated, nil
}

func (s *TenderService) SetExamStartDate(ctx context.Context, lotID uuid.UUID, date time.Time, principal model.Principal) (*model.Lot, error) {
	if !principal.CanMutate() {
		return nil, ErrPermissionDenied
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: exam start date is required", ErrInvalidInput)
	}

	lot, err := s.repo.GetLot(ctx, lotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lot.Status != model.LotStatusSubmitted {
		return nil, fmt.Errorf("%w: %s", workflow.ErrInvalidTransition, lot.Status)
	}

	if err := s.repo.SetExamStartDate(ctx, lotID, date, lot.Version); err != nil {
		return nil, mapRepoError(err)
	}

	lot.ExamStartDate = &date
	lot.Version++
	normalized := workflow.Normalize(*lot)
	return &normalized, nil
}

func (s *TenderService) CloseTender(ctx context.Context, tenderID uuid.UUID, reason string, principal model.Principal) error {
	if !principal.CanMutate() {
		return ErrPermissionDenied
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("%w: close reason is required", ErrInvalidInput)
	}

	tender, err := s.repo.GetTenderWithLots(ctx, tenderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.repo.SetManualClose(ctx, tenderID, reason, tender.Version); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// AllowedLotTransitions returns the legal next states for a lot, after the
// exam-date derivation.
func (s *TenderService) AllowedLotTransitions(ctx context.Context, lotID uuid.UUID) ([]model.LotStatus, error) {
	lot, err := s.repo.GetLot(ctx, lotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return workflow.AllowedNext(workflow.Normalize(*lot).Status), nil
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrConcurrencyConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	default:
		return err
	}
}
