package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ormasrl/tenderdesk/internal/clock"
	"github.com/ormasrl/tenderdesk/internal/lifecycle"
	"github.com/ormasrl/tenderdesk/internal/model"
	"github.com/ormasrl/tenderdesk/internal/notify"
	"github.com/ormasrl/tenderdesk/internal/repository"
)

type ExportGenerator interface {
	Generate(rows []model.RegistryRecord, deadlines []lifecycle.Deadlines, generatedAt time.Time) ([]byte, error)
}

type SheetGenerator interface {
	Generate(rec model.RegistryRecord, deadlines lifecycle.Deadlines, generatedAt time.Time) ([]byte, error)
}

type RegistryService struct {
	repo     *repository.RegistryRepository
	notifier notify.Dispatcher
	export   ExportGenerator
	sheet    SheetGenerator
	clk      clock.Clock
}

func NewRegistryService(
	repo *repository.RegistryRepository,
	notifier notify.Dispatcher,
	export ExportGenerator,
	sheet SheetGenerator,
	clk clock.Clock,
) *RegistryService {
	return &RegistryService{
		repo:     repo,
		notifier: notifier,
		export:   export,
		sheet:    sheet,
		clk:      clk,
	}
}

type CreateRecordInput struct {
	Kind                  model.RegistryKind
	Subject               string
	Counterparty          string
	DocumentDate          time.Time
	StartDate             *time.Time
	EndDate               *time.Time
	NoticePeriodDays      *int
	AlertLeadDays         int
	AutoRenew             bool
	AutoRenewDurationDays *int
	Principal             model.Principal
}

func (s *RegistryService) Create(ctx context.Context, input CreateRecordInput) (*model.RegistryRecord, error) {
	if !input.Principal.CanMutate() {
		return nil, ErrPermissionDenied
	}
	if input.Kind != model.RegistryKindQuote && input.Kind != model.RegistryKindContract {
		return nil, fmt.Errorf("%w: invalid kind", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Subject) == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if input.DocumentDate.IsZero() {
		return nil, fmt.Errorf("%w: document date is required", ErrInvalidInput)
	}

	rec := model.RegistryRecord{
		Kind:                  input.Kind,
		Subject:               strings.TrimSpace(input.Subject),
		Counterparty:          strings.TrimSpace(input.Counterparty),
		Status:                model.RegistryStatusDraft,
		DocumentDate:          input.DocumentDate,
		StartDate:             input.StartDate,
		EndDate:               input.EndDate,
		NoticePeriodDays:      input.NoticePeriodDays,
		AlertLeadDays:         input.AlertLeadDays,
		AutoRenew:             input.AutoRenew,
		AutoRenewDurationDays: input.AutoRenewDurationDays,
	}
	if err := lifecycle.ValidateInvariants(rec); err != nil {
		return nil, fmt.Errorf("%w: auto-renew requires a duration", ErrInvalidInput)
	}

	saved, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// RecordView is a record together with its on-demand deadline derivation.
type RecordView struct {
	Record    model.RegistryRecord
	Deadlines lifecycle.Deadlines
}

func (s *RegistryService) Get(ctx context.Context, id uuid.UUID) (*RecordView, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &RecordView{
		Record:    *rec,
		Deadlines: lifecycle.ComputeDeadlines(*rec, s.clk.Now()),
	}, nil
}

func (s *RegistryService) ChangeState(ctx context.Context, id uuid.UUID, target model.RegistryStatus, principal model.Principal) (*model.RegistryRecord, error) {
	if !principal.CanMutate() {
		return nil, ErrPermissionDenied
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	updated, err := lifecycle.ChangeState(*rec, target)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, updated, rec.Version); err != nil {
		return nil, mapRepoError(err)
	}
	updated.Version = rec.Version + 1

	if target == model.RegistryStatusRenewalProposed {
		_ = s.notifier.Dispatch(ctx, []model.NotificationIntent{{
			Kind:     model.NotificationRenewalProposed,
			EntityID: updated.ID,
			Payload:  map[string]string{"status": string(updated.Status)},
		}})
	}
	return &updated, nil
}

// Delete removes a record. Permitted only while the record is still DRAFT and
// has no children.
func (s *RegistryService) Delete(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	if !principal.CanMutate() {
		return ErrPermissionDenied
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if rec.Status != model.RegistryStatusDraft {
		return fmt.Errorf("%w: only draft records can be deleted", ErrInvalidInput)
	}
	hasChildren, err := s.repo.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return fmt.Errorf("%w: record has renewal children", ErrInvalidInput)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// Export produces the registry workbook over all live records.
func (s *RegistryService) Export(ctx context.Context) (*ExportResult, error) {
	records, err := s.repo.ListNonTerminal(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	deadlines := make([]lifecycle.Deadlines, len(records))
	for i, rec := range records {
		deadlines[i] = lifecycle.ComputeDeadlines(rec, now)
	}

	content, err := s.export.Generate(records, deadlines, now)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("registry-%s.xlsx", now.Format("20060102")),
		Content:  content,
	}, nil
}

// Sheet produces the printable PDF sheet for one record.
func (s *RegistryService) Sheet(ctx context.Context, id uuid.UUID) (*ExportResult, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := s.clk.Now()
	content, err := s.sheet.Generate(*rec, lifecycle.ComputeDeadlines(*rec, now), now)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("record-%s.pdf", rec.ID),
		Content:  content,
	}, nil
}
