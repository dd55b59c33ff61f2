package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ormasrl/tenderdesk/internal/clock"
	"github.com/ormasrl/tenderdesk/internal/http/middleware"
	"github.com/ormasrl/tenderdesk/internal/lifecycle"
	"github.com/ormasrl/tenderdesk/internal/model"
	"github.com/ormasrl/tenderdesk/internal/service"
	"github.com/ormasrl/tenderdesk/internal/sweep"
	"github.com/ormasrl/tenderdesk/internal/workflow"
)

// SweepRunner is the slice of the sweep the handler needs to trigger a tick.
type SweepRunner interface {
	RunOnce(ctx context.Context, now time.Time) (sweep.Summary, error)
}

type Handler struct {
	tenders  *service.TenderService
	registry *service.RegistryService
	bookings *service.BookingService
	runner   SweepRunner
	clk      clock.Clock
	log      zerolog.Logger
}

func NewHandler(
	tenders *service.TenderService,
	registry *service.RegistryService,
	bookings *service.BookingService,
	runner SweepRunner,
	clk clock.Clock,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		tenders:  tenders,
		registry: registry,
		bookings: bookings,
		runner:   runner,
		clk:      clk,
		log:      log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/tenders/:id", h.getTender)
	protected.POST("/tenders/:id/close", h.closeTender)
	protected.POST("/lots/:id/transition", h.lotTransition)
	protected.POST("/lots/:id/exam-start", h.lotExamStart)
	protected.GET("/lots/:id/next-states", h.lotNextStates)

	protected.POST("/registry", h.createRecord)
	protected.GET("/registry/:id", h.getRecord)
	protected.POST("/registry/:id/transition", h.recordTransition)
	protected.DELETE("/registry/:id", h.deleteRecord)
	protected.GET("/registry/export", h.exportRegistry)
	protected.GET("/registry/:id/sheet", h.recordSheet)

	protected.POST("/vehicles/:id/bookings", h.createBooking)
	protected.POST("/bookings/:id/close", h.closeBooking)
	protected.GET("/vehicles/:id/status", h.vehicleStatus)

	protected.POST("/internal/sweep/run", h.runSweep)
}

func (h *Handler) getTender(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.tenders.GetTender(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tender": view.Tender,
		"status": view.Status,
	})
}

type closeTenderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) closeTender(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req closeTenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tenders.CloseTender(c.Request.Context(), id, req.Reason, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": model.TenderStatusManuallyClosed})
}

type lotTransitionRequest struct {
	Target           string  `json:"target" binding:"required"`
	RejectionReason  string  `json:"rejection_reason"`
	ContractSignedAt *string `json:"contract_signed_at"`
}

func (h *Handler) lotTransition(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req lotTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var signedAt *time.Time
	if req.ContractSignedAt != nil {
		parsed, err := parseDate(*req.ContractSignedAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_signed_at"})
			return
		}
		signedAt = &parsed
	}

	lot, err := h.tenders.ApplyLotTransition(c.Request.Context(), service.LotTransitionInput{
		LotID:            id,
		Target:           model.LotStatus(strings.ToUpper(strings.TrimSpace(req.Target))),
		RejectionReason:  req.RejectionReason,
		ContractSignedAt: signedAt,
		Principal:        principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

type examStartRequest struct {
	Date string `json:"date" binding:"required"`
}

func (h *Handler) lotExamStart(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req examStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	lot, err := h.tenders.SetExamStartDate(c.Request.Context(), id, date, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

func (h *Handler) lotNextStates(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	states, err := h.tenders.AllowedLotTransitions(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_states": states})
}

type createRecordRequest struct {
	Kind                  string  `json:"kind" binding:"required"`
	Subject               string  `json:"subject" binding:"required"`
	Counterparty          string  `json:"counterparty"`
	DocumentDate          string  `json:"document_date" binding:"required"`
	StartDate             *string `json:"start_date"`
	EndDate               *string `json:"end_date"`
	NoticePeriodDays      *int    `json:"notice_period_days"`
	AlertLeadDays         int     `json:"alert_lead_days"`
	AutoRenew             bool    `json:"auto_renew"`
	AutoRenewDurationDays *int    `json:"auto_renew_duration_days"`
}

func (h *Handler) createRecord(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	documentDate, err := parseDate(req.DocumentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document_date"})
		return
	}
	startDate, err := parseDatePtr(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	endDate, err := parseDatePtr(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return
	}

	rec, err := h.registry.Create(c.Request.Context(), service.CreateRecordInput{
		Kind:                  model.RegistryKind(strings.ToUpper(strings.TrimSpace(req.Kind))),
		Subject:               req.Subject,
		Counterparty:          req.Counterparty,
		DocumentDate:          documentDate,
		StartDate:             startDate,
		EndDate:               endDate,
		NoticePeriodDays:      req.NoticePeriodDays,
		AlertLeadDays:         req.AlertLeadDays,
		AutoRenew:             req.AutoRenew,
		AutoRenewDurationDays: req.AutoRenewDurationDays,
		Principal:             principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) getRecord(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.registry.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"record":    view.Record,
		"deadlines": view.Deadlines,
	})
}

type recordTransitionRequest struct {
	Target string `json:"target" binding:"required"`
}

func (h *Handler) recordTransition(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req recordTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.registry.ChangeState(
		c.Request.Context(),
		id,
		model.RegistryStatus(strings.ToUpper(strings.TrimSpace(req.Target))),
		principal,
	)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) deleteRecord(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.registry.Delete(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) exportRegistry(c *gin.Context) {
	result, err := h.registry.Export(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) recordSheet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.registry.Sheet(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

type createBookingRequest struct {
	Start string  `json:"start" binding:"required"`
	End   *string `json:"end"`
}

func (h *Handler) createBooking(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	vehicleID, ok := parseID(c)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := parseDate(req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
		return
	}
	end, err := parseDatePtr(req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
		return
	}

	saved, err := h.bookings.CreateBooking(c.Request.Context(), service.CreateBookingInput{
		VehicleID: vehicleID,
		StartAt:   start,
		EndAt:     end,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

type closeBookingRequest struct {
	End string `json:"end" binding:"required"`
}

func (h *Handler) closeBooking(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req closeBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	end, err := parseDate(req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
		return
	}

	if err := h.bookings.CloseBooking(c.Request.Context(), id, end, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) vehicleStatus(c *gin.Context) {
	vehicleID, ok := parseID(c)
	if !ok {
		return
	}

	status, err := h.bookings.VehicleStatus(c.Request.Context(), vehicleID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// runSweep lets the scheduler host trigger a tick over HTTP. Safe to call at
// arbitrary, possibly overlapping, times.
func (h *Handler) runSweep(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	if !principal.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}

	summary, err := h.runner.RunOnce(c.Request.Context(), h.clk.Now())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var conflict *service.BookingConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":    "booking conflicts with an existing booking",
			"existing": conflict.Existing,
		})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, lifecycle.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrMissingGuardData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

func parseDatePtr(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
