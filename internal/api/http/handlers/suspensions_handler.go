package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/shiftmarket/suspension-service/internal/api/dto"
	"github.com/shiftmarket/suspension-service/internal/auth"
	"github.com/shiftmarket/suspension-service/internal/domain"
	"github.com/shiftmarket/suspension-service/internal/repository"
	"github.com/shiftmarket/suspension-service/internal/service"
	apperrors "github.com/shiftmarket/suspension-service/pkg/util/errorutil"
)

// SuspensionsHandler exposes the ledger's admin action surface.
type SuspensionsHandler struct {
	suspensions *service.SuspensionService
	appeals     *service.AppealService
	analytics   *service.AnalyticsService
	export      *service.ExportService
}

// NewSuspensionsHandler constructs handler.
func NewSuspensionsHandler(suspensions *service.SuspensionService, appeals *service.AppealService, analytics *service.AnalyticsService, export *service.ExportService) *SuspensionsHandler {
	return &SuspensionsHandler{suspensions: suspensions, appeals: appeals, analytics: analytics, export: export}
}

// Issue POST /suspensions.
func (h *SuspensionsHandler) Issue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.SubjectType != domain.SubjectTypeAdmin {
		return apperrors.NewUnauthorized("admin required")
	}
	var req dto.IssueSuspensionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	suspension, err := h.suspensions.Issue(c.Context(), service.IssueInput{
		WorkerID:          req.WorkerID,
		Type:              req.Type,
		Category:          req.Category,
		Details:           req.Details,
		DurationHours:     req.DurationHours,
		RelatedShiftID:    req.RelatedShiftID,
		IssuerID:          principal.SubjectID,
		AffectsBooking:    req.AffectsBooking,
		AffectsVisibility: req.AffectsVisibility,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewSuspensionResponse(suspension)})
}

// Suggest GET /suspensions/suggestion?worker_id=&category=.
func (h *SuspensionsHandler) Suggest(c *fiber.Ctx) error {
	workerID := c.Query("worker_id")
	category := domain.ViolationCategory(c.Query("category"))
	if workerID == "" {
		return apperrors.NewValidationError("worker_id required", nil)
	}
	suggestion, err := h.suspensions.SuggestDuration(c.Context(), workerID, category)
	if err != nil {
		return err
	}
	resp := dto.SuggestionResponse{
		Ordinal:       suggestion.Ordinal,
		Indefinite:    suggestion.Indefinite,
		SuggestedType: suggestion.Type,
	}
	if !suggestion.Indefinite {
		hours := suggestion.Hours
		resp.DurationHours = &hours
	}
	return c.JSON(fiber.Map{"data": resp})
}

// List GET /suspensions.
func (h *SuspensionsHandler) List(c *fiber.Ctx) error {
	filter := parseSuspensionFilter(c)
	suspensions, err := h.suspensions.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.SuspensionResponse, 0, len(suspensions))
	for i := range suspensions {
		items = append(items, dto.NewSuspensionResponse(&suspensions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /suspensions/:id. Includes every appeal ever filed against
// the record.
func (h *SuspensionsHandler) Get(c *fiber.Ctx) error {
	suspension, err := h.suspensions.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	appeals, err := h.appeals.ListBySuspension(c.Context(), suspension.ID)
	if err != nil {
		return err
	}
	appealItems := make([]dto.AppealResponse, 0, len(appeals))
	for i := range appeals {
		appealItems = append(appealItems, dto.NewAppealResponse(&appeals[i], time.Now(), h.appeals.SLAHours(), h.appeals.EvidenceURL))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"suspension": dto.NewSuspensionResponse(suspension),
		"appeals":    appealItems,
	}})
}

// Lift POST /suspensions/:id/lift.
func (h *SuspensionsHandler) Lift(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.SubjectType != domain.SubjectTypeAdmin {
		return apperrors.NewUnauthorized("admin required")
	}
	var req dto.LiftSuspensionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	suspension, err := h.suspensions.Lift(c.Context(), c.Params("id"), principal.SubjectID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSuspensionResponse(suspension)})
}

// Remaining GET /suspensions/:id/remaining.
func (h *SuspensionsHandler) Remaining(c *fiber.Ctx) error {
	remaining, err := h.suspensions.RemainingDuration(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RemainingResponse{
		SuspensionID:   c.Params("id"),
		RemainingHours: remaining.Hours(),
	}})
}

// History GET /suspensions/:id/history.
func (h *SuspensionsHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	entries, err := h.suspensions.History(c.Context(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyItems(entries)})
}

// WorkerHistory GET /workers/:id/history.
func (h *SuspensionsHandler) WorkerHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	entries, err := h.suspensions.WorkerHistory(c.Context(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyItems(entries)})
}

// MySuspensions GET /me/suspensions. Workers see their own ledger.
func (h *SuspensionsHandler) MySuspensions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.SubjectType != domain.SubjectTypeWorker {
		return apperrors.NewUnauthorized("worker required")
	}
	workerID := principal.SubjectID
	suspensions, err := h.suspensions.List(c.Context(), repository.SuspensionFilter{
		WorkerID: &workerID,
		Limit:    c.QueryInt("limit", 20),
		Offset:   c.QueryInt("offset", 0),
	})
	if err != nil {
		return err
	}
	items := make([]dto.SuspensionResponse, 0, len(suspensions))
	for i := range suspensions {
		items = append(items, dto.NewSuspensionResponse(&suspensions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func historyItems(entries []domain.SuspensionHistory) []dto.HistoryEntryResponse {
	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.HistoryEntryResponse{
			ID:            entry.ID,
			SuspensionID:  entry.SuspensionID,
			WorkerID:      entry.WorkerID,
			ChangedByType: entry.ChangedByType,
			ChangedByID:   entry.ChangedByID,
			ChangeType:    entry.ChangeType,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return items
}

// ResetStrikes POST /workers/:id/strikes/reset.
func (h *SuspensionsHandler) ResetStrikes(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.SubjectType != domain.SubjectTypeAdmin {
		return apperrors.NewUnauthorized("admin required")
	}
	var req dto.ResetStrikesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.suspensions.ResetStrikes(c.Context(), c.Params("id"), principal.SubjectID, req.Notes); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetWorker GET /workers/:id.
func (h *SuspensionsHandler) GetWorker(c *fiber.Ctx) error {
	worker, err := h.suspensions.GetWorker(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.WorkerResponse{
		ID:              worker.ID,
		IsSuspended:     worker.IsSuspended,
		StrikeCount:     worker.StrikeCount,
		SuspensionCount: worker.SuspensionCount,
		UpdatedAt:       worker.UpdatedAt,
	}})
}

// SuspendedFlag GET /workers/:id/suspended.
func (h *SuspensionsHandler) SuspendedFlag(c *fiber.Ctx) error {
	suspended, err := h.suspensions.IsWorkerSuspended(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SuspendedFlagResponse{
		WorkerID:    c.Params("id"),
		IsSuspended: suspended,
	}})
}

// Analytics GET /suspensions/analytics.
func (h *SuspensionsHandler) Analytics(c *fiber.Ctx) error {
	overview, err := h.analytics.Overview(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": overview})
}

// ExportCSV GET /suspensions/export.csv.
func (h *SuspensionsHandler) ExportCSV(c *fiber.Ctx) error {
	data, err := h.export.ExportSuspensions(c.Context(), parseSuspensionFilter(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="suspensions.csv"`)
	return c.Send(data)
}

func parseSuspensionFilter(c *fiber.Ctx) repository.SuspensionFilter {
	filter := repository.SuspensionFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if workerID := c.Query("worker_id"); workerID != "" {
		filter.WorkerID = &workerID
	}
	for _, raw := range splitQuery(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.SuspensionStatus(strings.ToUpper(raw)))
	}
	for _, raw := range splitQuery(c.Query("type")) {
		filter.Types = append(filter.Types, domain.SuspensionType(strings.ToUpper(raw)))
	}
	for _, raw := range splitQuery(c.Query("category")) {
		filter.Categories = append(filter.Categories, domain.ViolationCategory(strings.ToUpper(raw)))
	}
	if from := parseTimeQuery(c.Query("issued_from")); from != nil {
		filter.IssuedFrom = from
	}
	if to := parseTimeQuery(c.Query("issued_to")); to != nil {
		filter.IssuedTo = to
	}
	return filter
}

func splitQuery(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseTimeQuery(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		ts := time.Unix(unix, 0)
		return &ts
	}
	return nil
}
