package handlers

import (
	"net/http"
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

// AppealsHandler exposes the appeal workflow.
type AppealsHandler struct {
	appeals *service.AppealService
	export  *service.ExportService
}

// NewAppealsHandler constructs handler.
func NewAppealsHandler(appeals *service.AppealService, export *service.ExportService) *AppealsHandler {
	return &AppealsHandler{appeals: appeals, export: export}
}

// Submit POST /suspensions/:id/appeals. Workers appeal their own
// suspensions; admins may file on a worker's behalf.
func (h *AppealsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SubmitAppealRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	workerID := principal.SubjectID
	if principal.SubjectType == domain.SubjectTypeAdmin {
		workerID = c.Query("worker_id")
		if workerID == "" {
			return apperrors.NewValidationError("worker_id required when filing on behalf of a worker", nil)
		}
	}

	uploads := make([]service.EvidenceUpload, 0, len(req.Evidence))
	for _, item := range req.Evidence {
		uploads = append(uploads, service.EvidenceUpload{FileName: item.FileName, Data: item.Data})
	}

	appeal, err := h.appeals.Submit(c.Context(), c.Params("id"), workerID, req.Reason, uploads)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.appealResponse(appeal)})
}

// List GET /appeals.
func (h *AppealsHandler) List(c *fiber.Ctx) error {
	filter := service.AppealListFilter{
		OverdueOnly: c.QueryBool("overdue", false),
		Limit:       c.QueryInt("limit", 20),
		Offset:      c.QueryInt("offset", 0),
	}
	if suspensionID := c.Query("suspension_id"); suspensionID != "" {
		filter.SuspensionID = &suspensionID
	}
	if workerID := c.Query("worker_id"); workerID != "" {
		filter.WorkerID = &workerID
	}
	for _, raw := range splitQuery(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.AppealStatus(strings.ToUpper(raw)))
	}

	appeals, err := h.appeals.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AppealResponse, 0, len(appeals))
	for i := range appeals {
		items = append(items, h.appealResponse(&appeals[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /appeals/:id.
func (h *AppealsHandler) Get(c *fiber.Ctx) error {
	appeal, err := h.appeals.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.appealResponse(appeal)})
}

// StartReview POST /appeals/:id/review.
func (h *AppealsHandler) StartReview(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.SubjectType != domain.SubjectTypeAdmin {
		return apperrors.NewUnauthorized("admin required")
	}
	appeal, err := h.appeals.StartReview(c.Context(), c.Params("id"), principal.SubjectID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.appealResponse(appeal)})
}

// Decide POST /appeals/:id/decision.
func (h *AppealsHandler) Decide(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.SubjectType != domain.SubjectTypeAdmin {
		return apperrors.NewUnauthorized("admin required")
	}
	var req dto.DecideAppealRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	appeal, err := h.appeals.Decide(c.Context(), c.Params("id"), principal.SubjectID, req.Decision, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.appealResponse(appeal)})
}

// ExportCSV GET /appeals/export.csv.
func (h *AppealsHandler) ExportCSV(c *fiber.Ctx) error {
	filter := repository.AppealFilter{
		Limit:  c.QueryInt("limit", 1000),
		Offset: c.QueryInt("offset", 0),
	}
	if suspensionID := c.Query("suspension_id"); suspensionID != "" {
		filter.SuspensionID = &suspensionID
	}
	for _, raw := range splitQuery(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.AppealStatus(strings.ToUpper(raw)))
	}
	data, err := h.export.ExportAppeals(c.Context(), filter)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="appeals.csv"`)
	return c.Send(data)
}

func (h *AppealsHandler) appealResponse(appeal *domain.Appeal) dto.AppealResponse {
	return dto.NewAppealResponse(appeal, time.Now(), h.appeals.SLAHours(), h.appeals.EvidenceURL)
}
