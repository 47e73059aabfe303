package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-sla-service/internal/api/dto"
	"github.com/spec-kit/case-sla-service/internal/auth"
	"github.com/spec-kit/case-sla-service/internal/domain"
	"github.com/spec-kit/case-sla-service/internal/repository"
	"github.com/spec-kit/case-sla-service/internal/service"
	apperrors "github.com/spec-kit/case-sla-service/pkg/util"
)

// CasesHandler manages staff case endpoints.
type CasesHandler struct {
	service *service.CaseService
}

// NewCasesHandler constructs handler.
func NewCasesHandler(caseService *service.CaseService) *CasesHandler {
	return &CasesHandler{service: caseService}
}

// CreateCase POST /cases.
func (h *CasesHandler) CreateCase(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Category == "" || req.EmployeeName == "" {
		return apperrors.NewValidationError("title, category, employee_name required", nil)
	}

	input := service.CaseCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     req.Priority,
		EmployeeName: req.EmployeeName,
		ContactPhone: req.ContactPhone,
		ClientID:     req.ClientID,
		ClientName:   req.ClientName,
		AssigneeID:   req.AssigneeID,
	}
	created, err := h.service.CreateCase(c.Context(), principal.Account.ID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": caseSummary(created)})
}

// ListCases GET /cases.
func (h *CasesHandler) ListCases(c *fiber.Ctx) error {
	filter := parseCaseQuery(c)
	cases, err := h.service.ListCases(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.CaseSummary, 0, len(cases))
	for i := range cases {
		items = append(items, caseSummary(&cases[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetCase GET /cases/:id.
func (h *CasesHandler) GetCase(c *fiber.Ctx) error {
	detail, notes, err := h.service.GetCase(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseDetail(detail, notes)})
}

// AddNote POST /cases/:id/notes.
func (h *CasesHandler) AddNote(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	note, err := h.service.AddNote(c.Context(), principal.Account.ID, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

// UpdateStatus PATCH /cases/:id/status.
func (h *CasesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	updated, err := h.service.UpdateStatus(c.Context(), principal.Account.ID, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(updated)})
}

// ListNotifications GET /cases/:id/notifications.
func (h *CasesHandler) ListNotifications(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	records, err := h.service.ListNotifications(c.Context(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NotificationResponse{
			ID:        record.ID,
			Channel:   record.Channel,
			Recipient: record.Recipient,
			Message:   record.Message,
			CreatedAt: record.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseCaseQuery(c *fiber.Ctx) repository.CaseFilter {
	filter := repository.CaseFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.CaseStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.CasePriority(strings.TrimSpace(part)))
		}
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if clientID := c.Query("client_id"); clientID != "" {
		filter.ClientID = &clientID
	}
	if assigneeID := c.Query("assignee_id"); assigneeID != "" {
		filter.AssigneeID = &assigneeID
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset", "0"))
	return filter
}

func caseSummary(c *domain.Case) dto.CaseSummary {
	return dto.CaseSummary{
		ID:               c.ID,
		ExternalKey:      c.ExternalKey,
		Title:            c.Title,
		Category:         c.Category,
		Priority:         c.Priority,
		Status:           c.Status,
		EmployeeName:     c.EmployeeName,
		ClientName:       c.ClientName,
		AssigneeID:       c.AssigneeID,
		CreatedAt:        c.CreatedAt,
		LastActivityAt:   c.LastActivityAt,
		FollowUpSentAt:   c.FollowUpSentAt,
		EscalationSentAt: c.EscalationSentAt,
	}
}

func caseDetail(c *domain.Case, notes []domain.CaseNote) dto.CaseDetailResponse {
	items := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		items = append(items, noteResponse(&notes[i]))
	}
	return dto.CaseDetailResponse{
		CaseSummary:  caseSummary(c),
		Description:  c.Description,
		ContactPhone: c.ContactPhone,
		ClientID:     c.ClientID,
		ClosedAt:     c.ClosedAt,
		Notes:        items,
	}
}

func noteResponse(note *domain.CaseNote) dto.NoteResponse {
	return dto.NoteResponse{
		ID:        note.ID,
		AuthorID:  note.AuthorID,
		Body:      note.Body,
		CreatedAt: note.CreatedAt,
	}
}
