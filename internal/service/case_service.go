package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/case-sla-service/internal/domain"
	"github.com/spec-kit/case-sla-service/internal/events"
	"github.com/spec-kit/case-sla-service/internal/repository"
	apperrors "github.com/spec-kit/case-sla-service/pkg/util"
)

// CaseService coordinates case intake and staff activity. Every mutation it
// performs resets the case's activity clock, which is what the SLA pipeline
// measures against.
type CaseService struct {
	cases         repository.CaseRepository
	notes         repository.CaseNoteRepository
	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
}

// CaseDependencies bundles repositories for the case service.
type CaseDependencies struct {
	CaseRepo         repository.CaseRepository
	NoteRepo         repository.CaseNoteRepository
	NotificationRepo repository.NotificationRepository
	Dispatcher       events.Dispatcher
}

// CaseCreateInput describes case creation payload.
type CaseCreateInput struct {
	Title        string
	Description  string
	Category     string
	Priority     domain.CasePriority
	EmployeeName string
	ContactPhone string
	ClientID     *string
	ClientName   string
	AssigneeID   *string
}

// NewCaseService constructs the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	return &CaseService{
		cases:         deps.CaseRepo,
		notes:         deps.NoteRepo,
		notifications: deps.NotificationRepo,
		dispatcher:    deps.Dispatcher,
	}
}

// CreateCase registers a new support case.
func (s *CaseService) CreateCase(ctx context.Context, actorID string, input CaseCreateInput) (*domain.Case, error) {
	c := &domain.Case{
		ExternalKey:  generateCaseKey(),
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Category:     strings.TrimSpace(input.Category),
		Priority:     input.Priority,
		Status:       domain.CaseStatusOpen,
		EmployeeName: strings.TrimSpace(input.EmployeeName),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		ClientID:     input.ClientID,
		ClientName:   strings.TrimSpace(input.ClientName),
		AssigneeID:   input.AssigneeID,
	}
	if c.Priority == "" {
		c.Priority = domain.CasePriorityMedium
	}

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseCreated,
		CaseID:  c.ID,
		ActorID: actorID,
		Payload: events.CaseCreatedPayload{
			Category: c.Category,
			Priority: c.Priority,
			Title:    c.Title,
			ClientID: c.ClientID,
		},
	})
	return c, nil
}

// ListCases returns cases matching staff filters.
func (s *CaseService) ListCases(ctx context.Context, filter repository.CaseFilter) ([]domain.Case, error) {
	return s.cases.ListWithFilter(ctx, filter)
}

// GetCase fetches one case with its notes.
func (s *CaseService) GetCase(ctx context.Context, caseID string) (*domain.Case, []domain.CaseNote, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}
	notes, err := s.notes.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	return c, notes, nil
}

// ListNotifications returns the audit trail for a case.
func (s *CaseService) ListNotifications(ctx context.Context, caseID string, limit, offset int) ([]domain.NotificationRecord, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	return s.notifications.ListByCase(ctx, caseID, limit, offset)
}

// AddNote appends a staff note and resets the activity clock.
func (s *CaseService) AddNote(ctx context.Context, actorID, caseID, body string) (*domain.CaseNote, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("note body required", nil)
	}
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.IsOpen() {
		return nil, apperrors.NewConflict("cannot add notes to a closed case", nil)
	}

	note := &domain.CaseNote{
		CaseID:   c.ID,
		AuthorID: actorID,
		Body:     body,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	if err := s.cases.TouchActivity(ctx, c.ID, time.Now()); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseNoteAdded,
		CaseID:  c.ID,
		ActorID: actorID,
		Payload: events.CaseNoteAddedPayload{
			NoteID:      note.ID,
			BodyPreview: stringPreview(note.Body, 120),
		},
	})
	return note, nil
}

// UpdateStatus transitions a case between lifecycle states. Closing stops SLA
// tracking; reopening a closed case clears both notification markers so a new
// SLA cycle may notify again.
func (s *CaseService) UpdateStatus(ctx context.Context, actorID, caseID string, newStatus domain.CaseStatus, comment string) (*domain.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status == newStatus {
		return c, nil
	}
	if !isValidTransition(c.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": c.Status,
			"to":   newStatus,
		})
	}

	now := time.Now()
	oldStatus := c.Status
	reopened := oldStatus == domain.CaseStatusClosed

	c.Status = newStatus
	c.LastActivityAt = now
	if newStatus == domain.CaseStatusClosed {
		c.ClosedAt = &now
	} else {
		c.ClosedAt = nil
	}

	if err := s.cases.Update(ctx, c); err != nil {
		return nil, err
	}
	if reopened {
		if err := s.cases.ClearSLAMarkers(ctx, c.ID); err != nil {
			return nil, err
		}
		c.FollowUpSentAt = nil
		c.EscalationSentAt = nil
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCaseStatusChanged,
		CaseID:  c.ID,
		ActorID: actorID,
		Payload: events.CaseStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return c, nil
}

var allowedTransitions = map[domain.CaseStatus][]domain.CaseStatus{
	domain.CaseStatusOpen:       {domain.CaseStatusInProgress, domain.CaseStatusWaiting, domain.CaseStatusClosed},
	domain.CaseStatusInProgress: {domain.CaseStatusOpen, domain.CaseStatusWaiting, domain.CaseStatusClosed},
	domain.CaseStatusWaiting:    {domain.CaseStatusOpen, domain.CaseStatusInProgress, domain.CaseStatusClosed},
	domain.CaseStatusClosed:     {domain.CaseStatusOpen},
}

func isValidTransition(current, next domain.CaseStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func generateCaseKey() string {
	return "CSE-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *CaseService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
