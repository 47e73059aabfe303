package sla

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-sla-service/internal/delivery"
	"github.com/spec-kit/case-sla-service/internal/domain"
	"github.com/spec-kit/case-sla-service/internal/repository"
)

type fakeCaseRepo struct {
	mu      sync.Mutex
	cases   map[string]*domain.Case
	listErr error
	markErr error
}

func newFakeCaseRepo(cases ...domain.Case) *fakeCaseRepo {
	repo := &fakeCaseRepo{cases: make(map[string]*domain.Case)}
	for i := range cases {
		c := cases[i]
		repo.cases[c.ID] = &c
	}
	return repo
}

func (r *fakeCaseRepo) Create(_ context.Context, c *domain.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases[c.ID] = c
	return nil
}

func (r *fakeCaseRepo) Update(_ context.Context, c *domain.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cases[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *c
	r.cases[c.ID] = &clone
	return nil
}

func (r *fakeCaseRepo) GetByID(_ context.Context, id string) (*domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCaseRepo) ListOpen(_ context.Context) ([]domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var result []domain.Case
	for _, c := range r.cases {
		if c.IsOpen() {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *fakeCaseRepo) ListWithFilter(ctx context.Context, _ repository.CaseFilter) ([]domain.Case, error) {
	return r.ListOpen(ctx)
}

func (r *fakeCaseRepo) TouchActivity(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.LastActivityAt = at
	return nil
}

func (r *fakeCaseRepo) MarkFollowUpSent(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	c, ok := r.cases[id]
	if !ok || c.FollowUpSentAt != nil || !c.IsOpen() {
		return pgx.ErrNoRows
	}
	c.FollowUpSentAt = &at
	return nil
}

func (r *fakeCaseRepo) MarkEscalationSent(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	c, ok := r.cases[id]
	if !ok || c.EscalationSentAt != nil || !c.IsOpen() {
		return pgx.ErrNoRows
	}
	c.EscalationSentAt = &at
	return nil
}

func (r *fakeCaseRepo) ClearSLAMarkers(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.FollowUpSentAt = nil
	c.EscalationSentAt = nil
	return nil
}

func (r *fakeCaseRepo) get(id string) *domain.Case {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cases[id]
}

type fakeAdminRepo struct {
	admins  []domain.AdminAccount
	listErr error
}

func (r *fakeAdminRepo) Create(context.Context, *domain.AdminAccount) error {
	return nil
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id string) (*domain.AdminAccount, error) {
	for i := range r.admins {
		if r.admins[i].ID == id {
			return &r.admins[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*domain.AdminAccount, error) {
	for i := range r.admins {
		if r.admins[i].Email == email {
			return &r.admins[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAdminRepo) ListActiveByRoles(_ context.Context, roles []string) ([]domain.AdminAccount, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var result []domain.AdminAccount
	for _, a := range r.admins {
		if !a.Active {
			continue
		}
		for _, role := range roles {
			if string(a.Role) == role {
				result = append(result, a)
				break
			}
		}
	}
	return result, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	records []domain.NotificationRecord
}

func (r *fakeNotificationRepo) Append(_ context.Context, record *domain.NotificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = fmt.Sprintf("rec-%d", len(r.records)+1)
	record.CreatedAt = time.Now()
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeNotificationRepo) ListByCase(_ context.Context, caseID string, _, _ int) ([]domain.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.NotificationRecord
	for _, rec := range r.records {
		if rec.CaseID == caseID {
			result = append(result, rec)
		}
	}
	return result, nil
}

type fakeSMSSender struct {
	mu      sync.Mutex
	sent    []delivery.FollowUpMessage
	failFor map[string]error
}

func (s *fakeSMSSender) SendFollowUpReminder(_ context.Context, msg delivery.FollowUpMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[msg.PhoneNumber]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type sentEmail struct {
	recipient string
	alert     delivery.EscalationAlert
}

type fakeEmailSender struct {
	mu      sync.Mutex
	sent    []sentEmail
	failFor map[string]error
}

func (s *fakeEmailSender) SendEscalationAlert(_ context.Context, recipient string, alert delivery.EscalationAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[recipient]; ok {
		return err
	}
	s.sent = append(s.sent, sentEmail{recipient: recipient, alert: alert})
	return nil
}

type fakeRunLock struct {
	held     bool
	acquires int
	releases int
}

func (l *fakeRunLock) Acquire(context.Context) (bool, error) {
	l.acquires++
	return !l.held, nil
}

func (l *fakeRunLock) Release(context.Context) {
	l.releases++
}
