package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-sla-service/internal/domain"
)

const caseColumns = `id, external_key, title, description, category, priority, status,
               employee_name, contact_phone, client_id, client_name, assignee_id,
               created_at, last_activity_at, closed_at, follow_up_sent_at, escalation_sent_at`

// CaseFilter captures staff search parameters.
type CaseFilter struct {
	ClientID    *string
	AssigneeID  *string
	Statuses    []domain.CaseStatus
	Priorities  []domain.CasePriority
	Category    *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// CaseRepository encapsulates case persistence. The two Mark methods are the
// idempotency-marker writes: they are row-scoped conditional updates so a
// concurrent staff edit or a competing run never produces a duplicate marker.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	Update(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	ListOpen(ctx context.Context) ([]domain.Case, error)
	ListWithFilter(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
	TouchActivity(ctx context.Context, id string, at time.Time) error
	MarkFollowUpSent(ctx context.Context, id string, at time.Time) error
	MarkEscalationSent(ctx context.Context, id string, at time.Time) error
	ClearSLAMarkers(ctx context.Context, id string) error
}

type caseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository instantiates repository.
func NewCaseRepository(pool *pgxpool.Pool) CaseRepository {
	return &caseRepository{pool: pool}
}

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	const query = `
        INSERT INTO cases (external_key, title, description, category, priority, status,
            employee_name, contact_phone, client_id, client_name, assignee_id, last_activity_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
        RETURNING id, created_at, last_activity_at`
	return r.pool.QueryRow(ctx, query,
		c.ExternalKey,
		c.Title,
		c.Description,
		c.Category,
		c.Priority,
		c.Status,
		c.EmployeeName,
		c.ContactPhone,
		c.ClientID,
		c.ClientName,
		c.AssigneeID,
	).Scan(&c.ID, &c.CreatedAt, &c.LastActivityAt)
}

func (r *caseRepository) Update(ctx context.Context, c *domain.Case) error {
	const query = `
        UPDATE cases SET title=$1, description=$2, category=$3, priority=$4, status=$5,
            employee_name=$6, contact_phone=$7, client_id=$8, client_name=$9, assignee_id=$10,
            last_activity_at=$11, closed_at=$12
        WHERE id=$13`
	cmd, err := r.pool.Exec(ctx, query,
		c.Title,
		c.Description,
		c.Category,
		c.Priority,
		c.Status,
		c.EmployeeName,
		c.ContactPhone,
		c.ClientID,
		c.ClientName,
		c.AssigneeID,
		c.LastActivityAt,
		c.ClosedAt,
		c.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *caseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id=$1`
	var c domain.Case
	if err := r.pool.QueryRow(ctx, query, id).Scan(caseFields(&c)...); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListOpen returns every case still subject to SLA tracking, oldest activity
// first.
func (r *caseRepository) ListOpen(ctx context.Context) ([]domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE status <> $1 ORDER BY last_activity_at ASC`
	rows, err := r.pool.Query(ctx, query, domain.CaseStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCases(rows)
}

func (r *caseRepository) ListWithFilter(ctx context.Context, filter CaseFilter) ([]domain.Case, error) {
	base := `SELECT ` + caseColumns + ` FROM cases`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(employee_name) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY last_activity_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCases(rows)
}

func (r *caseRepository) TouchActivity(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE cases SET last_activity_at=$2 WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *caseRepository) MarkFollowUpSent(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE cases SET follow_up_sent_at=$2
        WHERE id=$1 AND follow_up_sent_at IS NULL AND status <> $3`
	cmd, err := r.pool.Exec(ctx, query, id, at, domain.CaseStatusClosed)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *caseRepository) MarkEscalationSent(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE cases SET escalation_sent_at=$2
        WHERE id=$1 AND escalation_sent_at IS NULL AND status <> $3`
	cmd, err := r.pool.Exec(ctx, query, id, at, domain.CaseStatusClosed)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ClearSLAMarkers resets both notification markers; called when a closed case
// is reopened so a fresh SLA cycle can notify again.
func (r *caseRepository) ClearSLAMarkers(ctx context.Context, id string) error {
	const query = `UPDATE cases SET follow_up_sent_at=NULL, escalation_sent_at=NULL WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func caseFields(c *domain.Case) []any {
	return []any{
		&c.ID,
		&c.ExternalKey,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.Priority,
		&c.Status,
		&c.EmployeeName,
		&c.ContactPhone,
		&c.ClientID,
		&c.ClientName,
		&c.AssigneeID,
		&c.CreatedAt,
		&c.LastActivityAt,
		&c.ClosedAt,
		&c.FollowUpSentAt,
		&c.EscalationSentAt,
	}
}

func scanCases(rows pgx.Rows) ([]domain.Case, error) {
	var result []domain.Case
	for rows.Next() {
		var c domain.Case
		if err := rows.Scan(caseFields(&c)...); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
