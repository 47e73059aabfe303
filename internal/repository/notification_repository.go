package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-sla-service/internal/domain"
)

// NotificationRepository persists the append-only audit trail. Records are
// never updated or deleted.
type NotificationRepository interface {
	Append(ctx context.Context, record *domain.NotificationRecord) error
	ListByCase(ctx context.Context, caseID string, limit, offset int) ([]domain.NotificationRecord, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Append(ctx context.Context, record *domain.NotificationRecord) error {
	const query = `
        INSERT INTO notification_records (case_id, channel, recipient, message)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		record.CaseID,
		record.Channel,
		record.Recipient,
		record.Message,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *notificationRepository) ListByCase(ctx context.Context, caseID string, limit, offset int) ([]domain.NotificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, case_id, channel, recipient, message, created_at
        FROM notification_records WHERE case_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, caseID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.NotificationRecord
	for rows.Next() {
		var record domain.NotificationRecord
		if err := rows.Scan(
			&record.ID,
			&record.CaseID,
			&record.Channel,
			&record.Recipient,
			&record.Message,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
