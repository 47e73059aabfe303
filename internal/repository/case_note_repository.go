package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-sla-service/internal/domain"
)

// CaseNoteRepository persists staff notes.
type CaseNoteRepository interface {
	Create(ctx context.Context, note *domain.CaseNote) error
	ListByCase(ctx context.Context, caseID string) ([]domain.CaseNote, error)
}

type caseNoteRepository struct {
	pool *pgxpool.Pool
}

// NewCaseNoteRepository instantiates the repository.
func NewCaseNoteRepository(pool *pgxpool.Pool) CaseNoteRepository {
	return &caseNoteRepository{pool: pool}
}

func (r *caseNoteRepository) Create(ctx context.Context, note *domain.CaseNote) error {
	const query = `
        INSERT INTO case_notes (case_id, author_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		note.CaseID,
		note.AuthorID,
		note.Body,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *caseNoteRepository) ListByCase(ctx context.Context, caseID string) ([]domain.CaseNote, error) {
	const query = `
        SELECT id, case_id, author_id, body, created_at
        FROM case_notes WHERE case_id=$1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CaseNote
	for rows.Next() {
		var note domain.CaseNote
		if err := rows.Scan(&note.ID, &note.CaseID, &note.AuthorID, &note.Body, &note.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
