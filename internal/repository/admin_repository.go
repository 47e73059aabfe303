package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-sla-service/internal/domain"
)

// AdminRepository handles persistence for staff accounts.
type AdminRepository interface {
	Create(ctx context.Context, account *domain.AdminAccount) error
	GetByID(ctx context.Context, id string) (*domain.AdminAccount, error)
	GetByEmail(ctx context.Context, email string) (*domain.AdminAccount, error)
	ListActiveByRoles(ctx context.Context, roles []string) ([]domain.AdminAccount, error)
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository instantiates the repository.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

func (r *adminRepository) Create(ctx context.Context, account *domain.AdminAccount) error {
	const query = `
        INSERT INTO admin_accounts (name, email, password_hash, role, active_flag)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.Active,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *adminRepository) GetByID(ctx context.Context, id string) (*domain.AdminAccount, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active_flag, created_at, updated_at
        FROM admin_accounts WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.AdminAccount, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active_flag, created_at, updated_at
        FROM admin_accounts WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

// ListActiveByRoles returns active accounts holding any of the given roles;
// this is the escalation fan-out recipient set.
func (r *adminRepository) ListActiveByRoles(ctx context.Context, roles []string) ([]domain.AdminAccount, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active_flag, created_at, updated_at
        FROM admin_accounts WHERE active_flag=true AND role=ANY($1)
        ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AdminAccount
	for rows.Next() {
		var account domain.AdminAccount
		if err := rows.Scan(
			&account.ID,
			&account.Name,
			&account.Email,
			&account.PasswordHash,
			&account.Role,
			&account.Active,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}

func (r *adminRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.AdminAccount, error) {
	var account domain.AdminAccount
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.Active,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
