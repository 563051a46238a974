package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/service"
)

// AccountRepository is the pgx-backed service.AccountDirectory.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, email, full_name, role, password_hash, created_at`

func (r *AccountRepository) scanAccount(row pgx.Row) (*model.Account, error) {
	a := &model.Account{}
	err := row.Scan(&a.ID, &a.Email, &a.FullName, &a.Role, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	return a, nil
}

// AccountByEmail retrieves an account by its login email.
func (r *AccountRepository) AccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
}

// AccountByID retrieves an account by its primary key.
func (r *AccountRepository) AccountByID(ctx context.Context, id int) (*model.Account, error) {
	return r.scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}
