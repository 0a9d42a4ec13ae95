package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(ctx, `SELECT id, email, name, password_hash, is_active, roles, created_at, updated_at FROM users WHERE email = $1`, email)
}

// FindByID fetches a user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.scanUser(ctx, `SELECT id, email, name, password_hash, is_active, roles, created_at, updated_at FROM users WHERE id = $1`, id)
}

func (r *PGRepository) scanUser(ctx context.Context, query string, arg any) (*User, error) {
	var (
		user     User
		rolesRaw []byte
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsActive, &rolesRaw, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	// Role assignments are persisted as JSON and never trusted as
	// already-valid: an unknown role aborts the read instead of being
	// silently dropped.
	assignments, err := authz.DecodeAssignments(rolesRaw)
	if err != nil {
		return nil, err
	}
	user.Assignments = assignments
	return &user, nil
}
