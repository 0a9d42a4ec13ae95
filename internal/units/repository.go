package units

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carbonledger/carbonledger/internal/shared"
)

// RepositoryPort defines data access methods for units.
type RepositoryPort interface {
	List(ctx context.Context, visibleIDs []int64) ([]Unit, error)
	Get(ctx context.Context, id int64) (Unit, error)
	Create(ctx context.Context, code, name string, parentID *int64) (Unit, error)
	Update(ctx context.Context, id int64, code, name string, parentID *int64) (Unit, error)
	Delete(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns units ordered by code. A nil visibleIDs slice means no
// restriction; an empty one matches nothing.
func (r *Repository) List(ctx context.Context, visibleIDs []int64) ([]Unit, error) {
	query := `SELECT id, code, name, parent_id, created_at, updated_at FROM units ORDER BY code`
	args := []any{}
	if visibleIDs != nil {
		query = `SELECT id, code, name, parent_id, created_at, updated_at FROM units WHERE id = ANY($1) ORDER BY code`
		args = append(args, visibleIDs)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var units []Unit
	for rows.Next() {
		var unit Unit
		if err := rows.Scan(&unit.ID, &unit.Code, &unit.Name, &unit.ParentID, &unit.CreatedAt, &unit.UpdatedAt); err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// Get fetches a unit by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Unit, error) {
	var unit Unit
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, parent_id, created_at, updated_at FROM units WHERE id = $1`, id).
		Scan(&unit.ID, &unit.Code, &unit.Name, &unit.ParentID, &unit.CreatedAt, &unit.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Unit{}, shared.ErrNotFound
		}
		return Unit{}, err
	}
	return unit, nil
}

// Create inserts a new unit.
func (r *Repository) Create(ctx context.Context, code, name string, parentID *int64) (Unit, error) {
	var unit Unit
	err := r.pool.QueryRow(ctx, `INSERT INTO units (code, name, parent_id) VALUES ($1, $2, $3) RETURNING id, code, name, parent_id, created_at, updated_at`, code, name, parentID).
		Scan(&unit.ID, &unit.Code, &unit.Name, &unit.ParentID, &unit.CreatedAt, &unit.UpdatedAt)
	if err != nil {
		return Unit{}, mapUniqueViolation(err)
	}
	return unit, nil
}

// Update modifies an existing unit.
func (r *Repository) Update(ctx context.Context, id int64, code, name string, parentID *int64) (Unit, error) {
	var unit Unit
	err := r.pool.QueryRow(ctx, `UPDATE units SET code = $2, name = $3, parent_id = $4, updated_at = NOW() WHERE id = $1 RETURNING id, code, name, parent_id, created_at, updated_at`, id, code, name, parentID).
		Scan(&unit.ID, &unit.Code, &unit.Name, &unit.ParentID, &unit.CreatedAt, &unit.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Unit{}, shared.ErrNotFound
		}
		return Unit{}, mapUniqueViolation(err)
	}
	return unit, nil
}

// Delete removes a unit by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM units WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
