package factors

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carbonledger/carbonledger/internal/shared"
)

type RepositoryPort interface {
	List(ctx context.Context, category string, year int) ([]Factor, error)
	ListByYear(ctx context.Context, year int) ([]Factor, error)
	Get(ctx context.Context, id int64) (Factor, error)
	Create(ctx context.Context, f Factor) (Factor, error)
	Update(ctx context.Context, f Factor) (Factor, error)
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const factorColumns = `id, category, key, year, value, unit_measure, source, created_at, updated_at`

func scanFactor(row pgx.Row) (Factor, error) {
	var f Factor
	err := row.Scan(&f.ID, &f.Category, &f.Key, &f.Year, &f.Value,
		&f.UnitMeasure, &f.Source, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Factor{}, shared.ErrNotFound
	}
	return f, err
}

func (r *Repository) List(ctx context.Context, category string, year int) ([]Factor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+factorColumns+`
		FROM emission_factors
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = 0 OR year = $2)
		ORDER BY category, key, year`, category, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListByYear returns the full factor set for a reporting year.
func (r *Repository) ListByYear(ctx context.Context, year int) ([]Factor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+factorColumns+`
		FROM emission_factors
		WHERE year = $1
		ORDER BY category, key`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Factor, error) {
	out := make([]Factor, 0, 32)
	for rows.Next() {
		f, err := scanFactor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Factor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+factorColumns+` FROM emission_factors WHERE id = $1`, id)
	return scanFactor(row)
}

func (r *Repository) Create(ctx context.Context, f Factor) (Factor, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO emission_factors (category, key, year, value, unit_measure, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+factorColumns,
		f.Category, f.Key, f.Year, f.Value, f.UnitMeasure, f.Source)
	created, err := scanFactor(row)
	return created, mapUniqueViolation(err)
}

func (r *Repository) Update(ctx context.Context, f Factor) (Factor, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE emission_factors
		SET value = $2, unit_measure = $3, source = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+factorColumns,
		f.ID, f.Value, f.UnitMeasure, f.Source)
	return scanFactor(row)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM emission_factors WHERE id = $1`, id)
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
