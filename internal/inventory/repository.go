package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carbonledger/carbonledger/internal/shared"
)

// RepositoryPort defines data access methods for carbon reports.
type RepositoryPort interface {
	List(ctx context.Context, visibleUnitIDs []int64, year int) ([]Report, error)
	Get(ctx context.Context, id int64) (Report, error)
	Create(ctx context.Context, unitID int64, year int, title string, createdBy int64) (Report, error)
	UpdateTitle(ctx context.Context, id int64, title string) (Report, error)
	SetStatus(ctx context.Context, id int64, status Status) (Report, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const reportColumns = `id, unit_id, year, title, status, created_by, created_at, updated_at`

// List returns reports restricted to the visible units; year 0 means any year.
func (r *Repository) List(ctx context.Context, visibleUnitIDs []int64, year int) ([]Report, error) {
	query := `SELECT ` + reportColumns + ` FROM inventories WHERE ($1 = 0 OR year = $1)`
	args := []any{year}
	if visibleUnitIDs != nil {
		query += ` AND unit_id = ANY($2)`
		args = append(args, visibleUnitIDs)
	}
	query += ` ORDER BY year DESC, unit_id`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reports []Report
	for rows.Next() {
		var report Report
		if err := rows.Scan(&report.ID, &report.UnitID, &report.Year, &report.Title, &report.Status, &report.CreatedBy, &report.CreatedAt, &report.UpdatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// Get fetches a report by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Report, error) {
	var report Report
	err := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM inventories WHERE id = $1`, id).
		Scan(&report.ID, &report.UnitID, &report.Year, &report.Title, &report.Status, &report.CreatedBy, &report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Report{}, shared.ErrNotFound
		}
		return Report{}, err
	}
	return report, nil
}

// Create opens a new draft report. One report per unit and year.
func (r *Repository) Create(ctx context.Context, unitID int64, year int, title string, createdBy int64) (Report, error) {
	var report Report
	err := r.pool.QueryRow(ctx, `INSERT INTO inventories (unit_id, year, title, status, created_by) VALUES ($1, $2, $3, 'draft', $4) RETURNING `+reportColumns, unitID, year, title, createdBy).
		Scan(&report.ID, &report.UnitID, &report.Year, &report.Title, &report.Status, &report.CreatedBy, &report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Report{}, shared.ErrDuplicate
		}
		return Report{}, err
	}
	return report, nil
}

// UpdateTitle renames a report.
func (r *Repository) UpdateTitle(ctx context.Context, id int64, title string) (Report, error) {
	var report Report
	err := r.pool.QueryRow(ctx, `UPDATE inventories SET title = $2, updated_at = NOW() WHERE id = $1 RETURNING `+reportColumns, id, title).
		Scan(&report.ID, &report.UnitID, &report.Year, &report.Title, &report.Status, &report.CreatedBy, &report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Report{}, shared.ErrNotFound
		}
		return Report{}, err
	}
	return report, nil
}

// SetStatus transitions a report's lifecycle state.
func (r *Repository) SetStatus(ctx context.Context, id int64, status Status) (Report, error) {
	var report Report
	err := r.pool.QueryRow(ctx, `UPDATE inventories SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+reportColumns, id, status).
		Scan(&report.ID, &report.UnitID, &report.Year, &report.Title, &report.Status, &report.CreatedBy, &report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Report{}, shared.ErrNotFound
		}
		return Report{}, err
	}
	return report, nil
}
