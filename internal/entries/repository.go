package entries

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carbonledger/carbonledger/internal/shared"
)

type RepositoryPort interface {
	List(ctx context.Context, inventoryID int64, category Category, visibleUnits []int64) ([]Entry, error)
	Get(ctx context.Context, id int64) (Entry, error)
	Create(ctx context.Context, e Entry) (Entry, error)
	Update(ctx context.Context, e Entry) (Entry, error)
	Delete(ctx context.Context, id int64) error
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `id, inventory_id, unit_id, category, label, quantity, unit_measure, factor_key, synced, source, created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.InventoryID, &e.UnitID, &e.Category, &e.Label,
		&e.Quantity, &e.UnitMeasure, &e.FactorKey, &e.Synced, &e.Source,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, shared.ErrNotFound
	}
	return e, err
}

// List returns entries of one category inside a report. A nil visibleUnits
// means no unit restriction; an empty slice matches nothing.
func (r *Repository) List(ctx context.Context, inventoryID int64, category Category, visibleUnits []int64) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE inventory_id = $1
		  AND category = $2
		  AND ($3::bigint[] IS NULL OR unit_id = ANY($3))
		ORDER BY id`, inventoryID, category, visibleUnits)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, 16)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Entry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = $1`, id)
	return scanEntry(row)
}

func (r *Repository) Create(ctx context.Context, e Entry) (Entry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO entries (inventory_id, unit_id, category, label, quantity, unit_measure, factor_key, synced, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+entryColumns,
		e.InventoryID, e.UnitID, e.Category, e.Label, e.Quantity, e.UnitMeasure, e.FactorKey, e.Synced, e.Source)
	return scanEntry(row)
}

func (r *Repository) Update(ctx context.Context, e Entry) (Entry, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE entries
		SET label = $2, quantity = $3, unit_measure = $4, factor_key = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+entryColumns,
		e.ID, e.Label, e.Quantity, e.UnitMeasure, e.FactorKey)
	return scanEntry(row)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
