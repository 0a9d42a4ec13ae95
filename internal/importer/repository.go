package importer

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carbonledger/carbonledger/internal/platform/db"
	"github.com/carbonledger/carbonledger/internal/shared"
)

type RepositoryPort interface {
	Create(ctx context.Context, b Batch, payload []byte) (Batch, error)
	Get(ctx context.Context, id string) (Batch, error)
	List(ctx context.Context, limit int) ([]Batch, error)
	Payload(ctx context.Context, id string) ([]byte, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
	CommitRows(ctx context.Context, batch Batch, unitID int64, rows []Row) error
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const batchColumns = `id, inventory_id, category, provider, filename, status, row_count, imported_count, error, created_by, created_at, updated_at`

func scanBatch(row pgx.Row) (Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.InventoryID, &b.Category, &b.Provider, &b.Filename,
		&b.Status, &b.RowCount, &b.ImportedCount, &b.Error, &b.CreatedBy,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Batch{}, shared.ErrNotFound
	}
	return b, err
}

func (r *Repository) Create(ctx context.Context, b Batch, payload []byte) (Batch, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO import_batches (id, inventory_id, category, provider, filename, payload, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
		RETURNING `+batchColumns,
		b.ID, b.InventoryID, b.Category, b.Provider, b.Filename, payload, b.CreatedBy)
	return scanBatch(row)
}

func (r *Repository) Get(ctx context.Context, id string) (Batch, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM import_batches WHERE id = $1`, id)
	return scanBatch(row)
}

func (r *Repository) List(ctx context.Context, limit int) ([]Batch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+batchColumns+`
		FROM import_batches
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Batch, 0, limit)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) Payload(ctx context.Context, id string) ([]byte, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM import_batches WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return payload, err
}

func (r *Repository) MarkProcessing(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE import_batches
		SET status = 'processing', updated_at = now()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE import_batches
		SET status = 'failed', error = $2, updated_at = now()
		WHERE id = $1`, id, reason)
	return err
}

// CommitRows inserts every parsed row as a synced entry and closes the batch,
// all inside one transaction. A failing row rolls back the whole batch.
func (r *Repository) CommitRows(ctx context.Context, batch Batch, unitID int64, rows []Row) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, row := range rows {
			_, err := tx.Exec(ctx, `
				INSERT INTO entries (inventory_id, unit_id, category, label, quantity, unit_measure, factor_key, synced, source)
				VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)`,
				batch.InventoryID, unitID, batch.Category, row.Label, row.Quantity,
				row.UnitMeasure, row.FactorKey, "import:"+batch.ID)
			if err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `
			UPDATE import_batches
			SET status = 'done', row_count = $2, imported_count = $2, payload = NULL, updated_at = now()
			WHERE id = $1`, batch.ID, len(rows))
		return err
	})
}
