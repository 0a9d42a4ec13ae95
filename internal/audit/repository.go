package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WindowParams selects one page of the timeline.
type WindowParams struct {
	FromAt     pgtype.Timestamptz
	ToAt       pgtype.Timestamptz
	Actor      pgtype.Text
	Entity     pgtype.Text
	Action     pgtype.Text
	UnitID     pgtype.Text
	OffsetRows int32
	LimitRows  int32
}

// AllParams selects the unpaged timeline for export.
type AllParams struct {
	FromAt pgtype.Timestamptz
	ToAt   pgtype.Timestamptz
	Actor  pgtype.Text
	Entity pgtype.Text
	Action pgtype.Text
	UnitID pgtype.Text
}

type Repository interface {
	TimelineWindow(ctx context.Context, arg WindowParams) ([]TimelineRow, error)
	TimelineAll(ctx context.Context, arg AllParams) ([]TimelineRow, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const timelineQuery = `
	SELECT a.occurred_at, a.actor_id, COALESCE(u.email, ''), a.action, a.entity, a.entity_id, COALESCE(a.unit_id, ''), a.meta
	FROM audit_logs a
	LEFT JOIN users u ON u.id = a.actor_id
	WHERE ($1::timestamptz IS NULL OR a.occurred_at >= $1)
	  AND ($2::timestamptz IS NULL OR a.occurred_at <= $2)
	  AND ($3::text IS NULL OR u.email = $3)
	  AND ($4::text IS NULL OR a.entity = $4)
	  AND ($5::text IS NULL OR a.action = $5)
	  AND ($6::text IS NULL OR a.unit_id = $6)
	ORDER BY a.occurred_at DESC`

func (r *PGRepository) TimelineWindow(ctx context.Context, arg WindowParams) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, timelineQuery+` OFFSET $7 LIMIT $8`,
		arg.FromAt, arg.ToAt, arg.Actor, arg.Entity, arg.Action, arg.UnitID,
		arg.OffsetRows, arg.LimitRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTimeline(rows)
}

func (r *PGRepository) TimelineAll(ctx context.Context, arg AllParams) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, timelineQuery,
		arg.FromAt, arg.ToAt, arg.Actor, arg.Entity, arg.Action, arg.UnitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTimeline(rows)
}

func collectTimeline(rows pgx.Rows) ([]TimelineRow, error) {
	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var meta []byte
		if err := rows.Scan(&row.At, &row.ActorID, &row.ActorEmail, &row.Action,
			&row.Entity, &row.EntityID, &row.UnitID, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &row.Meta)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
