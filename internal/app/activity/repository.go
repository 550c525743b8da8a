package activity

import (
	"context"
	"time"

	"github.com/daybook/server/internal/contracts"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createEventsTableSQL = `
CREATE TABLE IF NOT EXISTS activity_events (
  event_id text PRIMARY KEY,
  owner_id text NOT NULL,
  entity text NOT NULL,
  entity_id text NOT NULL DEFAULT '',
  action text NOT NULL,
  shard_id integer NOT NULL,
  stream_seq bigint NOT NULL DEFAULT 0,
  occurred_at timestamptz NOT NULL,
  inserted_at timestamptz NOT NULL DEFAULT now()
)`

const createOwnerIndexSQL = `
CREATE INDEX IF NOT EXISTS activity_events_owner_occurred_idx
ON activity_events (owner_id, occurred_at DESC)`

const insertEventSQL = `
INSERT INTO activity_events (
  event_id, owner_id, entity, entity_id, action, shard_id, stream_seq, occurred_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (event_id) DO NOTHING
`

const recentEventsSQL = `
SELECT event_id, owner_id, entity, entity_id, action, shard_id, occurred_at
FROM activity_events
WHERE owner_id = $1
ORDER BY occurred_at DESC, event_id DESC
LIMIT $2
`

type PostgresRepository struct {
	Pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, createEventsTableSQL); err != nil {
		return err
	}
	_, err := r.Pool.Exec(ctx, createOwnerIndexSQL)
	return err
}

// InsertEvent is idempotent on event id, so redelivered messages are
// harmless.
func (r *PostgresRepository) InsertEvent(ctx context.Context, event contracts.ActivityEvent, streamSeq uint64) error {
	_, err := r.Pool.Exec(ctx, insertEventSQL,
		event.EventID,
		event.OwnerID,
		event.Entity,
		event.EntityID,
		event.Action,
		event.ShardID,
		int64(streamSeq),
		event.OccurredAt,
	)
	return err
}

// Recent returns the owner's newest events, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, ownerID string, limit int) ([]contracts.ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.Pool.Query(ctx, recentEventsSQL, ownerID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (contracts.ActivityEvent, error) {
		var (
			e          contracts.ActivityEvent
			occurredAt time.Time
		)
		err := row.Scan(&e.EventID, &e.OwnerID, &e.Entity, &e.EntityID, &e.Action, &e.ShardID, &occurredAt)
		e.OccurredAt = occurredAt.UTC()
		return e, err
	})
}
