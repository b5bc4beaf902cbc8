package gtfs_rt

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS feed_snapshots (
		snapshot_id bigserial PRIMARY KEY,
		fetched_at timestamptz NOT NULL,
		feed_timestamp bigint,
		entity_count integer NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trip_update_events (
		snapshot_id bigint NOT NULL REFERENCES feed_snapshots (snapshot_id) ON DELETE CASCADE,
		trip_id text,
		route_id text,
		start_date text,
		start_time text,
		direction_id integer,
		schedule_relationship text
	)`,
	`CREATE TABLE IF NOT EXISTS trip_update_stop_time_events (
		snapshot_id bigint NOT NULL REFERENCES feed_snapshots (snapshot_id) ON DELETE CASCADE,
		trip_id text,
		stop_id text,
		stop_sequence integer,
		arrival_time bigint,
		departure_time bigint,
		arrival_delay integer
	)`,
	`CREATE INDEX IF NOT EXISTS trip_update_events_trip_id_idx ON trip_update_events (trip_id)`,
}

const insertSnapshot = `INSERT INTO feed_snapshots (fetched_at, feed_timestamp, entity_count)
	VALUES ($1, $2, $3) RETURNING snapshot_id`

// PgSnapshotStore writes each snapshot and its events in one transaction.
type PgSnapshotStore struct {
	pool *pgxpool.Pool
}

func NewPgSnapshotStore(ctx context.Context, pool *pgxpool.Pool) (*PgSnapshotStore, error) {
	for _, statement := range schemaStatements {
		if _, err := pool.Exec(ctx, statement); err != nil {
			return nil, fmt.Errorf("create realtime schema: %w", err)
		}
	}
	return &PgSnapshotStore{pool: pool}, nil
}

func (store *PgSnapshotStore) SaveSnapshot(ctx context.Context, snapshot Snapshot, trips []TripUpdateRecord, stops []StopTimeUpdateRecord) (int64, error) {
	var snapshotId int64
	err := pgx.BeginFunc(ctx, store.pool, func(tx pgx.Tx) error {
		var feedTimestamp *int64
		if snapshot.FeedTimestamp != 0 {
			ts := int64(snapshot.FeedTimestamp)
			feedTimestamp = &ts
		}
		if err := tx.QueryRow(ctx, insertSnapshot, snapshot.FetchedAt, feedTimestamp, snapshot.EntityCount).Scan(&snapshotId); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}

		_, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"trip_update_events"},
			TripUpdateColumns(),
			pgx.CopyFromSlice(len(trips), func(i int) ([]any, error) {
				return trips[i].ToAnyArray(snapshotId), nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy trip updates: %w", err)
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"trip_update_stop_time_events"},
			StopTimeUpdateColumns(),
			pgx.CopyFromSlice(len(stops), func(i int) ([]any, error) {
				return stops[i].ToAnyArray(snapshotId), nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy stop time updates: %w", err)
		}
		return nil
	})
	return snapshotId, err
}
