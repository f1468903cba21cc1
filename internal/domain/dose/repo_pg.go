package dose

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type occurrenceRepoPG struct{ pool *pgxpool.Pool }

func NewOccurrenceRepoPG(pool *pgxpool.Pool) OccurrenceRepository {
	return &occurrenceRepoPG{pool: pool}
}

const occCols = `id, schedule_id, item_id, due_at, status, created_at, updated_at`

func scanOccurrence(row pgx.Row) (*Occurrence, error) {
	var o Occurrence
	err := row.Scan(&o.ID, &o.ScheduleID, &o.ItemID, &o.DueAt, &o.Status,
		&o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *occurrenceRepoPG) ListExisting(ctx context.Context, scheduleIDs []uuid.UUID, from, to time.Time) ([]*Occurrence, error) {
	if len(scheduleIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+occCols+` FROM dose_instances
		WHERE schedule_id = ANY($1) AND due_at >= $2 AND due_at <= $3`,
		scheduleIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading existing dose instances: %w", err)
	}
	defer rows.Close()

	var existing []*Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		existing = append(existing, o)
	}
	return existing, rows.Err()
}

// InsertBatch writes one chunk inside a single transaction so a failure rolls
// the whole chunk back. ON CONFLICT DO NOTHING absorbs rows a concurrent run
// persisted first; those rows simply don't count toward the result.
func (r *occurrenceRepoPG) InsertBatch(ctx context.Context, chunk []Candidate) (int, error) {
	if len(chunk) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin batch tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range chunk {
		batch.Queue(`
			INSERT INTO dose_instances (id, schedule_id, item_id, due_at, status)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (schedule_id, due_at) DO NOTHING`,
			uuid.New(), c.ScheduleID, c.ItemID, c.DueAt, StatusScheduled)
	}

	br := tx.SendBatch(ctx, batch)
	inserted := 0
	for range chunk {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, fmt.Errorf("batch insert: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("closing batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit batch tx: %w", err)
	}
	return inserted, nil
}

func (r *occurrenceRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time, limit, offset int) ([]*Occurrence, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM dose_instances d
		JOIN items i ON i.id = d.item_id
		WHERE i.user_id = $1 AND d.due_at >= $2 AND d.due_at <= $3`,
		userID, from, to).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT d.id, d.schedule_id, d.item_id, d.due_at, d.status, d.created_at, d.updated_at
		FROM dose_instances d
		JOIN items i ON i.id = d.item_id
		WHERE i.user_id = $1 AND d.due_at >= $2 AND d.due_at <= $3
		ORDER BY d.due_at
		LIMIT $4 OFFSET $5`, userID, from, to, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var occs []*Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, 0, err
		}
		occs = append(occs, o)
	}
	return occs, total, rows.Err()
}
