package schedule

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Item Repository ===========

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository {
	return &itemRepoPG{pool: pool}
}

const itemCols = `id, user_id, name, dosage, notes, is_active, treatment_end_date, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.UserID, &it.Name, &it.Dosage, &it.Notes,
		&it.IsActive, &it.TreatmentEndDate, &it.CreatedAt, &it.UpdatedAt)
	return &it, err
}

func (r *itemRepoPG) Create(ctx context.Context, item *Item) error {
	item.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO items (id, user_id, name, dosage, notes, is_active, treatment_end_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		item.ID, item.UserID, item.Name, item.Dosage, item.Notes,
		item.IsActive, item.TreatmentEndDate)
	return err
}

func (r *itemRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+itemCols+` FROM items WHERE id = $1`, id))
}

func (r *itemRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Item, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM items WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+itemCols+` FROM items
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

func (r *itemRepoPG) Update(ctx context.Context, item *Item) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE items SET name=$2, dosage=$3, notes=$4, is_active=$5,
			treatment_end_date=$6, updated_at=NOW()
		WHERE id = $1`,
		item.ID, item.Name, item.Dosage, item.Notes, item.IsActive, item.TreatmentEndDate)
	return err
}

func (r *itemRepoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE items SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// =========== Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepoPG{pool: pool}
}

const schedCols = `id, item_id, freq_type, times, days_of_week, is_active, created_at, updated_at`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.ItemID, &s.FreqType, &s.Times, &s.DaysOfWeek,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *scheduleRepoPG) Create(ctx context.Context, s *Schedule) error {
	s.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO schedules (id, item_id, freq_type, times, days_of_week, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.ItemID, s.FreqType, s.Times, s.DaysOfWeek, s.IsActive)
	return err
}

func (r *scheduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return scanSchedule(r.pool.QueryRow(ctx, `SELECT `+schedCols+` FROM schedules WHERE id = $1`, id))
}

func (r *scheduleRepoPG) ListByItem(ctx context.Context, itemID uuid.UUID) ([]*Schedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+schedCols+` FROM schedules
		WHERE item_id = $1
		ORDER BY created_at`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scheds []*Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		scheds = append(scheds, s)
	}
	return scheds, rows.Err()
}

func (r *scheduleRepoPG) Update(ctx context.Context, s *Schedule) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE schedules SET freq_type=$2, times=$3, days_of_week=$4, is_active=$5, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.FreqType, s.Times, s.DaysOfWeek, s.IsActive)
	return err
}

func (r *scheduleRepoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE schedules SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// ListActive joins active schedules with their active owning items. The join
// is flattened here so nothing downstream has to care about the row shape.
func (r *scheduleRepoPG) ListActive(ctx context.Context, userID *uuid.UUID) ([]*ActiveSchedule, error) {
	query := `
		SELECT s.id, s.item_id, i.user_id, s.freq_type, s.times, s.days_of_week, i.treatment_end_date
		FROM schedules s
		JOIN items i ON i.id = s.item_id
		WHERE s.is_active AND i.is_active`
	args := []interface{}{}
	if userID != nil {
		query += ` AND i.user_id = $1`
		args = append(args, *userID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var active []*ActiveSchedule
	for rows.Next() {
		var a ActiveSchedule
		if err := rows.Scan(&a.ID, &a.ItemID, &a.UserID, &a.FreqType,
			&a.Times, &a.DaysOfWeek, &a.TreatmentEndDate); err != nil {
			return nil, err
		}
		active = append(active, &a)
	}
	return active, rows.Err()
}
