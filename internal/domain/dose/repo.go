package dose

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type OccurrenceRepository interface {
	// ListExisting returns every persisted occurrence for the given schedules
	// whose due time falls inside [from, to]. Feeds the existing-instance
	// index, one query per run.
	ListExisting(ctx context.Context, scheduleIDs []uuid.UUID, from, to time.Time) ([]*Occurrence, error)

	// InsertBatch persists one chunk atomically with status scheduled,
	// skipping rows that collide on (schedule_id, due_at). Returns the number
	// of rows actually inserted.
	InsertBatch(ctx context.Context, chunk []Candidate) (int, error)

	// ListByUser returns a user's occurrences in [from, to], ordered by due
	// time, for the reminder layer's read path.
	ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time, limit, offset int) ([]*Occurrence, int, error)
}
