package dose

import (
	"time"

	"github.com/google/uuid"
)

// StatusScheduled is the only status this engine ever writes. Transitions to
// taken/missed/skipped belong to the reminder layer.
const StatusScheduled = "scheduled"

// Occurrence maps to the dose_instances table: one concrete time-stamped
// instance of a schedule. The pair (ScheduleID, DueAt) is unique across all
// time, enforced by the store.
type Occurrence struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ScheduleID uuid.UUID `db:"schedule_id" json:"schedule_id"`
	ItemID     uuid.UUID `db:"item_id" json:"item_id"`
	DueAt      time.Time `db:"due_at" json:"due_at"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Candidate is a net-new occurrence accepted by the generator, not yet
// persisted.
type Candidate struct {
	ScheduleID uuid.UUID
	ItemID     uuid.UUID
	DueAt      time.Time
}
