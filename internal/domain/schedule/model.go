package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Frequency kinds. specific_days and weekly both expand as weekday-filtered
// schedules; daily ignores days_of_week entirely.
const (
	FreqDaily        = "daily"
	FreqSpecificDays = "specific_days"
	FreqWeekly       = "weekly"
)

// Item maps to the items table: one medication or supplement owned by a user.
type Item struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserID           uuid.UUID  `db:"user_id" json:"user_id"`
	Name             string     `db:"name" json:"name"`
	Dosage           *string    `db:"dosage" json:"dosage,omitempty"`
	Notes            *string    `db:"notes" json:"notes,omitempty"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	TreatmentEndDate *time.Time `db:"treatment_end_date" json:"treatment_end_date,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Schedule maps to the schedules table: a declarative recurrence rule for one
// item. Times are wall-clock HH:MM strings; DaysOfWeek uses 0=Sunday..6=Saturday
// and is meaningful only for specific_days/weekly.
type Schedule struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ItemID     uuid.UUID `db:"item_id" json:"item_id"`
	FreqType   string    `db:"freq_type" json:"freq_type"`
	Times      []string  `db:"times" json:"times"`
	DaysOfWeek []int     `db:"days_of_week" json:"days_of_week,omitempty"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ActiveSchedule is a schedule joined with its owning active item, normalized
// into one flat record at the store boundary. The generation engine only ever
// sees this shape.
type ActiveSchedule struct {
	ID               uuid.UUID
	ItemID           uuid.UUID
	UserID           uuid.UUID
	FreqType         string
	Times            []string
	DaysOfWeek       []int
	TreatmentEndDate *time.Time
}

// MatchesWeekday reports whether the schedule fires on the given weekday.
// Daily schedules fire every day; weekday-filtered schedules only on listed
// days. A weekday-filtered schedule without a day set never fires.
func (s *ActiveSchedule) MatchesWeekday(wd time.Weekday) bool {
	if s.FreqType != FreqSpecificDays && s.FreqType != FreqWeekly {
		return true
	}
	for _, d := range s.DaysOfWeek {
		if d == int(wd) {
			return true
		}
	}
	return false
}
