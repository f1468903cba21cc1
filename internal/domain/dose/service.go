package dose

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dosetrack/dosetrack/internal/domain/schedule"
)

// ScheduleSource is the engine's read-only view of the schedule store.
// Satisfied by schedule.Service.
type ScheduleSource interface {
	ListActive(ctx context.Context, userID *uuid.UUID) ([]*schedule.ActiveSchedule, error)
}

// Summary is a run report. Generated counts only persisted rows; a shortfall
// against the candidate count means one or more batch writes failed.
type Summary struct {
	Success            bool
	Message            string
	Generated          int
	SchedulesProcessed int
	Days               int
	DurationMS         int64
	DuplicatesRejected int
	MalformedSkipped   int
}

type Service struct {
	schedules ScheduleSource
	doses     OccurrenceRepository
	log       zerolog.Logger

	now func() time.Time
}

func NewService(schedules ScheduleSource, doses OccurrenceRepository, log zerolog.Logger) *Service {
	return &Service{
		schedules: schedules,
		doses:     doses,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one generation pass: load schedules, build the existing
// index, expand and dedup, persist in batches, report. A nil userID spans all
// users (the trusted scheduler path). Store read failures abort the run; batch
// write failures do not.
func (s *Service) Run(ctx context.Context, userID *uuid.UUID, days int) (*Summary, error) {
	days = ClampDays(days)
	now := s.now()
	started := now

	active, err := s.schedules.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading active schedules: %w", err)
	}
	if len(active) == 0 {
		return &Summary{Success: true, Message: "No active schedules"}, nil
	}

	ids := make([]uuid.UUID, len(active))
	for i, sched := range active {
		ids[i] = sched.ID
	}
	existing, err := s.doses.ListExisting(ctx, ids, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("loading existing occurrences: %w", err)
	}
	idx := NewExistingIndex(existing)

	res := Generate(active, idx, now, days)
	generated := Persist(ctx, s.doses, s.log, res.Candidates)

	summary := &Summary{
		Success:            true,
		Generated:          generated,
		SchedulesProcessed: res.SchedulesProcessed,
		Days:               days,
		DurationMS:         time.Since(started).Milliseconds(),
		DuplicatesRejected: res.DuplicatesRejected,
		MalformedSkipped:   res.MalformedSkipped,
	}

	s.log.Info().
		Int("generated", summary.Generated).
		Int("schedules_processed", summary.SchedulesProcessed).
		Int("candidates", len(res.Candidates)).
		Int("duplicates_rejected", summary.DuplicatesRejected).
		Int("malformed_skipped", summary.MalformedSkipped).
		Int("days", days).
		Int64("duration_ms", summary.DurationMS).
		Msg("dose generation run complete")

	return summary, nil
}

// ListUpcoming returns a user's occurrences from now through the horizon.
func (s *Service) ListUpcoming(ctx context.Context, userID uuid.UUID, days, limit, offset int) ([]*Occurrence, int, error) {
	days = ClampDays(days)
	now := s.now()
	return s.doses.ListByUser(ctx, userID, now, now.AddDate(0, 0, days), limit, offset)
}
