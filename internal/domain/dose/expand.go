package dose

import (
	"time"

	"github.com/dosetrack/dosetrack/internal/domain/schedule"
)

// Horizon bounds. The default mirrors what callers get when they send no days
// parameter; the maximum caps horizon × schedules × times growth.
const (
	DefaultHorizonDays = 7
	MaxHorizonDays     = 31
)

// ClampDays normalizes a caller-supplied horizon: non-positive values fall
// back to the default, anything above the ceiling is cut to it.
func ClampDays(days int) int {
	if days <= 0 {
		return DefaultHorizonDays
	}
	if days > MaxHorizonDays {
		return MaxHorizonDays
	}
	return days
}

// Expand turns one active schedule into its candidate instants over a day
// horizon starting at now. Pure: no I/O, no clock reads, fully determined by
// its arguments.
//
// For each day offset d in [0, days): skip the day if the schedule's weekday
// filter excludes it, otherwise emit one candidate per wall-clock time. A
// candidate at or before now is dropped (never backfill), as is any candidate
// past the item's treatment end. Malformed HH:MM entries are skipped one by
// one and counted, not fatal for the schedule.
func Expand(s *schedule.ActiveSchedule, now time.Time, days int) (candidates []time.Time, malformed int) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for d := 0; d < days; d++ {
		date := startOfDay.AddDate(0, 0, d)
		if !s.MatchesWeekday(date.Weekday()) {
			continue
		}
		for _, tod := range s.Times {
			clock, err := time.Parse("15:04", tod)
			if err != nil {
				malformed++
				continue
			}
			candidate := time.Date(date.Year(), date.Month(), date.Day(),
				clock.Hour(), clock.Minute(), 0, 0, now.Location())
			if !candidate.After(now) {
				continue
			}
			if s.TreatmentEndDate != nil && candidate.After(*s.TreatmentEndDate) {
				continue
			}
			candidates = append(candidates, candidate)
		}
	}
	return candidates, malformed
}
