package dose

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dosetrack/dosetrack/internal/domain/schedule"
)

func TestGenerate_RejectsExisting(t *testing.T) {
	s := dailySchedule("08:00", "20:00")
	now := day0.Add(time.Hour)

	existing := []*Occurrence{
		{ScheduleID: s.ID, DueAt: day0.Add(8 * time.Hour)},
	}
	idx := NewExistingIndex(existing)

	res := Generate([]*schedule.ActiveSchedule{s}, idx, now, 1)
	if res.SchedulesProcessed != 1 {
		t.Errorf("expected 1 schedule processed, got %d", res.SchedulesProcessed)
	}
	if res.DuplicatesRejected != 1 {
		t.Errorf("expected 1 duplicate rejected, got %d", res.DuplicatesRejected)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 net-new candidate, got %d", len(res.Candidates))
	}
	if !res.Candidates[0].DueAt.Equal(day0.Add(20 * time.Hour)) {
		t.Errorf("unexpected candidate %v", res.Candidates[0].DueAt)
	}
}

func TestGenerate_SeenSetCatchesInRunDuplicates(t *testing.T) {
	// Duplicate times-of-day on the same schedule would otherwise yield the
	// same instant twice in one run.
	s := dailySchedule("08:00", "08:00")
	now := day0.Add(time.Hour)

	res := Generate([]*schedule.ActiveSchedule{s}, NewExistingIndex(nil), now, 1)
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(res.Candidates))
	}
	if res.DuplicatesRejected != 1 {
		t.Errorf("expected 1 duplicate rejected, got %d", res.DuplicatesRejected)
	}
}

func TestGenerate_OrderedOutput(t *testing.T) {
	var schedules []*schedule.ActiveSchedule
	for i := 0; i < 10; i++ {
		schedules = append(schedules, dailySchedule("08:00", "12:00", "20:00"))
	}
	now := day0.Add(time.Hour)

	res := Generate(schedules, NewExistingIndex(nil), now, 3)
	if len(res.Candidates) != 10*3*3 {
		t.Fatalf("expected 90 candidates, got %d", len(res.Candidates))
	}
	for i := 1; i < len(res.Candidates); i++ {
		if res.Candidates[i].DueAt.Before(res.Candidates[i-1].DueAt) {
			t.Fatalf("candidates out of order at %d: %v before %v",
				i, res.Candidates[i].DueAt, res.Candidates[i-1].DueAt)
		}
	}
}

func TestExistingIndex(t *testing.T) {
	sid := uuid.New()
	at := day0.Add(8 * time.Hour)
	idx := NewExistingIndex([]*Occurrence{{ScheduleID: sid, DueAt: at}})

	if !idx.Contains(sid, at) {
		t.Error("expected index to contain the persisted occurrence")
	}
	if idx.Contains(sid, at.Add(time.Minute)) {
		t.Error("instant equality must not match nearby timestamps")
	}
	if idx.Contains(uuid.New(), at) {
		t.Error("different schedule must not match")
	}
	if idx.Len() != 1 {
		t.Errorf("expected length 1, got %d", idx.Len())
	}
}
