package dose

import (
	"sort"
	"sync"
	"time"

	"github.com/dosetrack/dosetrack/internal/domain/schedule"
)

// generatorWorkers bounds expansion parallelism. Expansion is CPU-trivial;
// the bound mostly keeps the seen-set lock uncontended.
const generatorWorkers = 4

// GenerateResult carries the accepted candidates plus the run counters the
// summary reports on.
type GenerateResult struct {
	Candidates         []Candidate
	SchedulesProcessed int
	DuplicatesRejected int
	MalformedSkipped   int
}

// Generate drives Expand over every schedule, filtering each candidate
// through the existing-instance index and an in-run seen-set so only net-new
// occurrences come out. Output order is deterministic: by due time, then
// schedule id.
func Generate(schedules []*schedule.ActiveSchedule, idx *ExistingIndex, now time.Time, days int) *GenerateResult {
	res := &GenerateResult{SchedulesProcessed: len(schedules)}

	var mu sync.Mutex
	seen := make(map[indexKey]struct{})

	var wg sync.WaitGroup
	work := make(chan *schedule.ActiveSchedule)
	for i := 0; i < generatorWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range work {
				candidates, malformed := Expand(s, now, days)

				mu.Lock()
				res.MalformedSkipped += malformed
				for _, dueAt := range candidates {
					key := indexKey{s.ID, dueAt.Unix()}
					if idx.Contains(s.ID, dueAt) {
						res.DuplicatesRejected++
						continue
					}
					if _, dup := seen[key]; dup {
						res.DuplicatesRejected++
						continue
					}
					seen[key] = struct{}{}
					res.Candidates = append(res.Candidates, Candidate{
						ScheduleID: s.ID,
						ItemID:     s.ItemID,
						DueAt:      dueAt,
					})
				}
				mu.Unlock()
			}
		}()
	}

	for _, s := range schedules {
		work <- s
	}
	close(work)
	wg.Wait()

	sort.Slice(res.Candidates, func(i, j int) bool {
		a, b := res.Candidates[i], res.Candidates[j]
		if !a.DueAt.Equal(b.DueAt) {
			return a.DueAt.Before(b.DueAt)
		}
		return a.ScheduleID.String() < b.ScheduleID.String()
	})
	return res
}
