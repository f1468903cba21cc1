package dose

import (
	"time"

	"github.com/google/uuid"
)

type indexKey struct {
	scheduleID uuid.UUID
	dueAtUnix  int64
}

// ExistingIndex is a membership set over already-persisted occurrences, keyed
// by (schedule, instant). Built once per run from a single range query and
// read-only afterwards; in-run additions are the seen-set's job, not this
// one's.
type ExistingIndex struct {
	keys map[indexKey]struct{}
}

func NewExistingIndex(existing []*Occurrence) *ExistingIndex {
	idx := &ExistingIndex{keys: make(map[indexKey]struct{}, len(existing))}
	for _, occ := range existing {
		idx.keys[indexKey{occ.ScheduleID, occ.DueAt.Unix()}] = struct{}{}
	}
	return idx
}

// Contains reports whether an occurrence for the schedule exists at exactly
// dueAt. Instant equality, not range match.
func (idx *ExistingIndex) Contains(scheduleID uuid.UUID, dueAt time.Time) bool {
	_, ok := idx.keys[indexKey{scheduleID, dueAt.Unix()}]
	return ok
}

func (idx *ExistingIndex) Len() int {
	return len(idx.keys)
}
