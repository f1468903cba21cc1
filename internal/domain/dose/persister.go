package dose

import (
	"context"

	"github.com/rs/zerolog"
)

// BatchSize is the fixed chunk size for store writes.
const BatchSize = 100

// Persist writes the accepted candidates in chunks of BatchSize, each chunk
// all-or-nothing at the store. A failing chunk is logged and the run moves on
// to the next one; the return value counts only rows actually persisted.
func Persist(ctx context.Context, repo OccurrenceRepository, log zerolog.Logger, candidates []Candidate) int {
	persisted := 0
	for start := 0; start < len(candidates); start += BatchSize {
		end := start + BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		chunk := candidates[start:end]

		n, err := repo.InsertBatch(ctx, chunk)
		if err != nil {
			log.Error().Err(err).
				Int("batch_size", len(chunk)).
				Int("batch_offset", start).
				Msg("dose batch write failed, continuing with remaining batches")
			continue
		}
		persisted += n
	}
	return persisted
}
