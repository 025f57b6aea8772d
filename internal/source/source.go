// Package source defines the extraction boundary to the authoritative job
// store. Adapters pull the full posting set once per sync run; the dedup
// rule (one row per distinct url, highest id wins) is shared across
// adapters.
package source

import (
	"context"
	"sort"

	"github.com/unjobhub/backend/internal/domain"
)

// Source is a job-posting extraction backend.
type Source interface {
	// Name returns the stable identifier for this source, for logging.
	Name() string

	// FetchAll extracts the complete deduplicated posting set for one sync
	// run.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	// Returns:
	//   - []domain.RawJob: deduplicated posting snapshot.
	//   - error: non-nil if extraction fails.
	FetchAll(ctx context.Context) ([]domain.RawJob, error)
}

// Deduplicate keeps one record per distinct non-empty url, breaking ties by
// highest id. Records without a url are all kept individually. Output is
// ordered by id ascending for deterministic downstream processing.
// Parameters:
//   - records: raw extraction result, any order.
// Returns:
//   - []domain.RawJob: deduplicated records.
func Deduplicate(records []domain.RawJob) []domain.RawJob {
	byURL := make(map[string]domain.RawJob)
	var noURL []domain.RawJob

	for _, rec := range records {
		if rec.URL == "" {
			noURL = append(noURL, rec)
			continue
		}
		if existing, ok := byURL[rec.URL]; !ok || rec.ID > existing.ID {
			byURL[rec.URL] = rec
		}
	}

	result := make([]domain.RawJob, 0, len(byURL)+len(noURL))
	for _, rec := range byURL {
		result = append(result, rec)
	}
	result = append(result, noURL...)
	sort.Slice(result, func(a, b int) bool {
		return result[a].ID < result[b].ID
	})
	return result
}
