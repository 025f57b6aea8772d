// Package httpapi extracts job postings from the job-board HTTP export.
// It is the fallback extraction path when no source database is
// configured.
package httpapi

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/unjobhub/backend/internal/config"
	"github.com/unjobhub/backend/internal/domain"
	"github.com/unjobhub/backend/internal/source"
)

// posting mirrors one record of the export payload.
type posting struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Labels      string      `json:"labels"`
	Agency      string      `json:"agency"`
	AgencyShort string      `json:"agency_short"`
	Department  string      `json:"department"`
	DutyStation string      `json:"duty_station"`
	DutyCountry string      `json:"duty_country"`
	Grade       string      `json:"grade"`
	PostedAt    string      `json:"posted_at"`
	ApplyUntil  string      `json:"apply_until"`
	Archived    interface{} `json:"archived"`
	URL         string      `json:"url"`
	ApplyURL    string      `json:"apply_url"`
	Languages   string      `json:"languages"`
}

type exportResponse struct {
	Jobs []posting `json:"jobs"`
}

// Adapter fetches the posting export over HTTP.
type Adapter struct {
	client  *resty.Client
	baseURL string
}

// New creates an HTTP extraction adapter.
// Parameters:
//   - cfg: source configuration; APIBaseURL must be set.
// Returns:
//   - *Adapter: adapter ready for extraction.
func New(cfg *config.SourceConfig) *Adapter {
	client := resty.New().
		SetTimeout(cfg.QueryTimeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(2 * time.Second)
	return &Adapter{client: client, baseURL: cfg.APIBaseURL}
}

// Name returns the stable source identifier.
func (a *Adapter) Name() string {
	return "source-httpapi"
}

// FetchAll downloads the full export and returns the deduplicated posting
// set.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.RawJob: deduplicated snapshot, ordered by id.
//   - error: non-nil if the request fails or returns a non-2xx status.
func (a *Adapter) FetchAll(ctx context.Context) ([]domain.RawJob, error) {
	var payload exportResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&payload).
		Get(a.baseURL + "/api/jobs/export")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job export: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("job export returned status %d", resp.StatusCode())
	}

	records := make([]domain.RawJob, 0, len(payload.Jobs))
	for _, p := range payload.Jobs {
		records = append(records, domain.RawJob{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Labels:      p.Labels,
			Agency:      p.Agency,
			AgencyShort: p.AgencyShort,
			Department:  p.Department,
			DutyStation: p.DutyStation,
			DutyCountry: p.DutyCountry,
			Grade:       p.Grade,
			PostedAt:    p.PostedAt,
			ApplyUntil:  p.ApplyUntil,
			Archived:    p.Archived,
			URL:         p.URL,
			ApplyURL:    p.ApplyURL,
			Languages:   p.Languages,
		})
	}
	return source.Deduplicate(records), nil
}
