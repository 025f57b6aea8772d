// Package postgres extracts job postings from the authoritative source
// store over a bounded connection pool.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/unjobhub/backend/internal/config"
	"github.com/unjobhub/backend/internal/domain"
	"github.com/unjobhub/backend/internal/source"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// extractQuery pulls the full column set in one pass. Deduplication happens
// in memory so url-less rows survive individually.
const extractQuery = `
SELECT id, title, description, labels, agency, agency_short, department,
       duty_station, duty_country, grade, posted_at, apply_until,
       archived, url, apply_url, languages
FROM job_postings
ORDER BY id`

// Adapter reads the source store.
type Adapter struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

// New connects to the source store and returns an extraction adapter.
// Parameters:
//   - cfg: source store configuration; DSN must be set.
// Returns:
//   - *Adapter: connected adapter.
//   - error: non-nil if the connection fails.
func New(cfg *config.SourceConfig) (*Adapter, error) {
	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN: cfg.DSN,
		// Simple protocol supports transaction poolers in front of the
		// source store.
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to source store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	maxConns := cfg.MaxConns
	if maxConns < 1 {
		maxConns = 4
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return &Adapter{db: db, queryTimeout: cfg.QueryTimeout}, nil
}

// Name returns the stable source identifier.
func (a *Adapter) Name() string {
	return "source-postgres"
}

// FetchAll runs the single extraction query and returns the deduplicated
// posting set.
// Parameters:
//   - ctx: context for cancellation; the configured query timeout is
//     applied on top.
// Returns:
//   - []domain.RawJob: deduplicated snapshot, ordered by id.
//   - error: non-nil if the query or a row scan fails.
func (a *Adapter) FetchAll(ctx context.Context) ([]domain.RawJob, error) {
	if a.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.queryTimeout)
		defer cancel()
	}

	rows, err := a.db.WithContext(ctx).Raw(extractQuery).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query source store: %w", err)
	}
	defer rows.Close()

	var records []domain.RawJob
	for rows.Next() {
		var (
			rec                                  domain.RawJob
			description, labels, agencyShort     sql.NullString
			department, station, country, grade  sql.NullString
			postedAt, applyUntil, url            sql.NullString
			applyURL, languages                  sql.NullString
			archived                             interface{}
		)
		if err := rows.Scan(
			&rec.ID, &rec.Title, &description, &labels, &rec.Agency,
			&agencyShort, &department, &station, &country, &grade,
			&postedAt, &applyUntil, &archived, &url, &applyURL, &languages,
		); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		rec.Description = description.String
		rec.Labels = labels.String
		rec.AgencyShort = agencyShort.String
		rec.Department = department.String
		rec.DutyStation = station.String
		rec.DutyCountry = country.String
		rec.Grade = grade.String
		rec.PostedAt = postedAt.String
		rec.ApplyUntil = applyUntil.String
		rec.URL = url.String
		rec.ApplyURL = applyURL.String
		rec.Languages = languages.String
		rec.Archived = normalizeRawValue(archived)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source rows: %w", err)
	}

	return source.Deduplicate(records), nil
}

// normalizeRawValue unwraps driver byte slices so the archived indicator
// reaches the enricher as a comparable scalar. The type itself stays
// whatever the upstream column held.
func normalizeRawValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
