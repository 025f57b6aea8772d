package domain

// RawJob is one posting row as extracted from the source store.
// It is an immutable snapshot for a single sync run and is never persisted
// past enrichment.
//
// Archived carries the upstream archived indicator verbatim. The source
// encodes it inconsistently (bool, 0/1, "0"/"1" depending on origin), so it
// stays an interface{} here and is normalized exactly once at the enrichment
// boundary.
type RawJob struct {
	ID          int64
	Title       string
	Description string
	Labels      string
	Agency      string
	AgencyShort string
	Department  string
	DutyStation string
	DutyCountry string
	Grade       string
	PostedAt    string // raw date string, may be empty or unparseable
	ApplyUntil  string
	URL         string
	ApplyURL    string
	Languages   string
	Archived    interface{}
}
