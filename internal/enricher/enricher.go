// Package enricher derives the presentation fields of a posting (status,
// urgency, application window, location type, skill domains, seniority,
// normalized agency) from the raw source fields plus the classification
// output. All functions are pure.
package enricher

import (
	"math"
	"strings"
	"time"

	"github.com/unjobhub/backend/internal/domain"
)

const (
	closingSoonDays    = 3
	normalUrgencyDays  = 30
	dateLayout         = "2006-01-02"
	dateTimeLayout     = "2006-01-02 15:04:05"
	dateTimeRFCLayout  = time.RFC3339
)

// hqLocations maps lowercased country and station names that count as
// headquarters duty stations.
var hqLocations = map[string]bool{
	"united states": true, "usa": true, "switzerland": true, "austria": true,
	"italy": true, "denmark": true, "kenya": true, "netherlands": true,
	"france": true, "germany": true,
	"new york": true, "geneva": true, "vienna": true, "nairobi": true,
	"rome": true, "copenhagen": true, "the hague": true, "paris": true,
	"bonn": true,
}

// skillDomains holds the four fixed skill domains and their trigger
// keywords, matched against the label text. Domains are not mutually
// exclusive.
var skillDomains = []struct {
	name     string
	keywords []string
}{
	{"Technical", []string{"data", "software", "engineer", "digital", "ict", "systems",
		"analysis", "technology", "statistics"}},
	{"Management", []string{"manage", "coordination", "programme", "project", "lead",
		"planning", "supervision"}},
	{"Communication", []string{"communication", "advocacy", "media", "report", "outreach",
		"liaison", "partnership"}},
	{"Operational", []string{"operations", "logistics", "procurement", "supply", "admin",
		"finance", "security", "travel"}},
}

// secretariatEntities are the UN Secretariat offices, commissions and
// tribunals whose department keyword rewrites the effective agency. First
// matching entity in declaration order wins.
var secretariatEntities = []struct {
	short    string
	keywords []string
}{
	{"OCHA", []string{"coordination of humanitarian affairs", "ocha"}},
	{"OHCHR", []string{"human rights", "ohchr"}},
	{"UNODC", []string{"drugs and crime", "unodc"}},
	{"UNEP", []string{"environment programme", "unep"}},
	{"UN-Habitat", []string{"human settlements", "habitat"}},
	{"ECA", []string{"economic commission for africa"}},
	{"ECE", []string{"economic commission for europe"}},
	{"ECLAC", []string{"economic commission for latin america"}},
	{"ESCAP", []string{"economic and social commission for asia"}},
	{"ESCWA", []string{"economic and social commission for western asia"}},
	{"ICJ", []string{"international court of justice"}},
	{"IRMCT", []string{"residual mechanism", "tribunal"}},
}

// Enrich derives an enriched Job from a raw source record and its
// classification. now is injected so derivations are reproducible in tests.
// Parameters:
//   - raw: source record snapshot.
//   - cls: classification output for the record.
//   - now: reference instant for date derivations.
// Returns:
//   - domain.Job: fully derived posting.
//   - bool: true when the archived indicator had a defective encoding.
func Enrich(raw domain.RawJob, cls domain.ClassificationResult, now time.Time) (domain.Job, bool) {
	archived, defect := NormalizeArchived(raw.Archived)
	postedAt := parseDate(raw.PostedAt)
	applyUntil := parseDate(raw.ApplyUntil)

	daysRemaining := ceilDays(now, applyUntil)
	windowDays := applicationWindow(postedAt, applyUntil)

	secondary := make(domain.StringArray, 0, len(cls.Secondary))
	for _, sec := range cls.Secondary {
		secondary = append(secondary, sec.Category)
	}

	job := domain.Job{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		Labels:      raw.Labels,
		Agency:      normalizeAgency(raw.Agency, raw.Department),
		AgencyShort: raw.AgencyShort,
		Department:  raw.Department,
		DutyStation: raw.DutyStation,
		DutyCountry: raw.DutyCountry,
		Grade:       raw.Grade,
		PostedAt:    postedAt,
		ApplyUntil:  applyUntil,
		URL:         raw.URL,
		ApplyURL:    raw.ApplyURL,
		Languages:   raw.Languages,
		Archived:    archived,

		PrimaryCategory:          cls.Primary,
		SecondaryCategories:      secondary,
		ClassificationConfidence: cls.Confidence,
		ClassificationReasoning:  domain.StringArray(cls.Reasoning),

		SeniorityLevel:        seniorityLevel(raw.Grade),
		LocationType:          locationType(raw.DutyStation, raw.DutyCountry),
		SkillDomains:          deriveSkillDomains(raw.Labels),
		Status:                deriveStatus(archived, applyUntil, daysRemaining),
		Urgency:               deriveUrgency(daysRemaining),
		DaysRemaining:         daysRemaining,
		ApplicationWindowDays: windowDays,
	}
	return job, defect
}

// NormalizeArchived collapses the upstream archived indicator to a single
// boolean. Recognized encodings are bool, integers, and the strings
// "0"/"1"/"true"/"false". Anything else is a data-quality defect: the value
// maps to false and the second return reports the defect so the caller can
// log it.
// Parameters:
//   - value: raw archived indicator from the source row.
// Returns:
//   - bool: normalized archived flag.
//   - bool: true when the encoding was not recognized.
func NormalizeArchived(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, false
	case int:
		return v != 0, false
	case int32:
		return v != 0, false
	case int64:
		return v != 0, false
	case float64:
		return v != 0, false
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t":
			return true, false
		case "0", "false", "f", "":
			return false, false
		}
		return false, true
	default:
		return false, true
	}
}

// ceilDays returns the number of whole days from now until deadline,
// rounded up. Negative when the deadline has passed; 0 when the deadline
// is missing.
func ceilDays(now time.Time, deadline *time.Time) int {
	if deadline == nil {
		return 0
	}
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

// applicationWindow returns ceil(deadline - posted) in days, or 0 if either
// date is missing.
func applicationWindow(posted, deadline *time.Time) int {
	if posted == nil || deadline == nil {
		return 0
	}
	days := int(math.Ceil(deadline.Sub(*posted).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// deriveStatus applies the status ladder: the source archived flag wins,
// then expiry, then the closing-soon window.
func deriveStatus(archived bool, deadline *time.Time, daysRemaining int) domain.JobStatus {
	if archived {
		return domain.JobStatusArchived
	}
	if deadline == nil {
		return domain.JobStatusActive
	}
	if daysRemaining < 0 {
		return domain.JobStatusExpired
	}
	if daysRemaining <= closingSoonDays {
		return domain.JobStatusClosingSoon
	}
	return domain.JobStatusActive
}

// deriveUrgency buckets a posting by days remaining. The urgent band
// mirrors the closing-soon window; see DESIGN.md for the boundary decision.
func deriveUrgency(daysRemaining int) domain.JobUrgency {
	if daysRemaining <= closingSoonDays {
		return domain.UrgencyUrgent
	}
	if daysRemaining <= normalUrgencyDays {
		return domain.UrgencyNormal
	}
	return domain.UrgencyExtended
}

// locationType categorizes the duty station: remote markers first, then the
// fixed HQ location list, otherwise field.
func locationType(station, country string) domain.LocationType {
	stationLower := strings.ToLower(station)
	if strings.Contains(stationLower, "home") || strings.Contains(stationLower, "remote") {
		return domain.LocationRemote
	}
	if hqLocations[strings.ToLower(strings.TrimSpace(country))] || hqLocations[strings.TrimSpace(stationLower)] {
		return domain.LocationHQ
	}
	return domain.LocationField
}

// deriveSkillDomains returns the fixed domains whose keyword sets appear in
// the label text, in declaration order.
func deriveSkillDomains(labels string) domain.StringArray {
	lower := strings.ToLower(labels)
	domains := make(domain.StringArray, 0, len(skillDomains))
	for _, sd := range skillDomains {
		for _, kw := range sd.keywords {
			if strings.Contains(lower, kw) {
				domains = append(domains, sd.name)
				break
			}
		}
	}
	return domains
}

// seniorityLevel maps a grade code to a coarse seniority band.
func seniorityLevel(grade string) string {
	norm := strings.ToUpper(strings.TrimSpace(grade))
	norm = strings.NewReplacer("-", "", " ", "", ".", "").Replace(norm)
	switch {
	case norm == "":
		return "unspecified"
	case strings.HasPrefix(norm, "USG"), strings.HasPrefix(norm, "ASG"),
		strings.HasPrefix(norm, "DSG"), norm == "SG",
		strings.HasPrefix(norm, "D"):
		return "executive"
	case norm == "P5" || norm == "P6" || norm == "P7":
		return "senior"
	case norm == "P3" || norm == "P4":
		return "mid"
	case norm == "P1" || norm == "P2":
		return "entry"
	case strings.HasPrefix(norm, "NO"):
		return "national"
	case strings.HasPrefix(norm, "G"):
		return "support"
	case strings.HasPrefix(norm, "NPSA"), strings.HasPrefix(norm, "IPSA"),
		strings.HasPrefix(norm, "PSA"):
		return "contract"
	default:
		return "other"
	}
}

// normalizeAgency rewrites "UN Secretariat" postings to the concrete
// office, commission or tribunal implied by the department text. The first
// matching entity in the fixed priority order wins.
func normalizeAgency(agency, department string) string {
	if !strings.EqualFold(strings.TrimSpace(agency), "UN Secretariat") {
		return agency
	}
	deptLower := strings.ToLower(department)
	for _, entity := range secretariatEntities {
		for _, kw := range entity.keywords {
			if strings.Contains(deptLower, kw) {
				return entity.short
			}
		}
	}
	return agency
}

// parseDate parses the loosely formatted date strings the source emits.
// Returns nil for empty or unparseable values.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{dateTimeRFCLayout, dateTimeLayout, dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
