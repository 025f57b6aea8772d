package analytics

import "time"

// Cache keys for the seven precomputed views.
const (
	KeyOverview    = "analytics:overview"
	KeyCategories  = "analytics:categories"
	KeyAgencies    = "analytics:agencies"
	KeyTemporal    = "analytics:temporal"
	KeyWorkforce   = "analytics:workforce"
	KeySkills      = "analytics:skills"
	KeyCompetitive = "analytics:competitive"
)

// OverviewView is the headline dashboard aggregate.
type OverviewView struct {
	TotalJobs     int64     `json:"total_jobs"`
	ActiveJobs    int64     `json:"active_jobs"`
	ClosingSoon   int64     `json:"closing_soon"`
	Expired       int64     `json:"expired"`
	Archived      int64     `json:"archived"`
	UrgentJobs    int64     `json:"urgent_jobs"`
	RemoteJobs    int64     `json:"remote_jobs"`
	AgencyCount   int64     `json:"agency_count"`
	AvgConfidence float64   `json:"avg_confidence"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// CategoryStat is one row of the category breakdown.
type CategoryStat struct {
	Category      string  `json:"category"`
	Count         int64   `json:"count"`
	ActiveCount   int64   `json:"active_count"`
	AvgConfidence float64 `json:"avg_confidence"`
	Share         float64 `json:"share"` // fraction of all jobs, 0-1
}

// CategoriesView is the per-category breakdown.
type CategoriesView struct {
	Categories  []CategoryStat `json:"categories"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// AgencyStat is one row of the agency breakdown.
type AgencyStat struct {
	Agency        string  `json:"agency"`
	Count         int64   `json:"count"`
	ActiveCount   int64   `json:"active_count"`
	AvgWindowDays float64 `json:"avg_window_days"`
}

// AgenciesView is the per-agency breakdown.
type AgenciesView struct {
	Agencies    []AgencyStat `json:"agencies"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// TemporalBucket is one month of posting or deadline volume.
type TemporalBucket struct {
	Month     string `json:"month"` // YYYY-MM
	Posted    int64  `json:"posted"`
	Deadlines int64  `json:"deadlines"`
}

// TemporalView is the posting/deadline trend over time.
type TemporalView struct {
	Buckets     []TemporalBucket `json:"buckets"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// CountStat is a generic labeled count.
type CountStat struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// WorkforceView is the composition of the posting set by seniority,
// location type, and grade.
type WorkforceView struct {
	BySeniority []CountStat `json:"by_seniority"`
	ByLocation  []CountStat `json:"by_location"`
	ByGrade     []CountStat `json:"by_grade"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// SkillsView is the frequency of the four skill domains across the
// posting set.
type SkillsView struct {
	Domains     []CountStat `json:"domains"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// CompetitiveStat positions one category by how quickly its postings
// close.
type CompetitiveStat struct {
	Category      string  `json:"category"`
	Count         int64   `json:"count"`
	AvgWindowDays float64 `json:"avg_window_days"`
	AvgDaysLeft   float64 `json:"avg_days_left"`
	UrgentShare   float64 `json:"urgent_share"` // fraction of rows, 0-1
}

// CompetitiveView ranks categories by application pressure.
type CompetitiveView struct {
	Categories  []CompetitiveStat `json:"categories"`
	GeneratedAt time.Time         `json:"generated_at"`
}
