package domain

import "time"

// JobStatus represents the lifecycle state of a posting.
// Values include JobStatusActive, JobStatusClosingSoon, JobStatusExpired,
// and JobStatusArchived.
type JobStatus string

const (
	JobStatusActive      JobStatus = "active"
	JobStatusClosingSoon JobStatus = "closing_soon"
	JobStatusExpired     JobStatus = "expired"
	JobStatusArchived    JobStatus = "archived"
)

// JobUrgency expresses how soon a posting closes relative to now.
type JobUrgency string

const (
	UrgencyUrgent   JobUrgency = "urgent"
	UrgencyNormal   JobUrgency = "normal"
	UrgencyExtended JobUrgency = "extended"
)

// LocationType categorizes the duty station of a posting.
type LocationType string

const (
	LocationHQ     LocationType = "HQ"
	LocationField  LocationType = "Field"
	LocationRemote LocationType = "Remote"
)

// Job represents one enriched posting in the local store.
// It is the RawJob plus everything the enricher and classifier derive.
// The whole jobs table is recreated on every sync; the only mutation path
// outside a sync run is a user category correction.
type Job struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"type:text;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Labels      string `gorm:"type:text" json:"labels"`
	Agency      string `gorm:"type:text;index:idx_jobs_agency" json:"agency"`
	AgencyShort string `gorm:"type:text" json:"agency_short"`
	Department  string `gorm:"type:text" json:"department"`
	DutyStation string `gorm:"type:text" json:"duty_station"`
	DutyCountry string `gorm:"type:text;index:idx_jobs_country" json:"duty_country"`
	Grade       string `gorm:"type:text;index:idx_jobs_grade" json:"grade"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	ApplyUntil  *time.Time `json:"apply_until,omitempty"`
	URL         string `gorm:"type:text;index:idx_jobs_url,unique,where:url <> ''" json:"url"`
	ApplyURL    string `gorm:"type:text" json:"apply_url"`
	Languages   string `gorm:"type:text" json:"languages"`
	Archived    bool   `gorm:"index:idx_jobs_archived" json:"archived"`

	// Classification output. Exactly one primary category.
	PrimaryCategory          string      `gorm:"type:text;not null;index:idx_jobs_category" json:"primary_category"`
	SecondaryCategories      StringArray `gorm:"type:text" json:"secondary_categories"`
	ClassificationConfidence int         `json:"classification_confidence"`
	ClassificationReasoning  StringArray `gorm:"type:text" json:"classification_reasoning"`

	// Enrichment output.
	SeniorityLevel         string       `gorm:"type:text" json:"seniority_level"`
	LocationType           LocationType `gorm:"type:text" json:"location_type"`
	SkillDomains           StringArray  `gorm:"type:text" json:"skill_domains"`
	Status                 JobStatus    `gorm:"type:text;index:idx_jobs_status" json:"status"`
	Urgency                JobUrgency   `gorm:"type:text" json:"urgency"`
	DaysRemaining          int          `json:"days_remaining"`
	ApplicationWindowDays  int          `json:"application_window_days"`

	// User correction audit trail. Set only by the correction endpoint.
	UserCorrected bool       `gorm:"default:false" json:"user_corrected"`
	CorrectedBy   string     `gorm:"type:text" json:"corrected_by,omitempty"`
	CorrectedAt   *time.Time `json:"corrected_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Job.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Job) TableName() string {
	return "jobs"
}
