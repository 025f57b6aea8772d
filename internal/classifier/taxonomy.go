package classifier

// Category is one entry in the classification dictionary. Core keywords
// weigh 40 per occurrence (plus 20 when found in the title), support
// keywords weigh 20 per occurrence, and each pair whose both words occur
// anywhere in the combined text adds 25. Scores are clamped to [0,100].
type Category struct {
	ID      string
	Name    string
	Core    []string
	Support []string
	Pairs   [][2]string
}

// Taxonomy is an immutable, ordered category dictionary. Declaration order
// is the tie-break for equal scores: the first-declared category wins. The
// last category is the fallback used when classification fails internally.
type Taxonomy struct {
	Categories []Category
}

// FallbackCategoryID is the category assigned when the engine hits an
// internal error. Classification never raises to the caller.
const FallbackCategoryID = "operations-administration"

// LeadershipCategoryID is the category forced by the grade and title
// overrides.
const LeadershipCategoryID = "leadership-executive"

// DefaultTaxonomy returns the built-in category dictionary.
// Parameters: none.
// Returns:
//   - *Taxonomy: the fixed ordered dictionary used in production.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{Categories: []Category{
		{
			ID:   "leadership-executive",
			Name: "Leadership & Executive",
			Core: []string{"director", "chief", "head of office", "representative", "executive"},
			Support: []string{"strategy", "strategic", "oversight", "governance", "vision",
				"leadership", "senior management"},
			Pairs: [][2]string{{"senior", "leadership"}, {"executive", "management"}},
		},
		{
			ID:   "programme-management",
			Name: "Programme & Project Management",
			Core: []string{"programme", "program officer", "project manager", "project management",
				"portfolio"},
			Support: []string{"implementation", "workplan", "budget", "stakeholder", "donor",
				"coordination", "results-based", "planning"},
			Pairs: [][2]string{{"programme", "implementation"}, {"project", "coordination"},
				{"donor", "reporting"}},
		},
		{
			ID:   "ict-digital",
			Name: "ICT & Digital",
			Core: []string{"information technology", "software", "developer", "ict", "digital",
				"cybersecurity", "information security", "infrastructure engineer"},
			Support: []string{"cloud", "network", "database", "devops", "agile", "api",
				"platform", "systems"},
			Pairs: [][2]string{{"software", "development"}, {"information", "security"},
				{"digital", "transformation"}},
		},
		{
			ID:   "data-analytics",
			Name: "Data & Analytics",
			Core: []string{"data scientist", "data analyst", "statistician", "statistics",
				"data analysis", "analytics"},
			Support: []string{"data", "indicators", "survey", "visualization", "modelling",
				"census", "evidence"},
			Pairs: [][2]string{{"data", "analysis"}, {"statistical", "reporting"}},
		},
		{
			ID:   "finance-audit",
			Name: "Finance & Audit",
			Core: []string{"finance", "accountant", "audit", "treasury", "financial management"},
			Support: []string{"budget", "accounting", "ipsas", "payments", "compliance",
				"reconciliation", "payroll"},
			Pairs: [][2]string{{"financial", "reporting"}, {"internal", "audit"}},
		},
		{
			ID:   "human-resources",
			Name: "Human Resources",
			Core: []string{"human resources", "talent", "recruitment", "hr officer"},
			Support: []string{"staffing", "onboarding", "entitlements", "learning",
				"performance management", "workforce"},
			Pairs: [][2]string{{"talent", "acquisition"}, {"staff", "development"}},
		},
		{
			ID:   "communications-advocacy",
			Name: "Communications & Advocacy",
			Core: []string{"communications", "advocacy", "public information", "spokesperson",
				"media relations"},
			Support: []string{"media", "campaign", "outreach", "social media", "messaging",
				"publications", "storytelling"},
			Pairs: [][2]string{{"digital", "campaign"}, {"public", "engagement"}},
		},
		{
			ID:   "legal-compliance",
			Name: "Legal & Compliance",
			Core: []string{"legal officer", "legal affairs", "lawyer", "counsel", "rule of law"},
			Support: []string{"legal", "treaty", "litigation", "contracts", "ethics",
				"investigations", "justice"},
			Pairs: [][2]string{{"legal", "advice"}, {"human", "rights"}},
		},
		{
			ID:   "health-medical",
			Name: "Health & Medical",
			Core: []string{"health", "medical officer", "epidemiologist", "nurse", "physician",
				"public health"},
			Support: []string{"clinical", "nutrition", "immunization", "hiv", "maternal",
				"disease", "pharmaceutical"},
			Pairs: [][2]string{{"health", "systems"}, {"disease", "surveillance"}},
		},
		{
			ID:   "supply-logistics",
			Name: "Supply Chain & Logistics",
			Core: []string{"logistics", "supply chain", "procurement", "warehouse", "fleet"},
			Support: []string{"shipping", "customs", "inventory", "sourcing", "vendor",
				"transport", "distribution"},
			Pairs: [][2]string{{"supply", "chain"}, {"procurement", "contracts"}},
		},
		{
			ID:   "emergency-humanitarian",
			Name: "Emergency & Humanitarian",
			Core: []string{"humanitarian", "emergency", "crisis", "relief", "refugee"},
			Support: []string{"displacement", "preparedness", "response", "protection",
				"resilience", "shelter", "cash assistance"},
			Pairs: [][2]string{{"emergency", "response"}, {"humanitarian", "coordination"}},
		},
		{
			ID:   "operations-administration",
			Name: "Operations & Administration",
			Core: []string{"administration", "administrative", "operations", "office management"},
			Support: []string{"travel", "assets", "facilities", "protocol", "registry",
				"support services", "secretarial"},
			Pairs: [][2]string{{"administrative", "support"}, {"office", "operations"}},
		},
	}}
}

// leadershipGrades is the fixed allow-list of grade codes that
// short-circuit classification to leadership-executive. Grade strings are
// normalized (uppercased, separators stripped) before matching.
var leadershipGrades = map[string]bool{
	"D1": true, "D2": true,
	"ASG": true, "USG": true, "SG": true, "DSG": true,
	"P5": true, "P6": true, "P7": true,
	"NOD": true,
}

// leadershipTitles are the title phrases that force leadership-executive
// when, and only when, the grade field is empty. Matched case-insensitively
// as substrings.
var leadershipTitles = []string{
	"resident coordinator",
	"special representative",
	"special envoy",
	"under-secretary-general",
	"assistant secretary-general",
	"executive director",
	"deputy executive director",
	"regional director",
	"country director",
	"chief of staff",
	"head of mission",
	"director",
}

// stopWords are excluded from emerging-term detection.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "will": true,
	"that": true, "this": true, "from": true, "have": true, "are": true,
	"work": true, "under": true, "within": true, "their": true, "other": true,
	"include": true, "including": true, "required": true, "experience": true,
	"years": true, "must": true, "able": true, "team": true, "duties": true,
	"responsibilities": true, "position": true, "post": true, "nations": true,
	"united": true, "staff": true, "level": true, "candidate": true,
	"candidates": true, "applications": true, "relevant": true, "related": true,
	"skills": true, "knowledge": true, "ability": true, "such": true,
	"well": true, "also": true, "least": true, "should": true, "would": true,
}
