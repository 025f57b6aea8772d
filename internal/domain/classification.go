package domain

// SecondaryMatch is a runner-up category with its score.
type SecondaryMatch struct {
	Category   string `json:"category"`
	Confidence int    `json:"confidence"`
}

// ClassificationFlags carries quality signals about a classification.
type ClassificationFlags struct {
	LowConfidence bool     `json:"low_confidence"`
	Ambiguous     bool     `json:"ambiguous"`
	EmergingTerms []string `json:"emerging_terms,omitempty"`
}

// ClassificationResult is the output of the classification engine for one
// posting. Produced once per record per sync run and never mutated afterward
// except by an explicit user correction, which overwrites the stored fields
// directly.
type ClassificationResult struct {
	Primary    string              `json:"primary"`
	Confidence int                 `json:"confidence"` // 0-100
	Secondary  []SecondaryMatch    `json:"secondary"`  // at most two
	Reasoning  []string            `json:"reasoning"`
	Flags      ClassificationFlags `json:"flags"`
}
