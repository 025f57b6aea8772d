// Package classifier implements the deterministic keyword rule engine that
// assigns every posting to one of a fixed set of functional categories.
//
// The engine is a pure function over its inputs: no I/O, no hidden state,
// and the same input always yields the same result. The scoring formula is
// the dictionary scorer (core 40x + 20 title bonus, support 20x, pair +25);
// see DESIGN.md for the formula decision.
package classifier

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/unjobhub/backend/internal/domain"
)

const (
	coreWeight      = 40
	coreTitleBonus  = 20
	supportWeight   = 20
	pairBonus       = 25
	overrideScore   = 95
	fallbackScore   = 25
	secondaryFloor  = 30
	lowConfidence   = 40
	ambiguousFloor  = 60
	maxSecondary    = 2
	maxEmergingTerm = 5
)

// Engine classifies postings against an immutable taxonomy. Construct once
// and share freely; Classify is safe for concurrent use.
type Engine struct {
	taxonomy *Taxonomy
	// dictWords holds every individual word appearing in any dictionary
	// keyword, used to exclude known vocabulary from emerging-term detection.
	dictWords map[string]bool
}

// NewEngine creates a classification engine for the given taxonomy.
// Parameters:
//   - taxonomy: ordered category dictionary; nil uses DefaultTaxonomy.
// Returns:
//   - *Engine: engine ready for classification.
func NewEngine(taxonomy *Taxonomy) *Engine {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	words := make(map[string]bool)
	for _, cat := range taxonomy.Categories {
		for _, kw := range cat.Core {
			for _, w := range strings.Fields(kw) {
				words[w] = true
			}
		}
		for _, kw := range cat.Support {
			for _, w := range strings.Fields(kw) {
				words[w] = true
			}
		}
		for _, pair := range cat.Pairs {
			words[pair[0]] = true
			words[pair[1]] = true
		}
	}
	return &Engine{taxonomy: taxonomy, dictWords: words}
}

// Classify maps a posting's text and grade fields to a category.
// Grade is authoritative when present: a qualifying grade forces
// leadership-executive, and a present but non-qualifying grade suppresses
// the title override. Any internal failure yields the fixed fallback
// result; this method never panics.
// Parameters:
//   - title: posting title.
//   - description: posting body text.
//   - labels: free-text label/tag field.
//   - grade: formal grade code, may be empty.
// Returns:
//   - domain.ClassificationResult: deterministic classification.
func (e *Engine) Classify(title, description, labels, grade string) (result domain.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = fallbackResult(fmt.Sprintf("internal error: %v", r))
		}
	}()

	grade = strings.TrimSpace(grade)
	if grade != "" {
		if qualifiesLeadership(grade) {
			return domain.ClassificationResult{
				Primary:    LeadershipCategoryID,
				Confidence: overrideScore,
				Reasoning:  []string{fmt.Sprintf("grade %q is a senior leadership grade", grade)},
			}
		}
		// Grade present but non-qualifying: fall through to scoring with
		// the title override suppressed.
	} else if phrase := matchLeadershipTitle(title); phrase != "" {
		return domain.ClassificationResult{
			Primary:    LeadershipCategoryID,
			Confidence: overrideScore,
			Reasoning:  []string{fmt.Sprintf("title contains leadership phrase %q", phrase)},
		}
	}

	titleLower := strings.ToLower(title)
	combined := titleLower + " " + strings.ToLower(description) + " " + strings.ToLower(labels)

	type scored struct {
		index     int
		score     int
		reasoning []string
	}
	results := make([]scored, 0, len(e.taxonomy.Categories))
	for i, cat := range e.taxonomy.Categories {
		score, reasoning := scoreCategory(&cat, titleLower, combined)
		results = append(results, scored{index: i, score: score, reasoning: reasoning})
	}

	// Declaration order breaks ties: stable sort keeps the first-declared
	// category ahead of any later one with an equal score.
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].score > results[b].score
	})

	top := results[0]
	primary := e.taxonomy.Categories[top.index]

	result = domain.ClassificationResult{
		Primary:    primary.ID,
		Confidence: top.score,
		Reasoning:  top.reasoning,
	}
	if len(result.Reasoning) == 0 {
		result.Reasoning = []string{"no dictionary keywords matched; defaulted to first-declared category"}
	}

	for _, runner := range results[1 : 1+min(maxSecondary, len(results)-1)] {
		if runner.score > secondaryFloor {
			result.Secondary = append(result.Secondary, domain.SecondaryMatch{
				Category:   e.taxonomy.Categories[runner.index].ID,
				Confidence: runner.score,
			})
		}
	}

	result.Flags.LowConfidence = top.score < lowConfidence
	if len(results) > 1 {
		result.Flags.Ambiguous = results[1].score > ambiguousFloor
	}
	result.Flags.EmergingTerms = e.emergingTerms(combined)

	return result
}

// scoreCategory computes the dictionary score for one category against the
// combined lowercased text, returning the score and the matched-keyword
// reasoning in match order.
func scoreCategory(cat *Category, titleLower, combined string) (int, []string) {
	score := 0
	var reasoning []string

	var coreHits, titleHits []string
	for _, kw := range cat.Core {
		n := strings.Count(combined, kw)
		if n == 0 {
			continue
		}
		score += coreWeight * n
		coreHits = append(coreHits, kw)
		if strings.Contains(titleLower, kw) {
			score += coreTitleBonus
			titleHits = append(titleHits, kw)
		}
	}
	if len(coreHits) > 0 {
		reasoning = append(reasoning, fmt.Sprintf("core keywords: %s", strings.Join(coreHits, ", ")))
	}
	if len(titleHits) > 0 {
		reasoning = append(reasoning, fmt.Sprintf("title keywords: %s", strings.Join(titleHits, ", ")))
	}

	var supportHits []string
	for _, kw := range cat.Support {
		n := strings.Count(combined, kw)
		if n == 0 {
			continue
		}
		score += supportWeight * n
		supportHits = append(supportHits, kw)
	}
	if len(supportHits) > 0 {
		reasoning = append(reasoning, fmt.Sprintf("support keywords: %s", strings.Join(supportHits, ", ")))
	}

	for _, pair := range cat.Pairs {
		if strings.Contains(combined, pair[0]) && strings.Contains(combined, pair[1]) {
			score += pairBonus
			reasoning = append(reasoning, fmt.Sprintf("keyword pair: %s + %s", pair[0], pair[1]))
		}
	}

	if score > 100 {
		score = 100
	}
	return score, reasoning
}

var gradeSeparators = strings.NewReplacer("-", "", "_", "", ".", "", " ", "", "/", "")

// contractGradePattern matches PSA/NPSA/IPSA grades with a numeric level,
// after separator stripping (e.g. "NPSA-11" -> "NPSA11").
var contractGradePattern = regexp.MustCompile(`^(?:N|I)?PSA(\d{1,2})$`)

// qualifiesLeadership reports whether a grade code is on the leadership
// allow-list: D1/D2, ASG/USG/SG/DSG, P5-P7, PSA/NPSA/IPSA level 10 and up,
// and national officer D.
func qualifiesLeadership(grade string) bool {
	norm := gradeSeparators.Replace(strings.ToUpper(grade))
	if leadershipGrades[norm] {
		return true
	}
	if m := contractGradePattern.FindStringSubmatch(norm); m != nil {
		level, err := strconv.Atoi(m[1])
		return err == nil && level >= 10
	}
	return false
}

// matchLeadershipTitle returns the first matching leadership title phrase,
// or "" when none matches.
func matchLeadershipTitle(title string) string {
	lower := strings.ToLower(title)
	for _, phrase := range leadershipTitles {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}

var wordPattern = regexp.MustCompile(`[a-z]+`)

// emergingTerms lists frequently repeated words (longer than 3 characters,
// not stop-words) absent from the dictionary vocabulary, capped at 5 and
// ordered by frequency then alphabetically for determinism.
func (e *Engine) emergingTerms(combined string) []string {
	counts := make(map[string]int)
	for _, w := range wordPattern.FindAllString(combined, -1) {
		if len(w) <= 3 || stopWords[w] || e.dictWords[w] {
			continue
		}
		counts[w]++
	}

	terms := make([]string, 0, len(counts))
	for w, n := range counts {
		if n >= 2 {
			terms = append(terms, w)
		}
	}
	sort.Slice(terms, func(a, b int) bool {
		if counts[terms[a]] != counts[terms[b]] {
			return counts[terms[a]] > counts[terms[b]]
		}
		return terms[a] < terms[b]
	})
	if len(terms) > maxEmergingTerm {
		terms = terms[:maxEmergingTerm]
	}
	if len(terms) == 0 {
		return nil
	}
	return terms
}

// fallbackResult is the fixed result returned when classification fails
// internally.
func fallbackResult(reason string) domain.ClassificationResult {
	return domain.ClassificationResult{
		Primary:    FallbackCategoryID,
		Confidence: fallbackScore,
		Reasoning:  []string{"classification fell back to default category: " + reason},
		Flags:      domain.ClassificationFlags{LowConfidence: true},
	}
}
