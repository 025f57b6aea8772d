package classifier

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDeterminism(t *testing.T) {
	engine := NewEngine(nil)

	title := "Programme Officer, Climate Resilience"
	description := "Coordinates programme implementation, donor reporting and stakeholder engagement " +
		"across regional offices. Supports workplan and budget preparation."
	labels := "programme, coordination, climate"

	first := engine.Classify(title, description, labels, "P3")
	for i := 0; i < 5; i++ {
		again := engine.Classify(title, description, labels, "P3")
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("classification not deterministic: run %d differs\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestClassifyGradeAuthority(t *testing.T) {
	engine := NewEngine(nil)

	testCases := []struct {
		name       string
		title      string
		grade      string
		wantCat    string
		wantConf   int
		overridden bool
	}{
		{
			name:       "qualifying grade wins regardless of text",
			title:      "Procurement Assistant",
			grade:      "D1",
			wantCat:    LeadershipCategoryID,
			wantConf:   95,
			overridden: true,
		},
		{
			name:       "hyphenated grade is normalized",
			title:      "Chief Information Security Officer",
			grade:      "D-1",
			wantCat:    LeadershipCategoryID,
			wantConf:   95,
			overridden: true,
		},
		{
			name:       "NPSA level 10 and up qualifies",
			title:      "Operations Analyst",
			grade:      "NPSA-11",
			wantCat:    LeadershipCategoryID,
			wantConf:   95,
			overridden: true,
		},
		{
			name:  "present non-qualifying grade suppresses title override",
			title: "Director of Field Operations",
			grade: "P3",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := engine.Classify(tc.title, "", "", tc.grade)
			if tc.overridden {
				assert.Equal(t, tc.wantCat, result.Primary)
				assert.Equal(t, tc.wantConf, result.Confidence)
			} else {
				// Title contains "Director" but grade P3 is authoritative,
				// so no 95-confidence leadership override may fire.
				assert.NotEqual(t, 95, result.Confidence)
			}
		})
	}
}

func TestClassifyTitleOverrideOnEmptyGrade(t *testing.T) {
	engine := NewEngine(nil)

	result := engine.Classify("Resident Coordinator, Kenya", "", "", "")

	assert.Equal(t, LeadershipCategoryID, result.Primary)
	assert.Equal(t, 95, result.Confidence)
	require.NotEmpty(t, result.Reasoning)
	assert.Contains(t, result.Reasoning[0], "resident coordinator")
}

func TestClassifyNonQualifyingGrades(t *testing.T) {
	for _, grade := range []string{"P4", "NPSA-9", "IPSA 8", "G5", "NO-B"} {
		if qualifiesLeadership(grade) {
			t.Errorf("grade %q should not qualify for leadership", grade)
		}
	}
	for _, grade := range []string{"D2", "USG", "p5", "IPSA-12", "NO-D", "PSA 10"} {
		if !qualifiesLeadership(grade) {
			t.Errorf("grade %q should qualify for leadership", grade)
		}
	}
}

func TestClassifyDictionaryScoring(t *testing.T) {
	engine := NewEngine(nil)

	result := engine.Classify(
		"Software Developer, Digital Platforms",
		"Designs and maintains software for the digital platform. Works with cloud infrastructure, "+
			"database systems and devops pipelines following agile practice.",
		"ict, software",
		"P2",
	)

	assert.Equal(t, "ict-digital", result.Primary)
	assert.False(t, result.Flags.LowConfidence)
	require.NotEmpty(t, result.Reasoning)
	assert.True(t, strings.HasPrefix(result.Reasoning[0], "core keywords:"), "got %q", result.Reasoning[0])
}

func TestClassifySecondaryCategories(t *testing.T) {
	engine := NewEngine(nil)

	result := engine.Classify(
		"Health Programme Officer",
		"Manages the public health programme, including programme implementation, donor coordination "+
			"and health systems strengthening with disease surveillance components.",
		"health, programme",
		"P4",
	)

	require.NotEmpty(t, result.Secondary, "expected runner-up categories above the floor")
	assert.LessOrEqual(t, len(result.Secondary), 2)
	for _, sec := range result.Secondary {
		assert.Greater(t, sec.Confidence, 30)
		assert.NotEqual(t, result.Primary, sec.Category)
	}
}

func TestClassifyTieBreakDeclarationOrder(t *testing.T) {
	// Two categories scoring identically: the first-declared one must win.
	taxonomy := &Taxonomy{Categories: []Category{
		{ID: "alpha", Name: "Alpha", Core: []string{"widget"}},
		{ID: "beta", Name: "Beta", Core: []string{"widget"}},
	}}
	engine := NewEngine(taxonomy)

	result := engine.Classify("Senior Widget Wrangler", "widget duties", "", "G4")
	assert.Equal(t, "alpha", result.Primary)
}

func TestClassifyNoMatchFlagsLowConfidence(t *testing.T) {
	engine := NewEngine(nil)

	result := engine.Classify("Zyx Qwr", "qqq zzz", "", "G3")

	assert.True(t, result.Flags.LowConfidence)
	assert.Zero(t, result.Confidence)
}

func TestClassifyEmergingTerms(t *testing.T) {
	engine := NewEngine(nil)

	result := engine.Classify(
		"Blockchain Specialist",
		"Designs blockchain solutions. The blockchain tokenization layer uses tokenization "+
			"standards. blockchain tokenization",
		"",
		"P2",
	)

	assert.Contains(t, result.Flags.EmergingTerms, "blockchain")
	assert.Contains(t, result.Flags.EmergingTerms, "tokenization")
	assert.LessOrEqual(t, len(result.Flags.EmergingTerms), 5)
}

func TestClassifyScoreClamped(t *testing.T) {
	engine := NewEngine(nil)

	heavy := strings.Repeat("programme implementation donor coordination workplan budget ", 10)
	result := engine.Classify("Programme Officer", heavy, "programme", "P3")

	assert.LessOrEqual(t, result.Confidence, 100)
	assert.GreaterOrEqual(t, result.Confidence, 0)
}

func TestFallbackResultShape(t *testing.T) {
	result := fallbackResult("boom")

	assert.Equal(t, FallbackCategoryID, result.Primary)
	assert.Equal(t, 25, result.Confidence)
	assert.True(t, result.Flags.LowConfidence)
}
