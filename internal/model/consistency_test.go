package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validResult() *ConsistencyResult {
	return &ConsistencyResult{
		ListingID:       "PRG-0123456789AB",
		PropertyAddress: "Sokolovská 145, Praha 8",
		CheckedAt:       time.Now().UTC(),
		TotalInconsistencies: 1,
		IsConsistent:         false,
		Findings: []InconsistencyFinding{{
			FieldName:       "bedrooms",
			DescriptionSays: "prostorný byt 3+kk",
			ListingDataSays: "2",
			Severity:        SeverityMedium,
			Explanation:     "Description advertises a 3+kk layout but the structured data records two bedrooms.",
		}},
		Summary: "Found 1 inconsistency between description and listing data.",
		Source:  SourceModel,
	}
}

func TestConsistencyResultValidate_OK(t *testing.T) {
	require.NoError(t, validResult().Validate())
}

func TestConsistencyResultValidate_DerivedTotals(t *testing.T) {
	r := validResult()
	r.TotalInconsistencies = 5
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_inconsistencies")
}

func TestConsistencyResultValidate_ConsistentFlagDerived(t *testing.T) {
	r := validResult()
	r.IsConsistent = true
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is_consistent")
}

func TestConsistencyResultValidate_FindingCaps(t *testing.T) {
	r := validResult()
	r.Findings[0].Explanation = strings.Repeat("x", MaxExplanationLength+1)
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explanation")
}

func TestConsistencyResultValidate_TooManyFindings(t *testing.T) {
	r := validResult()
	f := r.Findings[0]
	r.Findings = nil
	for i := 0; i < MaxFindings+1; i++ {
		r.Findings = append(r.Findings, f)
	}
	r.TotalInconsistencies = len(r.Findings)
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "findings")
}

func TestConsistencyResultValidate_BadSource(t *testing.T) {
	r := validResult()
	r.Source = "oracle"
	assert.Error(t, r.Validate())
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"critical", SeverityCritical},
		{"CRITICAL", SeverityCritical},
		{" low ", SeverityLow},
		{"medium", SeverityMedium},
		{"severe", SeverityMedium},
		{"", SeverityMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSeverity(tt.in), "input %q", tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	// Rune-safe on Czech diacritics.
	assert.Equal(t, "lodž", Truncate("lodžie", 4))
}
