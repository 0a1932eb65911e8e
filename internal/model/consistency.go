package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Severity grades how badly a description claim disagrees with the
// structured data.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ParseSeverity normalizes a free-form severity string. Anything
// unrecognized degrades to medium rather than failing the whole result.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityLow:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// Length caps for finding and result text fields.
const (
	MaxClaimLength       = 200
	MaxExplanationLength = 300
	MaxSummaryLength     = 200
	MaxFindings          = 20
)

// ResultSource records whether a result came from the model or from the
// deterministic fallback generator.
type ResultSource string

const (
	SourceModel    ResultSource = "model"
	SourceFallback ResultSource = "fallback"
)

// InconsistencyFinding is one contradiction between the listing description
// and the structured fields.
type InconsistencyFinding struct {
	FieldName       string   `json:"field_name"`
	DescriptionSays string   `json:"description_says"`
	ListingDataSays string   `json:"listing_data_says"`
	Severity        Severity `json:"severity"`
	Explanation     string   `json:"explanation"`
}

// ConsistencyResult is the outcome of one consistency check over a listing.
type ConsistencyResult struct {
	ListingID            string                 `json:"listing_id"`
	PropertyAddress      string                 `json:"property_address"`
	CheckedAt            time.Time              `json:"checked_at"`
	TotalInconsistencies int                    `json:"total_inconsistencies"`
	IsConsistent         bool                   `json:"is_consistent"`
	Findings             []InconsistencyFinding `json:"findings"`
	Summary              string                 `json:"summary"`
	Source               ResultSource           `json:"source"`
}

// Validate checks the result invariants: the totals must be derived from the
// findings, not trusted from upstream.
func (r *ConsistencyResult) Validate() error {
	var violations []FieldViolation
	add := func(field, msg string) {
		violations = append(violations, FieldViolation{Field: field, Message: msg})
	}

	if r.ListingID == "" {
		add("listing_id", "must not be empty")
	}
	if strings.TrimSpace(r.PropertyAddress) == "" {
		add("property_address", "must not be empty")
	}
	if r.CheckedAt.IsZero() {
		add("checked_at", "must be set")
	}
	if r.TotalInconsistencies != len(r.Findings) {
		add("total_inconsistencies", fmt.Sprintf("is %d but there are %d findings", r.TotalInconsistencies, len(r.Findings)))
	}
	if r.IsConsistent != (len(r.Findings) == 0) {
		add("is_consistent", "disagrees with findings")
	}
	if len(r.Findings) > MaxFindings {
		add("findings", fmt.Sprintf("must not exceed %d entries", MaxFindings))
	}
	if strings.TrimSpace(r.Summary) == "" {
		add("summary", "must not be empty")
	}
	if utf8.RuneCountInString(r.Summary) > MaxSummaryLength {
		add("summary", fmt.Sprintf("must not exceed %d characters", MaxSummaryLength))
	}
	if r.Source != SourceModel && r.Source != SourceFallback {
		add("source", "must be model or fallback")
	}
	for i, f := range r.Findings {
		prefix := fmt.Sprintf("findings[%d].", i)
		if strings.TrimSpace(f.FieldName) == "" {
			add(prefix+"field_name", "must not be empty")
		}
		if f.Severity != SeverityCritical && f.Severity != SeverityMedium && f.Severity != SeverityLow {
			add(prefix+"severity", "must be critical, medium or low")
		}
		if utf8.RuneCountInString(f.DescriptionSays) > MaxClaimLength {
			add(prefix+"description_says", fmt.Sprintf("must not exceed %d characters", MaxClaimLength))
		}
		if utf8.RuneCountInString(f.ListingDataSays) > MaxClaimLength {
			add(prefix+"listing_data_says", fmt.Sprintf("must not exceed %d characters", MaxClaimLength))
		}
		if utf8.RuneCountInString(f.Explanation) > MaxExplanationLength {
			add(prefix+"explanation", fmt.Sprintf("must not exceed %d characters", MaxExplanationLength))
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// Truncate clips s to at most max runes.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
