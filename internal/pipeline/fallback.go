package pipeline

import (
	"fmt"
	"time"

	"github.com/flatcheck/flatcheck/internal/model"
)

// FallbackResult builds the deterministic result stored when a stage fails.
// It is valid by construction and always carries at least one finding naming
// the reason, so failed runs stay visible in queries instead of vanishing.
// raw may be nil when the failure happened before the scrape produced
// anything.
func FallbackResult(url string, raw *model.RawListing, reason string) *model.ConsistencyResult {
	address := url
	if raw != nil {
		address = raw.Address()
	}

	findings := []model.InconsistencyFinding{
		{
			FieldName:       "pipeline",
			DescriptionSays: model.Truncate("listing could not be fully checked", model.MaxClaimLength),
			ListingDataSays: model.Truncate(reason, model.MaxClaimLength),
			Severity:        model.SeverityCritical,
			Explanation:     model.Truncate("Automated check did not complete: "+reason, model.MaxExplanationLength),
		},
	}

	// Keep a trace of what the scrape did recover, if anything.
	if raw != nil && (raw.Title != "" || raw.Price != "") {
		findings = append(findings, model.InconsistencyFinding{
			FieldName:       "source_data",
			DescriptionSays: model.Truncate(raw.Title, model.MaxClaimLength),
			ListingDataSays: model.Truncate(raw.Price, model.MaxClaimLength),
			Severity:        model.SeverityLow,
			Explanation:     "Raw page data recorded for a later retry.",
		})
	}

	return &model.ConsistencyResult{
		ListingID:            model.ListingIDFromURL(url),
		PropertyAddress:      address,
		CheckedAt:            time.Now().UTC(),
		TotalInconsistencies: len(findings),
		IsConsistent:         false,
		Findings:             findings,
		Summary:              model.Truncate(fmt.Sprintf("Check incomplete: %s", reason), model.MaxSummaryLength),
		Source:               model.SourceFallback,
	}
}
