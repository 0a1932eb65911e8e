package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flatcheck/flatcheck/internal/model"
	"github.com/flatcheck/flatcheck/internal/schema"
	"github.com/flatcheck/flatcheck/pkg/anthropic"
)

const consistencySystemPrompt = `You audit real-estate listings for internal contradictions.

You get one structured listing record plus its free-text description (usually
Czech). Compare every factual claim in the description against the structured
fields and report contradictions via the record_consistency tool.

Rules:
- Only report actual contradictions. A description that omits a field is not
  inconsistent with it.
- severity: "critical" for claims a buyer would care about (price, area,
  rooms, location), "medium" for secondary facts, "low" for cosmetic wording.
- description_says / listing_data_says: quote the shortest fragment that
  shows the conflict.
- When nothing contradicts, return an empty findings array and say so in the
  summary.`

// descriptionPromptLimit caps how much of the description goes into the
// prompt. Long listings repeat themselves well before this.
const descriptionPromptLimit = 2000

// checkConsistency runs the second completion call, auditing the converted
// listing against its own description. The model's arithmetic is not trusted:
// totals, identity and timestamps are all restamped locally.
func (p *Pipeline) checkConsistency(ctx context.Context, listing *model.Listing) (*model.ConsistencyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Anthropic.Timeout())
	defer cancel()

	resp, err := p.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.cfg.Anthropic.Model,
		MaxTokens:   p.cfg.Anthropic.MaxTokens,
		Temperature: &p.cfg.Anthropic.Temperature,
		System:      anthropic.BuildCachedSystemBlocks(consistencySystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: buildConsistencyPrompt(listing)},
		},
		Tool: &anthropic.ToolDefinition{
			Name:        "record_consistency",
			Description: "Record the consistency verdict for the listing.",
			InputSchema: schema.Sanitize(schema.ConsistencyCheck()),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: consistency check")
	}
	resp.Usage.LogCost(p.cfg.Anthropic.Model, "consistency")

	if anthropic.Refused(resp) {
		return nil, eris.New("pipeline: model declined consistency check")
	}
	payload, ok := anthropic.StructuredPayload(resp)
	if !ok {
		return nil, eris.New("pipeline: no structured payload in consistency response")
	}

	var result model.ConsistencyResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, eris.Wrap(err, "pipeline: unmarshal consistency result")
	}

	repairResult(&result, listing)

	if err := result.Validate(); err != nil {
		return nil, eris.Wrap(err, "pipeline: consistency result invalid")
	}
	return &result, nil
}

func buildConsistencyPrompt(listing *model.Listing) string {
	structured := *listing
	structured.Description = ""
	fields, _ := json.Marshal(&structured)

	desc := model.Truncate(listing.Description, descriptionPromptLimit)

	return fmt.Sprintf("Structured listing data:\n%s\n\nDescription:\n%s", fields, desc)
}

// repairResult normalizes a model-produced result in place: identity fields
// are copied back from the listing, text fields clipped to their caps,
// severities coerced and the totals recomputed from the findings.
func repairResult(r *model.ConsistencyResult, listing *model.Listing) {
	r.ListingID = listing.ListingID
	r.PropertyAddress = listing.PropertyAddress
	r.CheckedAt = time.Now().UTC()
	r.Source = model.SourceModel

	if r.Findings == nil {
		r.Findings = []model.InconsistencyFinding{}
	}
	if len(r.Findings) > model.MaxFindings {
		zap.L().Warn("finding list over cap, clipping",
			zap.String("listing_id", r.ListingID),
			zap.Int("findings", len(r.Findings)),
		)
		r.Findings = r.Findings[:model.MaxFindings]
	}
	for i := range r.Findings {
		f := &r.Findings[i]
		if strings.TrimSpace(f.FieldName) == "" {
			f.FieldName = "unspecified"
		}
		f.DescriptionSays = model.Truncate(f.DescriptionSays, model.MaxClaimLength)
		f.ListingDataSays = model.Truncate(f.ListingDataSays, model.MaxClaimLength)
		f.Explanation = model.Truncate(f.Explanation, model.MaxExplanationLength)
		f.Severity = model.ParseSeverity(string(f.Severity))
	}

	if r.TotalInconsistencies != len(r.Findings) || r.IsConsistent != (len(r.Findings) == 0) {
		zap.L().Warn("model totals disagree with findings, recomputing",
			zap.String("listing_id", r.ListingID),
			zap.Int("claimed_total", r.TotalInconsistencies),
			zap.Int("findings", len(r.Findings)),
		)
	}
	r.TotalInconsistencies = len(r.Findings)
	r.IsConsistent = len(r.Findings) == 0

	if strings.TrimSpace(r.Summary) == "" {
		r.Summary = synthesizeSummary(r)
	}
	r.Summary = model.Truncate(r.Summary, model.MaxSummaryLength)
}

func synthesizeSummary(r *model.ConsistencyResult) string {
	if r.IsConsistent {
		return "No inconsistencies found between the description and the listing data."
	}
	worst := model.SeverityLow
	for _, f := range r.Findings {
		switch f.Severity {
		case model.SeverityCritical:
			worst = model.SeverityCritical
		case model.SeverityMedium:
			if worst != model.SeverityCritical {
				worst = model.SeverityMedium
			}
		}
	}
	return fmt.Sprintf("%d inconsistencies found, worst severity %s.", r.TotalInconsistencies, worst)
}
