package anthropic

import (
	"encoding/json"
	"strings"
)

// BuildCachedSystemBlocks constructs system content blocks with a cache
// breakpoint set to a 1-hour TTL. The conversion and consistency prompts are
// identical across listings, so everything but the per-listing user message
// hits the warm cache.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "1h",
			},
		},
	}
}

// Refused reports whether the model declined to answer. An explicit refusal
// stop reason and an entirely empty reply are treated the same way.
func Refused(resp *MessageResponse) bool {
	if resp == nil {
		return true
	}
	if resp.StopReason == "refusal" {
		return true
	}
	for _, b := range resp.Content {
		if len(b.Input) > 0 || strings.TrimSpace(b.Text) != "" {
			return false
		}
	}
	return true
}

// StructuredPayload extracts the JSON payload of a structured response. The
// forced tool call is the expected path; if the model answered in prose
// anyway, a JSON object is salvaged from the text as a fallback.
func StructuredPayload(resp *MessageResponse) (json.RawMessage, bool) {
	if resp == nil {
		return nil, false
	}
	for _, b := range resp.Content {
		if b.Type == "tool_use" && len(b.Input) > 0 {
			return b.Input, true
		}
	}

	text := extractText(resp)
	if cleaned := CleanJSON(text); cleaned != "" {
		return json.RawMessage(cleaned), true
	}
	return nil, false
}

func extractText(resp *MessageResponse) string {
	var sb strings.Builder
	for _, b := range resp.Content {
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// CleanJSON strips markdown fences and surrounding prose from a string and
// returns the outermost JSON object, or "" when there is none.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
