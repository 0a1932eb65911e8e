package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredPayload_ToolUse(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "Recording the listing now."},
			{Type: "tool_use", Name: "record_listing", Input: json.RawMessage(`{"bedrooms": 2}`)},
		},
	}

	payload, ok := StructuredPayload(resp)
	require.True(t, ok)
	assert.JSONEq(t, `{"bedrooms": 2}`, string(payload))
}

func TestStructuredPayload_FencedTextFallback(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "```json\n{\"bedrooms\": 3}\n```"},
		},
	}

	payload, ok := StructuredPayload(resp)
	require.True(t, ok)
	assert.JSONEq(t, `{"bedrooms": 3}`, string(payload))
}

func TestStructuredPayload_ProseWithEmbeddedObject(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: `Here is the result: {"summary": "ok"} hope that helps`},
		},
	}

	payload, ok := StructuredPayload(resp)
	require.True(t, ok)
	assert.JSONEq(t, `{"summary": "ok"}`, string(payload))
}

func TestStructuredPayload_NoJSON(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{{Type: "text", Text: "I cannot produce that."}},
	}

	_, ok := StructuredPayload(resp)
	assert.False(t, ok)
}

func TestRefused(t *testing.T) {
	assert.True(t, Refused(nil))
	assert.True(t, Refused(&MessageResponse{StopReason: "refusal", Content: []ContentBlock{{Type: "text", Text: "no"}}}))
	assert.True(t, Refused(&MessageResponse{StopReason: "end_turn"}))
	assert.True(t, Refused(&MessageResponse{Content: []ContentBlock{{Type: "text", Text: "   "}}}))
	assert.False(t, Refused(&MessageResponse{Content: []ContentBlock{{Type: "text", Text: "fine"}}}))
	assert.False(t, Refused(&MessageResponse{Content: []ContentBlock{{Type: "tool_use", Input: json.RawMessage(`{}`)}}}))
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", `sure: {"a":1}.`, `{"a":1}`},
		{"no object", "nothing here", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}

func TestEstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 4.80, u.EstimateCost("claude-haiku-4-5-20251001"), 0.001)
	assert.Zero(t, u.EstimateCost("unknown-model"))
}

func TestTokenUsageAdd(t *testing.T) {
	u := TokenUsage{InputTokens: 100, OutputTokens: 10}
	u.Add(TokenUsage{InputTokens: 50, OutputTokens: 5, CacheReadInputTokens: 7})
	assert.Equal(t, int64(150), u.InputTokens)
	assert.Equal(t, int64(15), u.OutputTokens)
	assert.Equal(t, int64(7), u.CacheReadInputTokens)
}

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("system text")
	require.Len(t, blocks, 1)
	assert.Equal(t, "system text", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}
