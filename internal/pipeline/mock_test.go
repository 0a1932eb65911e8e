package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flatcheck/flatcheck/internal/config"
	"github.com/flatcheck/flatcheck/internal/districts"
	"github.com/flatcheck/flatcheck/internal/model"
	"github.com/flatcheck/flatcheck/internal/store"
	"github.com/flatcheck/flatcheck/pkg/anthropic"
	"github.com/flatcheck/flatcheck/pkg/bezrealitky"
)

type mockAI struct {
	mock.Mock
}

func (m *mockAI) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) FetchListing(ctx context.Context, url string) (*model.RawListing, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RawListing), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveListing(ctx context.Context, listing *model.Listing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *mockStore) GetListing(ctx context.Context, listingID string) (*model.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *mockStore) SaveResult(ctx context.Context, result *model.ConsistencyResult) error {
	return m.Called(ctx, result).Error(0)
}

func (m *mockStore) LatestResult(ctx context.Context, listingID string) (*model.ConsistencyResult, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConsistencyResult), args.Error(1)
}

func (m *mockStore) ListResults(ctx context.Context, filter store.ResultFilter) ([]model.ConsistencyResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ConsistencyResult), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// Interface compliance.
var (
	_ anthropic.Client   = (*mockAI)(nil)
	_ bezrealitky.Client = (*mockScraper)(nil)
	_ store.Store        = (*mockStore)(nil)
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Anthropic.Model = "claude-haiku-4-5-20251001"
	cfg.Anthropic.MaxTokens = 1024
	cfg.Anthropic.TimeoutSecs = 10
	cfg.Pipeline.MinPriceCZK = 1_000_000
	return cfg
}

func testCatalog(t *testing.T) *districts.Catalog {
	t.Helper()
	c, err := districts.New()
	require.NoError(t, err)
	return c
}

// toolUseResponse wraps payload as the forced tool call of a completion
// response, the way the live API answers schema-constrained requests.
func toolUseResponse(t *testing.T, toolName string, payload any) *anthropic.MessageResponse {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &anthropic.MessageResponse{
		StopReason: "tool_use",
		Content: []anthropic.ContentBlock{
			{Type: "tool_use", Name: toolName, Input: data},
		},
	}
}

// wantsTool matches a CreateMessage request by forced tool name.
func wantsTool(name string) any {
	return mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Tool != nil && req.Tool.Name == name
	})
}

func sampleRaw() *model.RawListing {
	return &model.RawListing{
		URL:      "https://www.bezrealitky.cz/nemovitosti-byty-domy/912345-nabidka-prodej-bytu",
		Title:    "Prodej bytu 2+kk 57 m², Sokolovská, Praha - Karlín",
		Price:    "8 499 000 Kč",
		Category: "Prodej",
		Description: "Nabízíme k prodeji prostorný byt 2+kk o ploše 57 m² " +
			"v žádané lokalitě pražského Karlína, v blízkosti stanice metra Křižíkova.",
		Attributes: map[string]string{
			"Dispozice":     "2+kk",
			"Užitná plocha": "57 m²",
		},
		PropertyDetails: map[string]string{
			"disposition": "2+kk",
			"area":        "57 m²",
			"pricePerM2":  "149 105 Kč / m²",
		},
		Location: model.RawLocation{
			City:     "Praha",
			District: "Karlín",
			Street:   "Sokolovská",
			Full:     "Sokolovská, Praha - Karlín",
		},
		PropertyID: "912345",
	}
}

func sampleConverted(url string) map[string]any {
	return map[string]any{
		"listing_id":       "IGNORED-BY-PIPELINE",
		"listing_url":      url,
		"property_address": "Sokolovská, Praha - Karlín",
		"city":             "Praha",
		"state":            "CZ",
		"zip_code":         "18600",
		"bedrooms":         2,
		"bathrooms":        1,
		"square_meters":    57,
		"list_price":       8499000,
		"description":      "Nabízíme k prodeji prostorný byt 2+kk o ploše 57 m² v Karlíně.",
	}
}
