package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flatcheck/flatcheck/internal/czech"
	"github.com/flatcheck/flatcheck/internal/model"
	"github.com/flatcheck/flatcheck/internal/schema"
	"github.com/flatcheck/flatcheck/pkg/anthropic"
)

const conversionSystemPrompt = `You convert scraped Czech real-estate listings into structured records.

The input is raw data scraped from Bezrealitky.cz: title, price, attribute
table and free-text description, all in Czech. Produce one structured listing
record via the record_listing tool.

Rules:
- listing_id: echo exactly the value given in the prompt.
- Prices are in CZK. "8 499 000 Kč" means 8499000.
- Czech dispositions encode rooms: "2+kk" and "2+1" both mean 2 rooms
  (bedrooms). "Užitná plocha" is the usable area in square meters.
- city/state/zip: use the location block; state is "CZ" for Czech listings.
  When the page shows no zip code, use "00000".
- Set a field to null when the page genuinely says nothing about it. Do not
  guess amenities: has_pool, has_garage, has_basement and has_fireplace stay
  null unless the page mentions them.
- description: keep the original Czech text.`

// convertListing turns a raw scrape into a validated Listing with one
// completion call. Missing or broken fields are repaired locally from the raw
// data afterwards, so a sloppy model answer still yields a valid record.
func (p *Pipeline) convertListing(ctx context.Context, raw *model.RawListing) (*model.Listing, error) {
	listingID := model.ListingIDFromURL(raw.URL)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Anthropic.Timeout())
	defer cancel()

	resp, err := p.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.cfg.Anthropic.Model,
		MaxTokens:   p.cfg.Anthropic.MaxTokens,
		Temperature: &p.cfg.Anthropic.Temperature,
		System:      anthropic.BuildCachedSystemBlocks(conversionSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: buildConversionPrompt(listingID, raw)},
		},
		Tool: &anthropic.ToolDefinition{
			Name:        "record_listing",
			Description: "Record the structured listing extracted from the scraped page.",
			InputSchema: schema.Sanitize(schema.Listing()),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: convert listing")
	}
	resp.Usage.LogCost(p.cfg.Anthropic.Model, "convert")

	if anthropic.Refused(resp) {
		return nil, eris.New("pipeline: model declined to convert listing")
	}
	payload, ok := anthropic.StructuredPayload(resp)
	if !ok {
		return nil, eris.New("pipeline: no structured payload in conversion response")
	}

	var listing model.Listing
	if err := json.Unmarshal(payload, &listing); err != nil {
		return nil, eris.Wrap(err, "pipeline: unmarshal converted listing")
	}

	// Identity is never the model's to decide.
	listing.ListingID = listingID
	listing.ListingURL = raw.URL

	p.repairListing(&listing, raw)

	if err := listing.Validate(); err != nil {
		return nil, eris.Wrap(err, "pipeline: converted listing invalid")
	}
	return &listing, nil
}

func buildConversionPrompt(listingID string, raw *model.RawListing) string {
	compact, _ := json.Marshal(raw)
	return fmt.Sprintf("listing_id: %s\n\nScraped listing data:\n%s", listingID, compact)
}

// conversionHints holds values recovered from the raw scrape with the
// deterministic Czech parsers. They back-fill whatever the model left broken.
type conversionHints struct {
	rooms       int
	area        int
	price       float64
	pricePerSqm float64
}

func extractHints(raw *model.RawListing) conversionHints {
	var h conversionHints

	if n, ok := czech.ParseDisposition(raw.PropertyDetails["disposition"]); ok {
		h.rooms = n
	} else if n, ok := czech.ParseDisposition(raw.Title); ok {
		h.rooms = n
	}

	if n, ok := czech.ParseArea(raw.PropertyDetails["area"]); ok {
		h.area = n
	} else if n, ok := czech.ParseArea(raw.Title); ok {
		h.area = n
	}

	if f, ok := czech.ParsePrice(raw.Price); ok {
		h.price = f
	}
	if f, ok := czech.ParsePrice(raw.PropertyDetails["pricePerM2"]); ok {
		h.pricePerSqm = f
	}

	return h
}

// repairListing back-fills required fields the model failed to produce. The
// price chain is: price extracted from the page, then price-per-sqm times
// area, then the configured floor.
func (p *Pipeline) repairListing(l *model.Listing, raw *model.RawListing) {
	h := extractHints(raw)

	if strings.TrimSpace(l.PropertyAddress) == "" {
		l.PropertyAddress = raw.Address()
	}
	if strings.TrimSpace(l.City) == "" {
		if raw.Location.City != "" {
			l.City = raw.Location.City
		} else {
			l.City = "Praha"
		}
	}
	if strings.TrimSpace(l.State) == "" {
		l.State = "CZ"
	}
	if strings.TrimSpace(l.ZipCode) == "" {
		l.ZipCode = "00000"
	}

	if l.Bedrooms <= 0 && h.rooms > 0 {
		l.Bedrooms = h.rooms
	}
	if l.Bedrooms < 0 {
		l.Bedrooms = 0
	}
	if l.Bathrooms <= 0 {
		l.Bathrooms = 1.0
	}
	if l.SquareMeters == nil && h.area > 0 {
		area := h.area
		l.SquareMeters = &area
	}
	if l.YearBuilt != nil && (*l.YearBuilt < model.MinYearBuilt || *l.YearBuilt > model.MaxYearBuilt) {
		l.YearBuilt = nil
	}

	if l.ListPrice <= 0 {
		switch {
		case h.price > 0:
			l.ListPrice = h.price
		case h.pricePerSqm > 0 && l.SquareMeters != nil && *l.SquareMeters > 0:
			l.ListPrice = h.pricePerSqm * float64(*l.SquareMeters)
		default:
			l.ListPrice = p.cfg.Pipeline.MinPriceCZK
			zap.L().Warn("no price recoverable, using configured floor",
				zap.String("listing_id", l.ListingID),
				zap.Float64("floor_czk", p.cfg.Pipeline.MinPriceCZK),
			)
		}
	}

	if descriptionTooShort(l.Description) {
		if !descriptionTooShort(raw.Title) {
			l.Description = raw.Title
		} else {
			l.Description = fmt.Sprintf("Property listing at %s, %s.", l.PropertyAddress, l.City)
		}
		l.Description = model.Truncate(l.Description, 300)
	}
}

func descriptionTooShort(s string) bool {
	return len([]rune(strings.TrimSpace(s))) < model.MinDescriptionLength
}
