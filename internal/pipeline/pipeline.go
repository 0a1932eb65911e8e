// Package pipeline runs the scrape, convert and consistency-check stages for
// a single listing URL and degrades to a deterministic fallback whenever a
// stage fails. Every URL put in produces exactly one stored result.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/flatcheck/flatcheck/internal/config"
	"github.com/flatcheck/flatcheck/internal/districts"
	"github.com/flatcheck/flatcheck/internal/model"
	"github.com/flatcheck/flatcheck/internal/store"
	"github.com/flatcheck/flatcheck/pkg/anthropic"
	"github.com/flatcheck/flatcheck/pkg/bezrealitky"
)

// Pipeline wires the scraper, the completion client, the store and the
// district tables together.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	scraper   bezrealitky.Client
	ai        anthropic.Client
	districts *districts.Catalog
}

// New creates a Pipeline.
func New(cfg *config.Config, st store.Store, scraper bezrealitky.Client, ai anthropic.Client, catalog *districts.Catalog) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		scraper:   scraper,
		ai:        ai,
		districts: catalog,
	}
}

// CheckReport is the full outcome for one listing URL.
type CheckReport struct {
	URL           string                   `json:"url"`
	ListingID     string                   `json:"listing_id"`
	Listing       *model.Listing           `json:"listing,omitempty"`
	Result        *model.ConsistencyResult `json:"result"`
	District      string                   `json:"district,omitempty"`
	DistrictStats *districts.Stats         `json:"district_stats,omitempty"`
}

// CheckURL scrapes, converts and consistency-checks one listing URL. A failed
// stage never aborts the run: the report then carries a fallback result. The
// only error returned is context cancellation.
func (p *Pipeline) CheckURL(ctx context.Context, url string) (*CheckReport, error) {
	raw, err := p.scraper.FetchListing(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		zap.L().Warn("scrape failed, falling back",
			zap.String("url", url),
			zap.Error(err),
		)
		return p.fallbackReport(ctx, url, nil, "scrape failed: "+err.Error()), nil
	}
	return p.CheckRaw(ctx, raw)
}

// CheckRaw converts and consistency-checks an already scraped listing.
func (p *Pipeline) CheckRaw(ctx context.Context, raw *model.RawListing) (*CheckReport, error) {
	listing, err := p.convertListing(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		zap.L().Warn("conversion failed, falling back",
			zap.String("url", raw.URL),
			zap.Error(err),
		)
		return p.fallbackReport(ctx, raw.URL, raw, "conversion failed: "+err.Error()), nil
	}

	if err := p.store.SaveListing(ctx, listing); err != nil {
		zap.L().Warn("save listing failed",
			zap.String("listing_id", listing.ListingID),
			zap.Error(err),
		)
	}

	report := &CheckReport{
		URL:       raw.URL,
		ListingID: listing.ListingID,
		Listing:   listing,
	}
	report.District, report.DistrictStats = p.locate(raw)

	result, err := p.checkConsistency(ctx, listing)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		zap.L().Warn("consistency check failed, falling back",
			zap.String("listing_id", listing.ListingID),
			zap.Error(err),
		)
		result = FallbackResult(raw.URL, raw, "consistency check failed: "+err.Error())
	}
	report.Result = result

	p.saveResult(ctx, result)
	return report, nil
}

// locate resolves the administrative district for a scraped listing. The
// neighborhood name is tried first, then the city field, which on Prague
// pages often already is the district ("Praha 8").
func (p *Pipeline) locate(raw *model.RawListing) (string, *districts.Stats) {
	if p.districts == nil {
		return "", nil
	}
	if raw.Location.District != "" {
		if name, ok := p.districts.AdminDistrict(raw.Location.District); ok {
			if stats, ok := p.districts.StatsFor(name); ok {
				return name, &stats
			}
		}
	}
	if raw.Location.City != "" {
		if stats, ok := p.districts.StatsFor(raw.Location.City); ok {
			return stats.Name, &stats
		}
	}
	return "", nil
}

func (p *Pipeline) fallbackReport(ctx context.Context, url string, raw *model.RawListing, reason string) *CheckReport {
	result := FallbackResult(url, raw, reason)
	p.saveResult(ctx, result)
	report := &CheckReport{
		URL:       url,
		ListingID: result.ListingID,
		Result:    result,
	}
	if raw != nil {
		report.District, report.DistrictStats = p.locate(raw)
	}
	return report
}

func (p *Pipeline) saveResult(ctx context.Context, result *model.ConsistencyResult) {
	if err := p.store.SaveResult(ctx, result); err != nil {
		zap.L().Warn("save result failed",
			zap.String("listing_id", result.ListingID),
			zap.Error(err),
		)
	}
}
