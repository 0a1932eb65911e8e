package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/flatcheck/flatcheck/internal/districts"
	"github.com/flatcheck/flatcheck/internal/pipeline"
	"github.com/flatcheck/flatcheck/internal/store"
	anthropicpkg "github.com/flatcheck/flatcheck/pkg/anthropic"
	"github.com/flatcheck/flatcheck/pkg/bezrealitky"
)

// env bundles everything a checking command needs.
type env struct {
	Store    store.Store
	Catalog  *districts.Catalog
	Pipeline *pipeline.Pipeline
}

func (e *env) Close() {
	_ = e.Store.Close()
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "flatcheck.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline wires the store, scraper, completion client and district
// tables into a ready pipeline. Requires an Anthropic key.
func initPipeline(ctx context.Context) (*env, error) {
	if err := cfg.RequireAnthropicKey(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	catalog, err := districts.New()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	scrapeOpts := []bezrealitky.Option{
		bezrealitky.WithRateLimit(cfg.Scrape.RequestsPerSec),
	}
	if cfg.Scrape.UserAgent != "" {
		scrapeOpts = append(scrapeOpts, bezrealitky.WithUserAgent(cfg.Scrape.UserAgent))
	}
	if cfg.Scrape.TimeoutSecs > 0 {
		scrapeOpts = append(scrapeOpts, bezrealitky.WithHTTPClient(
			&http.Client{Timeout: time.Duration(cfg.Scrape.TimeoutSecs) * time.Second},
		))
	}
	scraper := bezrealitky.NewHTTPClient(scrapeOpts...)

	ai := anthropicpkg.NewClient(cfg.Anthropic.Key)

	return &env{
		Store:    st,
		Catalog:  catalog,
		Pipeline: pipeline.New(cfg, st, scraper, ai, catalog),
	}, nil
}
