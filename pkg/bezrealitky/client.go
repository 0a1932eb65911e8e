// Package bezrealitky fetches and parses property listings from
// Bezrealitky.cz.
package bezrealitky

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/flatcheck/flatcheck/internal/model"
	"github.com/flatcheck/flatcheck/internal/resilience"
)

// Client fetches raw listings.
type Client interface {
	FetchListing(ctx context.Context, url string) (*model.RawListing, error)
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// HTTPClient is the plain-HTTP implementation of Client, with a shared rate
// limiter so batch runs stay polite.
type HTTPClient struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	retry     resilience.RetryConfig
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) { c.http = h }
}

// WithRateLimit sets the request rate. Zero or negative disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *HTTPClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) { c.userAgent = ua }
}

// NewHTTPClient builds a scraper client. Defaults: 30s request timeout,
// 1 req/s, 3 attempts on transient failures.
func NewHTTPClient(opts ...Option) *HTTPClient {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("bezrealitky", "fetch_listing")
	c := &HTTPClient{
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		userAgent: defaultUserAgent,
		retry:     retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchListing downloads and parses one listing page.
func (c *HTTPClient) FetchListing(ctx context.Context, url string) (*model.RawListing, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "bezrealitky: rate limit wait")
		}
	}

	raw, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*model.RawListing, error) {
		return c.fetchOnce(ctx, url)
	})
	if err != nil {
		return nil, err
	}

	raw.ScrapedAt = time.Now().UTC()
	zap.L().Debug("fetched listing",
		zap.String("url", url),
		zap.String("title", raw.Title),
		zap.Int("attributes", len(raw.Attributes)),
	)
	return raw, nil
}

func (c *HTTPClient) fetchOnce(ctx context.Context, url string) (*model.RawListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "bezrealitky: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "cs-CZ,cs;q=0.9,en;q=0.5")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "bezrealitky: fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("bezrealitky: fetch %s: status %d", url, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	return ParseListingPage(url, resp.Body)
}
