package bezrealitky

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Client = (*HTTPClient)(nil)

func newTestClient(srv *httptest.Server) *HTTPClient {
	c := NewHTTPClient(
		WithHTTPClient(srv.Client()),
		WithRateLimit(0),
	)
	c.retry.InitialBackoff = time.Millisecond
	c.retry.MaxBackoff = 2 * time.Millisecond
	c.retry.OnRetry = nil
	return c
}

func TestFetchListing_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Language"), "cs")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	raw, err := newTestClient(srv).FetchListing(context.Background(), srv.URL+"/nemovitosti/912345-nabidka")
	require.NoError(t, err)
	assert.Equal(t, "912345", raw.PropertyID)
	assert.Equal(t, "8 499 000 Kč", raw.Price)
	assert.False(t, raw.ScrapedAt.IsZero())
}

func TestFetchListing_NotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchListing(context.Background(), srv.URL+"/gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchListing_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	raw, err := newTestClient(srv).FetchListing(context.Background(), srv.URL+"/nemovitosti/912345-x")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "912345", raw.PropertyID)
}

func TestFetchListing_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchListing(context.Background(), srv.URL+"/down")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchListing_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewHTTPClient(WithHTTPClient(srv.Client()))
	_, err := c.FetchListing(ctx, srv.URL)
	assert.Error(t, err)
}
