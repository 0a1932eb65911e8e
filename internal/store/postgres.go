package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/flatcheck/flatcheck/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id         TEXT PRIMARY KEY,
	listing_id TEXT NOT NULL,
	url        TEXT,
	payload    JSONB NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS results (
	id         TEXT PRIMARY KEY,
	listing_id TEXT NOT NULL,
	source     TEXT NOT NULL,
	checked_at TIMESTAMPTZ NOT NULL,
	payload    JSONB NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_listings_listing_id ON listings(listing_id);
CREATE INDEX IF NOT EXISTS idx_results_listing_id ON results(listing_id);
CREATE INDEX IF NOT EXISTS idx_results_source ON results(source);
CREATE INDEX IF NOT EXISTS idx_results_checked_at ON results(checked_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveListing(ctx context.Context, listing *model.Listing) error {
	payload, err := json.Marshal(listing)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal listing")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO listings (id, listing_id, url, payload, saved_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), listing.ListingID, listing.ListingURL, payload, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: insert listing %s", listing.ListingID)
}

func (s *PostgresStore) GetListing(ctx context.Context, listingID string) (*model.Listing, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT payload FROM listings WHERE listing_id = $1 ORDER BY saved_at DESC LIMIT 1`,
		listingID,
	)

	var payload []byte
	err := row.Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get listing %s", listingID)
	}

	var listing model.Listing
	if err := json.Unmarshal(payload, &listing); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal listing")
	}
	return &listing, nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, result *model.ConsistencyResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO results (id, listing_id, source, checked_at, payload, saved_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), result.ListingID, string(result.Source), result.CheckedAt, payload, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: insert result for %s", result.ListingID)
}

func (s *PostgresStore) LatestResult(ctx context.Context, listingID string) (*model.ConsistencyResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT payload FROM results WHERE listing_id = $1 ORDER BY checked_at DESC LIMIT 1`,
		listingID,
	)

	var payload []byte
	err := row.Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest result for %s", listingID)
	}

	return unmarshalResult(string(payload))
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.ConsistencyResult, error) {
	query := `SELECT payload FROM results WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter.ListingID != "" {
		query += ` AND listing_id = ` + arg(filter.ListingID)
	}
	if filter.Source != "" {
		query += ` AND source = ` + arg(string(filter.Source))
	}
	query += ` ORDER BY checked_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)

	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var results []model.ConsistencyResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		r, err := unmarshalResult(string(payload))
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

var _ Store = (*PostgresStore)(nil)
var _ Store = (*SQLiteStore)(nil)
