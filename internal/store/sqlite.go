package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/flatcheck/flatcheck/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id         TEXT PRIMARY KEY,
	listing_id TEXT NOT NULL,
	url        TEXT,
	payload    TEXT NOT NULL,
	saved_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS results (
	id         TEXT PRIMARY KEY,
	listing_id TEXT NOT NULL,
	source     TEXT NOT NULL,
	checked_at DATETIME NOT NULL,
	payload    TEXT NOT NULL,
	saved_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_listings_listing_id ON listings(listing_id);
CREATE INDEX IF NOT EXISTS idx_results_listing_id ON results(listing_id);
CREATE INDEX IF NOT EXISTS idx_results_source ON results(source);
CREATE INDEX IF NOT EXISTS idx_results_checked_at ON results(checked_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveListing(ctx context.Context, listing *model.Listing) error {
	payload, err := json.Marshal(listing)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal listing")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO listings (id, listing_id, url, payload, saved_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), listing.ListingID, listing.ListingURL, string(payload), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert listing %s", listing.ListingID)
}

func (s *SQLiteStore) GetListing(ctx context.Context, listingID string) (*model.Listing, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM listings WHERE listing_id = ? ORDER BY saved_at DESC LIMIT 1`,
		listingID,
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get listing %s", listingID)
	}

	var listing model.Listing
	if err := json.Unmarshal([]byte(payload), &listing); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal listing")
	}
	return &listing, nil
}

func (s *SQLiteStore) SaveResult(ctx context.Context, result *model.ConsistencyResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (id, listing_id, source, checked_at, payload, saved_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), result.ListingID, string(result.Source), result.CheckedAt, string(payload), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert result for %s", result.ListingID)
}

func (s *SQLiteStore) LatestResult(ctx context.Context, listingID string) (*model.ConsistencyResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM results WHERE listing_id = ? ORDER BY checked_at DESC LIMIT 1`,
		listingID,
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest result for %s", listingID)
	}

	return unmarshalResult(payload)
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.ConsistencyResult, error) {
	query := `SELECT payload FROM results WHERE 1=1`
	var args []any

	if filter.ListingID != "" {
		query += ` AND listing_id = ?`
		args = append(args, filter.ListingID)
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(filter.Source))
	}
	query += ` ORDER BY checked_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var results []model.ConsistencyResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		r, err := unmarshalResult(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}

func unmarshalResult(payload string) (*model.ConsistencyResult, error) {
	var r model.ConsistencyResult
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal result")
	}
	return &r, nil
}
