package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatcheck/flatcheck/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgresStore_SaveListing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO listings`).
		WithArgs(pgxmock.AnyArg(), "PRG-AAAAAAAAAAAA", "https://www.bezrealitky.cz/n/1-x", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveListing(context.Background(), testListing("PRG-AAAAAAAAAAAA"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetListing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	payload, err := json.Marshal(testListing("PRG-AAAAAAAAAAAA"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM listings`).
		WithArgs("PRG-AAAAAAAAAAAA").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := s.GetListing(context.Background(), "PRG-AAAAAAAAAAAA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Praha", got.City)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetListing_Missing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload FROM listings`).
		WithArgs("PRG-MISSING00000").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetListing(context.Background(), "PRG-MISSING00000")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	result := testResult("PRG-BBBBBBBBBBBB", model.SourceModel, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	mock.ExpectExec(`INSERT INTO results`).
		WithArgs(pgxmock.AnyArg(), "PRG-BBBBBBBBBBBB", "model", result.CheckedAt, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveResult(context.Background(), result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestResult_Missing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload FROM results`).
		WithArgs("PRG-MISSING00000").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.LatestResult(context.Background(), "PRG-MISSING00000")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListResults(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	r := testResult("PRG-BBBBBBBBBBBB", model.SourceFallback, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	payload, err := json.Marshal(r)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM results WHERE 1=1 AND source = \$1`).
		WithArgs("fallback", 100).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	results, err := s.ListResults(context.Background(), ResultFilter{Source: model.SourceFallback})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.SourceFallback, results[0].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS listings`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
