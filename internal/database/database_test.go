package database

import (
	"aptmarket/server/internal/models"
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	march = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	april = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	db, err := NewDatabase(filepath.Join(t.TempDir(), "apartments.db"), Options{
		QueryTimeout: 5 * time.Second,
		RetryDelay:   time.Millisecond,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func seed(t *testing.T, db *Database) {
	t.Helper()

	require.NoError(t, db.InsertListings([]models.Listing{
		{ID: 1, Date: march, City: "Warszawa", Market: models.MarketPrimary, Area: 40, PriceOfSqm: 15000, Longitude: 21.01, Latitude: 52.23},
		{ID: 2, Date: march, City: "Kraków", Market: models.MarketAftermarket, Area: 55, PriceOfSqm: 13000, Longitude: 19.94, Latitude: 50.06},
		{ID: 3, Date: april, City: "Warszawa", Market: models.MarketAftermarket, Area: 62, PriceOfSqm: 16000, Longitude: 21.02, Latitude: 52.24},
	}))
	require.NoError(t, db.InsertRawListings([]models.RawListing{
		{ID: 1, Date: march, City: "Warszawa", Market: models.MarketPrimary, Area: 40, Price: "600000"},
		{ID: 2, Date: march, City: "Kraków", Market: models.MarketAftermarket, Area: 55, Price: "Zapytaj o cenę"},
		{ID: 3, Date: april, City: "Warszawa", Market: models.MarketAftermarket, Area: 62, Price: "992000"},
	}))
}

func TestDates(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	dates, err := db.Dates(context.Background())
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, "2024-04-01", models.DateKey(dates[0]), "newest snapshot first")
	assert.Equal(t, "2024-03-01", models.DateKey(dates[1]))
}

func TestDatesIncludeRawOnlySnapshots(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	may := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.InsertRawListings([]models.RawListing{
		{ID: 4, Date: may, City: "Gdańsk", Market: models.MarketPrimary, Area: 38, Price: "Zapytaj o cenę"},
	}))

	dates, err := db.Dates(context.Background())
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.Equal(t, "2024-05-01", models.DateKey(dates[0]))
}

func TestDetailListings(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	tests := []struct {
		name        string
		query       ListingQuery
		expectedIDs []int64
	}{
		{name: "All snapshots", query: ListingQuery{}, expectedIDs: []int64{1, 2, 3}},
		{name: "Single snapshot", query: ListingQuery{Date: march}, expectedIDs: []int64{1, 2}},
		{name: "Unknown snapshot", query: ListingQuery{Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}, expectedIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings, err := db.DetailListings(context.Background(), tt.query)
			require.NoError(t, err)

			var ids []int64
			for _, l := range listings {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}

	listings, err := db.DetailListings(context.Background(), ListingQuery{Date: march})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "Warszawa", listings[0].City)
	assert.Equal(t, models.MarketPrimary, listings[0].Market)
	assert.InDelta(t, 21.01, listings[0].Longitude, 1e-9)
	assert.InDelta(t, 52.23, listings[0].Latitude, 1e-9)
	assert.InDelta(t, 15000, listings[0].PriceOfSqm, 1e-9)
	assert.Equal(t, "2024-03-01", models.DateKey(listings[0].Date))
}

func TestRawListings(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	listings, err := db.RawListings(context.Background(), ListingQuery{Date: march})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "600000", listings[0].Price)
	assert.Equal(t, "Zapytaj o cenę", listings[1].Price)
	assert.False(t, listings[1].Priced("Zapytaj o cenę"))
}

func TestLegacyMarketValuesAreNormalized(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.GetDB().Exec(
		`INSERT INTO apt_details (id, date, city, localization_x, localization_y, market, area, price_of_sqm)
		 VALUES (1, '2024-03-01', 'Łódź', 19.45, 51.76, 'pierwotny', 50, 9000),
		        (2, '2024-03-01', 'Łódź', 19.46, 51.77, 'wtorny', 45, 8000)`).Error)

	listings, err := db.DetailListings(context.Background(), ListingQuery{})
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, models.MarketPrimary, listings[0].Market)
	assert.Equal(t, models.MarketAftermarket, listings[1].Market)
}

func TestSchemaMismatch(t *testing.T) {
	t.Run("Unknown market value", func(t *testing.T) {
		db := setupTestDB(t)
		require.NoError(t, db.GetDB().Exec(
			`INSERT INTO apt_details (id, date, city, localization_x, localization_y, market, area, price_of_sqm)
			 VALUES (1, '2024-03-01', 'Łódź', 0, 0, 'commercial', 50, 9000)`).Error)

		_, err := db.DetailListings(context.Background(), ListingQuery{})
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("Missing column", func(t *testing.T) {
		db := setupTestDB(t)
		require.NoError(t, db.GetDB().Exec(`DROP TABLE apt_details_raw`).Error)
		require.NoError(t, db.GetDB().Exec(`CREATE TABLE apt_details_raw (id INTEGER, date TEXT, city TEXT)`).Error)

		_, err := db.RawListings(context.Background(), ListingQuery{})
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("Unparseable date", func(t *testing.T) {
		db := setupTestDB(t)
		require.NoError(t, db.GetDB().Exec(
			`INSERT INTO apt_details_raw (id, date, city, market, area, price)
			 VALUES (1, 'last tuesday', 'Łódź', 'aftermarket', 50, '1')`).Error)

		_, err := db.RawListings(context.Background(), ListingQuery{})
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestWithRetry(t *testing.T) {
	db := setupTestDB(t)

	t.Run("Transient failure is retried once", func(t *testing.T) {
		attempts := 0
		err := db.withRetry(context.Background(), "test", func(ctx context.Context) error {
			attempts++
			if attempts == 1 {
				return sqlite3.Error{Code: sqlite3.ErrBusy}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("Persistent transient failure gives up after the retry", func(t *testing.T) {
		attempts := 0
		err := db.withRetry(context.Background(), "test", func(ctx context.Context) error {
			attempts++
			return driver.ErrBadConn
		})
		assert.ErrorIs(t, err, driver.ErrBadConn)
		assert.Equal(t, 2, attempts)
	})

	t.Run("Permanent failure is not retried", func(t *testing.T) {
		attempts := 0
		err := db.withRetry(context.Background(), "test", func(ctx context.Context) error {
			attempts++
			return fmt.Errorf("%w: bad row", ErrSchemaMismatch)
		})
		assert.ErrorIs(t, err, ErrSchemaMismatch)
		assert.Equal(t, 1, attempts)
	})

	t.Run("Cancelled caller is not retried", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		attempts := 0
		err := db.withRetry(ctx, "test", func(ctx context.Context) error {
			attempts++
			return ctx.Err()
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})

	t.Run("Each attempt has a deadline", func(t *testing.T) {
		err := db.withRetry(context.Background(), "test", func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			if !ok {
				return errors.New("no deadline")
			}
			return nil
		})
		assert.NoError(t, err)
	})
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "Busy database", err: sqlite3.Error{Code: sqlite3.ErrBusy}, expected: true},
		{name: "Locked table", err: fmt.Errorf("wrapped: %w", sqlite3.Error{Code: sqlite3.ErrLocked}), expected: true},
		{name: "Bad connection", err: driver.ErrBadConn, expected: true},
		{name: "Attempt deadline", err: context.DeadlineExceeded, expected: true},
		{name: "Constraint violation", err: sqlite3.Error{Code: sqlite3.ErrConstraint}, expected: false},
		{name: "Schema mismatch", err: ErrSchemaMismatch, expected: false},
		{name: "Plain error", err: errors.New("boom"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isTransient(tt.err))
		})
	}
}
