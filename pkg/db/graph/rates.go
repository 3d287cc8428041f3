package graph

import (
	"context"
	"fmt"
	"time"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
)

const exchangeRatesTable = "exchange_rates"

// HasRateAt reports whether the raw exchange rate table has a row at height.
// It is the existence probe used by height discovery.
func (db *DB) HasRateAt(ctx context.Context, height uint64) (bool, error) {
	start := time.Now()
	query := fmt.Sprintf(`SELECT height FROM %s WHERE height = ? LIMIT 1`, db.rawTable(exchangeRatesTable))

	var found uint64
	err := db.conn.QueryRow(ctx, query, height).Scan(&found)
	err = db.finish("has_rate_at", start, err)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// LoadExchangeRates reads every rate from height 0 to last inclusive. The
// result is indexed by height; a missing height fails the load.
func (db *DB) LoadExchangeRates(ctx context.Context, last uint64) ([]graphmodels.Rate, error) {
	start := time.Now()
	query := fmt.Sprintf(`
		SELECT height, eur, usd
		FROM %s
		WHERE height <= ?
		ORDER BY height
		LIMIT 1 BY height
	`, db.rawTable(exchangeRatesTable))

	var rows []graphmodels.Rate
	if err := db.finish("load_exchange_rates", start, db.conn.Select(ctx, &rows, query, last)); err != nil {
		return nil, err
	}
	if err := checkContiguous(rows, last); err != nil {
		return nil, fmt.Errorf("load exchange rates of %s: %w", db.keyspace.Raw, err)
	}
	return rows, nil
}

// checkContiguous verifies rows hold exactly heights 0..last in order.
func checkContiguous(rows []graphmodels.Rate, last uint64) error {
	for i, r := range rows {
		if r.Height != uint64(i) {
			return fmt.Errorf("gap at height %d: %w", i, ErrMalformedRow)
		}
		if r.EUR < 0 || r.USD < 0 {
			return fmt.Errorf("negative rate at height %d: %w", i, ErrMalformedRow)
		}
	}
	if uint64(len(rows)) != last+1 {
		return fmt.Errorf("expected %d rates, got %d: %w", last+1, len(rows), ErrMalformedRow)
	}
	return nil
}
