package graph

import (
	"context"
	"fmt"
	"time"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
)

// Address returns the aggregate row of address, or ErrNotFound.
func (db *DB) Address(ctx context.Context, address string) (*graphmodels.AddressRow, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE address_prefix = ? AND address = ?
		LIMIT 1
	`, graphmodels.AddressColumns, db.table("address"))

	start := time.Now()
	var rows []graphmodels.AddressRow
	err := db.conn.Select(ctx, &rows, query, graphmodels.AddressPrefix(address), address)
	if err == nil && len(rows) == 0 {
		err = fmt.Errorf("address %s: %w", address, ErrNotFound)
	}
	if err := db.finish("address", start, err); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// AddressTransactions pages the transactions touching address, newest first.
func (db *DB) AddressTransactions(ctx context.Context, address string, q paging.Query) (paging.Page[graphmodels.AddressTransactionRow], error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE address_prefix = ? AND address = ?
		ORDER BY height DESC, tx_index DESC
		LIMIT ?, ?
	`, graphmodels.AddressTransactionColumns, db.table("address_transactions"))
	return selectPage[graphmodels.AddressTransactionRow](ctx, db, "address_transactions", q, query,
		graphmodels.AddressPrefix(address), address)
}

// Cluster returns the aggregate row of cluster, or ErrNotFound.
func (db *DB) Cluster(ctx context.Context, cluster uint64) (*graphmodels.ClusterRow, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE cluster = ?
		LIMIT 1
	`, graphmodels.ClusterColumns, db.table("cluster"))

	start := time.Now()
	var rows []graphmodels.ClusterRow
	err := db.conn.Select(ctx, &rows, query, cluster)
	if err == nil && len(rows) == 0 {
		err = fmt.Errorf("cluster %d: %w", cluster, ErrNotFound)
	}
	if err := db.finish("cluster", start, err); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// ClusterAddresses pages the member addresses of cluster.
func (db *DB) ClusterAddresses(ctx context.Context, cluster uint64, q paging.Query) (paging.Page[graphmodels.ClusterAddressRow], error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE cluster = ?
		ORDER BY address
		LIMIT ?, ?
	`, graphmodels.ClusterAddressColumns, db.table("cluster_addresses"))
	return selectPage[graphmodels.ClusterAddressRow](ctx, db, "cluster_addresses", q, query, cluster)
}

// Statistics returns the most recent summary row of the keyspace.
func (db *DB) Statistics(ctx context.Context) (*graphmodels.Statistics, error) {
	query := fmt.Sprintf(`
		SELECT timestamp, no_blocks, no_transactions, no_addresses, no_clusters
		FROM %s
		ORDER BY timestamp DESC
		LIMIT 1
	`, db.table("summary_statistics"))

	start := time.Now()
	var s graphmodels.Statistics
	err := db.conn.QueryRow(ctx, query).Scan(
		&s.Timestamp,
		&s.NoBlocks,
		&s.NoTransactions,
		&s.NoAddresses,
		&s.NoClusters,
	)
	if err := db.finish("statistics", start, err); err != nil {
		return nil, err
	}
	return &s, nil
}

// selectPage runs a query whose last two placeholders are offset and fetch,
// honouring q's cursor, page size and total limit.
func selectPage[T any](ctx context.Context, db *DB, op string, q paging.Query, query string, args ...any) (paging.Page[T], error) {
	w, done, err := paging.Plan(q)
	if err != nil {
		return paging.Page[T]{}, fmt.Errorf("%s: %w", op, err)
	}
	if done {
		return paging.Page[T]{}, nil
	}

	start := time.Now()
	var rows []T
	err = db.conn.Select(ctx, &rows, query, append(args, w.Offset, w.Fetch())...)
	if err := db.finish(op, start, err); err != nil {
		return paging.Page[T]{}, err
	}
	return paging.Finish(w, rows), nil
}
