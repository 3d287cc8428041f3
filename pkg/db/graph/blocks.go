package graph

import (
	"context"
	"fmt"
	"time"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
)

// Block returns the raw block at height, or ErrNotFound.
func (db *DB) Block(ctx context.Context, height uint64) (*graphmodels.Block, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE height = ?
		LIMIT 1
	`, graphmodels.BlockColumns, db.rawTable("block"))

	start := time.Now()
	var rows []graphmodels.Block
	err := db.conn.Select(ctx, &rows, query, height)
	if err == nil && len(rows) == 0 {
		err = fmt.Errorf("block %d: %w", height, ErrNotFound)
	}
	if err := db.finish("block", start, err); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// Blocks pages the raw blocks, newest first.
func (db *DB) Blocks(ctx context.Context, q paging.Query) (paging.Page[graphmodels.Block], error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY height DESC
		LIMIT ?, ?
	`, graphmodels.BlockColumns, db.rawTable("block"))
	return selectPage[graphmodels.Block](ctx, db, "blocks", q, query)
}

// BlockTransactions lists every transaction of the block at height in block
// order, or ErrNotFound when the block has none.
func (db *DB) BlockTransactions(ctx context.Context, height uint64) ([]graphmodels.BlockTransactionRow, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE height = ?
		ORDER BY tx_index
	`, graphmodels.BlockTransactionColumns, db.rawTable("block_transactions"))

	start := time.Now()
	var rows []graphmodels.BlockTransactionRow
	err := db.conn.Select(ctx, &rows, query, height)
	if err == nil && len(rows) == 0 {
		err = fmt.Errorf("transactions of block %d: %w", height, ErrNotFound)
	}
	if err := db.finish("block_transactions", start, err); err != nil {
		return nil, err
	}
	return rows, nil
}

// Transaction returns the raw transaction with the given hex hash, or
// ErrNotFound.
func (db *DB) Transaction(ctx context.Context, txHash string) (*graphmodels.TransactionRow, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE tx_prefix = ? AND tx_hash = ?
		LIMIT 1
	`, graphmodels.TransactionColumns, db.rawTable("transaction"))

	start := time.Now()
	var rows []graphmodels.TransactionRow
	err := db.conn.Select(ctx, &rows, query, graphmodels.TxPrefix(txHash), txHash)
	if err == nil && len(rows) == 0 {
		err = fmt.Errorf("transaction %s: %w", txHash, ErrNotFound)
	}
	if err := db.finish("transaction", start, err); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// Transactions pages the raw transactions, newest first.
func (db *DB) Transactions(ctx context.Context, q paging.Query) (paging.Page[graphmodels.TransactionRow], error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY height DESC, tx_hash
		LIMIT ?, ?
	`, graphmodels.TransactionColumns, db.rawTable("transaction"))
	return selectPage[graphmodels.TransactionRow](ctx, db, "transactions", q, query)
}

// SearchAddresses lists up to limit addresses starting with expression. The
// shard key of expression must already be complete.
func (db *DB) SearchAddresses(ctx context.Context, expression string, limit int) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT address AS hit
		FROM %s
		WHERE address_prefix = ? AND startsWith(address, ?)
		ORDER BY address
		LIMIT ?
	`, db.table("address"))
	return db.search(ctx, "search_addresses", query, graphmodels.AddressPrefix(expression), expression, limit)
}

// SearchTransactions lists up to limit transaction hashes starting with
// expression.
func (db *DB) SearchTransactions(ctx context.Context, expression string, limit int) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT tx_hash AS hit
		FROM %s
		WHERE tx_prefix = ? AND startsWith(tx_hash, ?)
		ORDER BY tx_hash
		LIMIT ?
	`, db.rawTable("transaction"))
	return db.search(ctx, "search_transactions", query, graphmodels.TxPrefix(expression), expression, limit)
}

// searchHit is one row of a prefix search.
type searchHit struct {
	Hit string `ch:"hit"`
}

func (db *DB) search(ctx context.Context, op, query string, args ...any) ([]string, error) {
	start := time.Now()
	var rows []searchHit
	if err := db.finish(op, start, db.conn.Select(ctx, &rows, query, args...)); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Hit)
	}
	return out, nil
}
