package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/monacohq/graphsense-REST/pkg/db/clickhouse"
	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/metrics"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when the requested entity has no row.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable wraps every driver, network or server failure.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrMalformedRow is re-exported so callers only need this package.
	ErrMalformedRow = graphmodels.ErrMalformedRow
)

// Keyspace names the two databases backing a currency: Raw holds block level
// data such as exchange rates, Transformed holds the derived entity graph.
type Keyspace struct {
	Raw         string
	Transformed string
}

// Validate checks both names are set.
func (k Keyspace) Validate() error {
	if k.Raw == "" || k.Transformed == "" {
		return fmt.Errorf("keyspace requires both raw and transformed databases, got raw=%q transformed=%q", k.Raw, k.Transformed)
	}
	return nil
}

// conn is the subset of driver.Conn the store reads through.
type conn interface {
	Select(ctx context.Context, dest any, query string, args ...any) error
	QueryRow(ctx context.Context, query string, args ...any) driver.Row
	Ping(ctx context.Context) error
}

// DB reads one currency's keyspace. It implements Store. Many DB values share
// one connection pool.
type DB struct {
	Logger   *zap.Logger
	keyspace Keyspace
	conn     conn
}

// NewWithSharedClient binds a keyspace to an existing ClickHouse pool. The
// databases must already exist; nothing is created.
func NewWithSharedClient(client clickhouse.Client, keyspace Keyspace) *DB {
	return &DB{
		Logger: client.Logger.With(
			zap.String("raw", keyspace.Raw),
			zap.String("transformed", keyspace.Transformed),
		),
		keyspace: keyspace,
		conn:     client.Db,
	}
}

func (db *DB) Keyspace() Keyspace {
	return db.keyspace
}

// Ping checks the shared pool answers.
func (db *DB) Ping(ctx context.Context) error {
	start := time.Now()
	return db.finish("ping", start, db.conn.Ping(ctx))
}

// finish classifies err and records the query latency.
func (db *DB) finish(query string, start time.Time, err error) error {
	err = classify(query, err)
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	default:
		status = "error"
	}
	metrics.ObserveQuery(query, start, status)
	return err
}

// classify maps driver errors onto the package sentinels. Cancellation by the
// caller passes through untouched so handlers can tell it apart from outages.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case clickhouse.IsNoRows(err):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, ErrMalformedRow), errors.Is(err, ErrNotFound), errors.Is(err, ErrStoreUnavailable):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// table qualifies name inside the transformed database.
func (db *DB) table(name string) string {
	return fmt.Sprintf(`"%s"."%s"`, db.keyspace.Transformed, name)
}

// rawTable qualifies name inside the raw database.
func (db *DB) rawTable(name string) string {
	return fmt.Sprintf(`"%s"."%s"`, db.keyspace.Raw, name)
}
