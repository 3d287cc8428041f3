package graph

import (
	"context"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
)

// Store describes the read operations one currency's keyspace supports. Rows
// come back unvalued; converting amounts to fiat is the caller's concern.
type Store interface {
	Keyspace() Keyspace
	Ping(ctx context.Context) error

	// --- Exchange rates

	HasRateAt(ctx context.Context, height uint64) (bool, error)
	LoadExchangeRates(ctx context.Context, last uint64) ([]graphmodels.Rate, error)

	// --- Relations

	AddressRelations(ctx context.Context, address string, dir graphmodels.Direction, q paging.Query) (paging.Page[graphmodels.RelationRow], error)
	ClusterRelations(ctx context.Context, cluster uint64, dir graphmodels.Direction, q paging.Query) (paging.Page[graphmodels.RelationRow], error)

	// --- Tags and cluster membership

	AddressTags(ctx context.Context, address string) ([]graphmodels.Tag, error)
	ClusterTags(ctx context.Context, cluster uint64) ([]graphmodels.Tag, error)
	AddressCluster(ctx context.Context, address string) (graphmodels.ClusterID, error)

	// --- Entities

	Address(ctx context.Context, address string) (*graphmodels.AddressRow, error)
	AddressTransactions(ctx context.Context, address string, q paging.Query) (paging.Page[graphmodels.AddressTransactionRow], error)
	Cluster(ctx context.Context, cluster uint64) (*graphmodels.ClusterRow, error)
	ClusterAddresses(ctx context.Context, cluster uint64, q paging.Query) (paging.Page[graphmodels.ClusterAddressRow], error)
	Statistics(ctx context.Context) (*graphmodels.Statistics, error)

	// --- Blocks and raw transactions

	Block(ctx context.Context, height uint64) (*graphmodels.Block, error)
	Blocks(ctx context.Context, q paging.Query) (paging.Page[graphmodels.Block], error)
	BlockTransactions(ctx context.Context, height uint64) ([]graphmodels.BlockTransactionRow, error)
	Transaction(ctx context.Context, txHash string) (*graphmodels.TransactionRow, error)
	Transactions(ctx context.Context, q paging.Query) (paging.Page[graphmodels.TransactionRow], error)

	// --- Prefix search

	SearchAddresses(ctx context.Context, expression string, limit int) ([]string, error)
	SearchTransactions(ctx context.Context, expression string, limit int) ([]string, error)
}
