// Package currency binds one currency's keyspace to its exchange rate snapshot
// and serves valued entity records on top of the raw store rows.
package currency

import (
	"context"
	"fmt"
	"strconv"

	"github.com/monacohq/graphsense-REST/pkg/db/graph"
	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
	"github.com/monacohq/graphsense-REST/pkg/metrics"
	"github.com/monacohq/graphsense-REST/pkg/rates"
	"go.uber.org/zap"
)

// Cache is the optional read-through cache for lookups that do not change
// while a dataset is served.
type Cache interface {
	Key(parts ...string) string
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any)
}

// Service is the explicit per-currency context: an immutable store handle and
// rate snapshot built once at startup and shared by every request.
type Service struct {
	Name   string
	Store  graph.Store
	Rates  *rates.Snapshot
	Logger *zap.Logger

	cache Cache
}

// Load discovers the last exchange rate height of store, loads the snapshot and
// returns the ready service.
func Load(ctx context.Context, name string, store graph.Store, logger *zap.Logger) (*Service, error) {
	logger = logger.With(zap.String("currency", name))

	snapshot, err := rates.Load(ctx, store, logger)
	if err != nil {
		return nil, fmt.Errorf("currency %s: %w", name, err)
	}

	logger.Info("Loaded exchange rate snapshot",
		zap.Uint64("last_height", snapshot.LastHeight()),
		zap.Float64("eur", snapshot.Last().EUR),
		zap.Float64("usd", snapshot.Last().USD),
	)

	return &Service{
		Name:   name,
		Store:  store,
		Rates:  snapshot,
		Logger: logger,
	}, nil
}

// WithCache returns s reading tags and cluster ids through c. A nil c disables
// caching.
func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

// Currency names the service; it labels metrics.
func (s *Service) Currency() string {
	return s.Name
}

// ExchangeRates lists the snapshot newest first.
func (s *Service) ExchangeRates(offset, limit int) ([]graphmodels.Rate, bool) {
	return s.Rates.List(offset, limit)
}

// Statistics returns the keyspace summary with the snapshot's last height.
func (s *Service) Statistics(ctx context.Context) (*graphmodels.Statistics, error) {
	stats, err := s.Store.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	stats.LastHeight = s.Rates.LastHeight()
	return stats, nil
}

// --- Addresses

func (s *Service) Address(ctx context.Context, address string) (*graphmodels.Address, error) {
	row, err := s.Store.Address(ctx, address)
	if err != nil {
		return nil, err
	}
	return row.ToAddress(s.Rates.Last())
}

// AddressWithTags is Address with its explicit tags attached.
func (s *Service) AddressWithTags(ctx context.Context, address string) (*graphmodels.Address, error) {
	addr, err := s.Address(ctx, address)
	if err != nil {
		return nil, err
	}
	tags, err := s.AddressTags(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		addr.Tags = tags
	}
	return addr, nil
}

func (s *Service) AddressTags(ctx context.Context, address string) ([]graphmodels.Tag, error) {
	return cached(ctx, s, "address_tags", address, func() ([]graphmodels.Tag, error) {
		return s.Store.AddressTags(ctx, address)
	})
}

// ImplicitTags returns the tags of the cluster owning address. An unresolved
// address has none.
func (s *Service) ImplicitTags(ctx context.Context, address string) ([]graphmodels.Tag, error) {
	id, err := s.AddressClusterID(ctx, address)
	if err != nil {
		return nil, err
	}
	cluster, ok := id.Value()
	if !ok {
		return []graphmodels.Tag{}, nil
	}
	return s.ClusterTags(ctx, cluster)
}

// AddressClusterID resolves the cluster owning address.
func (s *Service) AddressClusterID(ctx context.Context, address string) (graphmodels.ClusterID, error) {
	return cached(ctx, s, "address_cluster", address, func() (graphmodels.ClusterID, error) {
		return s.Store.AddressCluster(ctx, address)
	})
}

// AddressCluster returns the cluster owning address, or graph.ErrNotFound when
// the address is not clustered.
func (s *Service) AddressCluster(ctx context.Context, address string) (*graphmodels.Cluster, error) {
	id, err := s.AddressClusterID(ctx, address)
	if err != nil {
		return nil, err
	}
	cluster, ok := id.Value()
	if !ok {
		return nil, fmt.Errorf("address %s has no cluster: %w", address, graph.ErrNotFound)
	}
	return s.Cluster(ctx, cluster)
}

func (s *Service) AddressClusterWithTags(ctx context.Context, address string) (*graphmodels.Cluster, error) {
	c, err := s.AddressCluster(ctx, address)
	if err != nil {
		return nil, err
	}
	return s.withClusterTags(ctx, c)
}

// AddressTransactions pages the transactions of address, each valued at its
// own height.
func (s *Service) AddressTransactions(ctx context.Context, address string, q paging.Query) (paging.Page[graphmodels.AddressTransaction], error) {
	page, err := s.Store.AddressTransactions(ctx, address, q)
	if err != nil {
		return paging.Page[graphmodels.AddressTransaction]{}, err
	}
	return paging.Map(page, func(r graphmodels.AddressTransactionRow) (graphmodels.AddressTransaction, error) {
		tx, err := r.ToTransaction(s.Rates.At(r.Height))
		if err != nil {
			return graphmodels.AddressTransaction{}, err
		}
		return *tx, nil
	})
}

func (s *Service) AddressRelations(ctx context.Context, address string, dir graphmodels.Direction, q paging.Query) (paging.Page[graphmodels.Relation], error) {
	page, err := s.Store.AddressRelations(ctx, address, dir, q)
	if err != nil {
		return paging.Page[graphmodels.Relation]{}, err
	}
	return s.valueRelations(page, graphmodels.NodeAddress, dir)
}

// --- Clusters

func (s *Service) Cluster(ctx context.Context, cluster uint64) (*graphmodels.Cluster, error) {
	row, err := s.Store.Cluster(ctx, cluster)
	if err != nil {
		return nil, err
	}
	return row.ToCluster(s.Rates.Last())
}

func (s *Service) ClusterWithTags(ctx context.Context, cluster uint64) (*graphmodels.Cluster, error) {
	c, err := s.Cluster(ctx, cluster)
	if err != nil {
		return nil, err
	}
	return s.withClusterTags(ctx, c)
}

func (s *Service) ClusterTags(ctx context.Context, cluster uint64) ([]graphmodels.Tag, error) {
	return cached(ctx, s, "cluster_tags", strconv.FormatUint(cluster, 10), func() ([]graphmodels.Tag, error) {
		return s.Store.ClusterTags(ctx, cluster)
	})
}

func (s *Service) ClusterAddresses(ctx context.Context, cluster uint64, q paging.Query) (paging.Page[graphmodels.ClusterAddress], error) {
	page, err := s.Store.ClusterAddresses(ctx, cluster, q)
	if err != nil {
		return paging.Page[graphmodels.ClusterAddress]{}, err
	}
	rate := s.Rates.Last()
	return paging.Map(page, func(r graphmodels.ClusterAddressRow) (graphmodels.ClusterAddress, error) {
		a, err := r.ToClusterAddress(rate)
		if err != nil {
			return graphmodels.ClusterAddress{}, err
		}
		return *a, nil
	})
}

// ClusterRelations pages the relations of cluster valued at the last height.
func (s *Service) ClusterRelations(ctx context.Context, cluster uint64, dir graphmodels.Direction, q paging.Query) (paging.Page[graphmodels.Relation], error) {
	page, err := s.Store.ClusterRelations(ctx, cluster, dir, q)
	if err != nil {
		return paging.Page[graphmodels.Relation]{}, err
	}
	return s.valueRelations(page, graphmodels.NodeCluster, dir)
}

func (s *Service) withClusterTags(ctx context.Context, c *graphmodels.Cluster) (*graphmodels.Cluster, error) {
	tags, err := s.ClusterTags(ctx, c.Cluster)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		c.Tags = tags
	}
	return c, nil
}

func (s *Service) valueRelations(page paging.Page[graphmodels.RelationRow], kind graphmodels.NodeType, dir graphmodels.Direction) (paging.Page[graphmodels.Relation], error) {
	rate := s.Rates.Last()
	return paging.Map(page, func(r graphmodels.RelationRow) (graphmodels.Relation, error) {
		rel, err := r.ToRelation(kind, dir, rate)
		if err != nil {
			return graphmodels.Relation{}, err
		}
		return *rel, nil
	})
}

// cached serves kind/id from the cache when present and fills it after a store
// read otherwise. Cache failures fall back to the store.
func cached[T any](ctx context.Context, s *Service, kind, id string, load func() (T, error)) (T, error) {
	if s.cache == nil {
		return load()
	}

	key := s.cache.Key(s.Name, kind, id)
	var hit T
	found, err := s.cache.GetJSON(ctx, key, &hit)
	switch {
	case err != nil:
		s.Logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
	case found:
		metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
		return hit, nil
	default:
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	s.cache.SetJSON(ctx, key, v)
	return v, nil
}
