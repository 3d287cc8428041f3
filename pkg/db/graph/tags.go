package graph

import (
	"context"
	"fmt"
	"time"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
)

// AddressTags lists every tag attached to address. No tags is an empty slice.
func (db *DB) AddressTags(ctx context.Context, address string) ([]graphmodels.Tag, error) {
	query := fmt.Sprintf(`
		SELECT address AS entity, %s
		FROM %s
		WHERE address_prefix = ? AND address = ?
		ORDER BY source, label
	`, graphmodels.TagColumns, db.table("address_tags"))
	return db.tags(ctx, "address_tags", query, graphmodels.AddressPrefix(address), address)
}

// ClusterTags lists every tag attached to cluster.
func (db *DB) ClusterTags(ctx context.Context, cluster uint64) ([]graphmodels.Tag, error) {
	query := fmt.Sprintf(`
		SELECT toString(cluster) AS entity, %s
		FROM %s
		WHERE cluster = ?
		ORDER BY source, label
	`, graphmodels.TagColumns, db.table("cluster_tags"))
	return db.tags(ctx, "cluster_tags", query, cluster)
}

func (db *DB) tags(ctx context.Context, op, query string, args ...any) ([]graphmodels.Tag, error) {
	start := time.Now()
	var rows []graphmodels.TagRow
	if err := db.finish(op, start, db.conn.Select(ctx, &rows, query, args...)); err != nil {
		return nil, err
	}
	tags := make([]graphmodels.Tag, 0, len(rows))
	for _, r := range rows {
		tags = append(tags, r.ToTag())
	}
	return tags, nil
}

// AddressCluster returns the cluster owning address. An address without a row,
// or whose stored value is not a plain non-negative integer, is unresolved.
func (db *DB) AddressCluster(ctx context.Context, address string) (graphmodels.ClusterID, error) {
	query := fmt.Sprintf(`
		SELECT ifNull(toString(cluster), '') AS cluster
		FROM %s
		WHERE address_prefix = ? AND address = ?
		LIMIT 1
	`, db.table("address_cluster"))

	start := time.Now()
	var raw string
	err := db.finish("address_cluster", start,
		db.conn.QueryRow(ctx, query, graphmodels.AddressPrefix(address), address).Scan(&raw))
	switch {
	case err == nil:
		return graphmodels.ParseClusterID(raw), nil
	case isNotFound(err):
		return graphmodels.Unresolved, nil
	default:
		return graphmodels.Unresolved, err
	}
}
