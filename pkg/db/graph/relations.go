package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
)

// relationTable describes one of the four relation tables. Each is keyed by the
// queried entity; neighbor is the far end and orders the rows. received and
// spent are the neighbor's totals.
type relationTable struct {
	name     string
	key      []string
	neighbor string
	src      string
	dst      string
	received string
	spent    string
}

func relationTableFor(kind graphmodels.NodeType, dir graphmodels.Direction) relationTable {
	switch {
	case kind == graphmodels.NodeAddress && dir.IsOutgoing():
		return relationTable{
			name:     "address_outgoing_relations",
			key:      []string{"src_address_prefix", "src_address"},
			neighbor: "dst_address",
			src:      "src_address",
			dst:      "dst_address",
			received: "dst_total_received",
			spent:    "dst_total_spent",
		}
	case kind == graphmodels.NodeAddress:
		return relationTable{
			name:     "address_incoming_relations",
			key:      []string{"dst_address_prefix", "dst_address"},
			neighbor: "src_address",
			src:      "src_address",
			dst:      "dst_address",
			received: "src_total_received",
			spent:    "src_total_spent",
		}
	case dir.IsOutgoing():
		return relationTable{
			name:     "cluster_outgoing_relations",
			key:      []string{"src_cluster"},
			neighbor: "dst_cluster",
			src:      "toString(src_cluster)",
			dst:      "toString(dst_cluster)",
			received: "dst_total_received",
			spent:    "dst_total_spent",
		}
	default:
		return relationTable{
			name:     "cluster_incoming_relations",
			key:      []string{"dst_cluster"},
			neighbor: "src_cluster",
			src:      "toString(src_cluster)",
			dst:      "toString(dst_cluster)",
			received: "src_total_received",
			spent:    "src_total_spent",
		}
	}
}

const relationColumns = `src, dst, no_transactions, estimated_value, neighbor_received, neighbor_spent`

// relationQuery renders the statement for t. The limited variant caps the
// candidate set in a subquery so paging never walks past the total limit.
// Placeholders: key values, then the limit when limited, then offset and fetch.
func relationQuery(qualified string, t relationTable, limited bool) string {
	where := make([]string, 0, len(t.key))
	for _, k := range t.key {
		where = append(where, k+" = ?")
	}

	inner := fmt.Sprintf(`SELECT %s AS src, %s AS dst, no_transactions, estimated_value,
			%s AS neighbor_received, %s AS neighbor_spent, %s AS ord
		FROM %s
		WHERE %s
		ORDER BY ord`, t.src, t.dst, t.received, t.spent, t.neighbor, qualified, strings.Join(where, " AND "))

	if !limited {
		return fmt.Sprintf(`SELECT %s FROM (
		%s
	) ORDER BY ord LIMIT ?, ?`, relationColumns, inner)
	}
	return fmt.Sprintf(`SELECT %s FROM (
		%s
		LIMIT ?
	) ORDER BY ord LIMIT ?, ?`, relationColumns, inner)
}

// AddressRelations pages the relations ending at (Incoming) or starting at
// (Outgoing) address.
func (db *DB) AddressRelations(ctx context.Context, address string, dir graphmodels.Direction, q paging.Query) (paging.Page[graphmodels.RelationRow], error) {
	return db.relations(ctx, graphmodels.NodeAddress, dir, q, graphmodels.AddressPrefix(address), address)
}

// ClusterRelations pages the relations ending at or starting at cluster.
func (db *DB) ClusterRelations(ctx context.Context, cluster uint64, dir graphmodels.Direction, q paging.Query) (paging.Page[graphmodels.RelationRow], error) {
	return db.relations(ctx, graphmodels.NodeCluster, dir, q, cluster)
}

func (db *DB) relations(ctx context.Context, kind graphmodels.NodeType, dir graphmodels.Direction, q paging.Query, key ...any) (paging.Page[graphmodels.RelationRow], error) {
	op := fmt.Sprintf("%s_%s_relations", kind, dir)

	w, done, err := paging.Plan(q)
	if err != nil {
		return paging.Page[graphmodels.RelationRow]{}, fmt.Errorf("%s: %w", op, err)
	}
	if done {
		return paging.Page[graphmodels.RelationRow]{}, nil
	}

	t := relationTableFor(kind, dir)
	limited := w.Limit != nil
	args := append([]any{}, key...)
	if limited {
		args = append(args, *w.Limit)
	}
	args = append(args, w.Offset, w.Fetch())

	start := time.Now()
	var rows []graphmodels.RelationRow
	err = db.conn.Select(ctx, &rows, relationQuery(db.table(t.name), t, limited), args...)
	if err := db.finish(op, start, err); err != nil {
		return paging.Page[graphmodels.RelationRow]{}, err
	}
	return paging.Finish(w, rows), nil
}
