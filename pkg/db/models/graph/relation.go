package graph

import (
	"fmt"
)

// NodeType tells which kind of entity a relation connects.
type NodeType string

const (
	NodeAddress NodeType = "address"
	NodeCluster NodeType = "cluster"
)

// Relation is a directed edge summarising every transfer from Source to Target.
// ID, Balance and Received describe the neighbor: the far end as seen from the
// queried entity.
type Relation struct {
	ID             string   `json:"id"`
	Source         string   `json:"source"`
	Target         string   `json:"target"`
	NodeType       NodeType `json:"nodeType"`
	Balance        Value    `json:"balance"`
	Received       Value    `json:"received"`
	NoTransactions uint32   `json:"noTransactions"`
	EstimatedValue Value    `json:"estimatedValue"`
}

// Neighbor returns the far end of the edge as seen from the queried entity.
func (r Relation) Neighbor(dir Direction) string {
	if dir.IsOutgoing() {
		return r.Target
	}
	return r.Source
}

// RelationRow is the common shape of the four relation tables. Entity columns are
// aliased to src/dst so one adapter serves address and cluster relations; the
// neighbor totals come from the dst_* columns of outgoing tables and the src_*
// columns of incoming ones.
type RelationRow struct {
	Src              string `ch:"src"`
	Dst              string `ch:"dst"`
	NoTransactions   uint32 `ch:"no_transactions"`
	EstimatedValue   int64  `ch:"estimated_value"`
	NeighborReceived int64  `ch:"neighbor_received"`
	NeighborSpent    int64  `ch:"neighbor_spent"`
}

// ToRelation adapts a row read in direction dir. The neighbor's totals are
// valued with rate like the edge itself.
func (r RelationRow) ToRelation(kind NodeType, dir Direction, rate Rate) (*Relation, error) {
	if r.Src == "" || r.Dst == "" {
		return nil, fmt.Errorf("%s relation %q->%q: missing endpoint: %w", kind, r.Src, r.Dst, ErrMalformedRow)
	}
	if r.EstimatedValue < 0 {
		return nil, fmt.Errorf("%s relation %s->%s: negative value %d: %w", kind, r.Src, r.Dst, r.EstimatedValue, ErrMalformedRow)
	}
	balance, err := balanceOf(r.NeighborReceived, r.NeighborSpent)
	if err != nil {
		return nil, fmt.Errorf("%s relation %s->%s: neighbor: %w", kind, r.Src, r.Dst, err)
	}
	rel := &Relation{
		Source:         r.Src,
		Target:         r.Dst,
		NodeType:       kind,
		Balance:        NewValue(balance, rate),
		Received:       NewValue(r.NeighborReceived, rate),
		NoTransactions: r.NoTransactions,
		EstimatedValue: NewValue(r.EstimatedValue, rate),
	}
	rel.ID = rel.Neighbor(dir)
	return rel, nil
}
