// Package search walks the cluster relation graph outward from one cluster and
// reports the paths that reach clusters matching a tag category or holding one
// of a set of candidate addresses.
package search

import (
	"context"
	"errors"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
)

// ErrInvalidArgument is returned for requests rejected before any store access.
var ErrInvalidArgument = errors.New("invalid argument")

// Source is the per-currency read surface the engine traverses.
type Source interface {
	Currency() string
	ClusterRelations(ctx context.Context, cluster uint64, dir graphmodels.Direction, q paging.Query) (paging.Page[graphmodels.Relation], error)
	ClusterTags(ctx context.Context, cluster uint64) ([]graphmodels.Tag, error)
	Cluster(ctx context.Context, cluster uint64) (*graphmodels.Cluster, error)
	AddressWithTags(ctx context.Context, address string) (*graphmodels.Address, error)
}

// ClusterResolver maps an address to its owning cluster.
type ClusterResolver interface {
	AddressClusterID(ctx context.Context, address string) (graphmodels.ClusterID, error)
}

// Candidate is an address the caller is looking for, with its owning cluster
// resolved up front.
type Candidate struct {
	Address string
	Cluster graphmodels.ClusterID
}

// Request describes one search.
type Request struct {
	Cluster   uint64
	Direction graphmodels.Direction
	// Category, when not empty, matches clusters carrying a tag of that category.
	Category string
	// Candidates, when not nil, matches clusters owning one of the addresses.
	Candidates []Candidate
	// Breadth caps the relation edges examined per cluster.
	Breadth int
	// Depth caps the hops taken from the start cluster.
	Depth int
}

// PathNode is one cluster reached by the search. A node either terminates a
// path (Paths is nil, MatchingAddresses lists the candidates it owns) or leads
// to matches further out (Paths holds them, MatchingAddresses is empty).
type PathNode struct {
	Node              graphmodels.Cluster   `json:"node"`
	Relation          graphmodels.Relation  `json:"relation"`
	MatchingAddresses []graphmodels.Address `json:"matchingAddresses"`
	Paths             []PathNode            `json:"paths"`
}

// IsLeaf reports whether the node terminates its path.
func (n PathNode) IsLeaf() bool {
	return n.Paths == nil
}

type outcomeKind uint8

const (
	pruned outcomeKind = iota
	leaf
	subtree
)

// outcome is the result of evaluating one neighbor: dropped, matched here with
// the candidates it owns, or matched further out through children.
type outcome struct {
	kind     outcomeKind
	matches  []Candidate
	children []PathNode
}
