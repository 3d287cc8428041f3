package search

import (
	"context"
	"fmt"
)

// ResolveCandidates looks up the owning cluster of every address, in order.
// Addresses without a cluster are kept as unresolved candidates; they never
// match.
func ResolveCandidates(ctx context.Context, r ClusterResolver, addresses []string) ([]Candidate, error) {
	if addresses == nil {
		return nil, nil
	}
	out := make([]Candidate, 0, len(addresses))
	for _, addr := range addresses {
		id, err := r.AddressClusterID(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("resolve cluster of %s: %w", addr, err)
		}
		out = append(out, Candidate{Address: addr, Cluster: id})
	}
	return out, nil
}
