package currency

import (
	"context"
	"strconv"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
)

// AddressEgonet draws address with up to limit neighbors per direction in dirs.
func (s *Service) AddressEgonet(ctx context.Context, address string, dirs []graphmodels.Direction, limit int) (*graphmodels.Egonet, error) {
	addr, err := s.Address(ctx, address)
	if err != nil {
		return nil, err
	}
	focus := graphmodels.EgonetNode{
		ID:       addr.Address,
		NodeType: graphmodels.NodeAddress,
		Balance:  addr.Balance.Value,
		Received: addr.TotalReceived.Value,
	}
	return egonet(focus, dirs, func(dir graphmodels.Direction) (paging.Page[graphmodels.Relation], error) {
		return s.AddressRelations(ctx, address, dir, paging.Query{PageSize: limit}.WithLimit(limit))
	})
}

// ClusterEgonet draws cluster with up to limit neighbors per direction in dirs.
func (s *Service) ClusterEgonet(ctx context.Context, cluster uint64, dirs []graphmodels.Direction, limit int) (*graphmodels.Egonet, error) {
	c, err := s.Cluster(ctx, cluster)
	if err != nil {
		return nil, err
	}
	focus := graphmodels.EgonetNode{
		ID:       strconv.FormatUint(c.Cluster, 10),
		NodeType: graphmodels.NodeCluster,
		Balance:  c.Balance.Value,
		Received: c.TotalReceived.Value,
	}
	return egonet(focus, dirs, func(dir graphmodels.Direction) (paging.Page[graphmodels.Relation], error) {
		return s.ClusterRelations(ctx, cluster, dir, paging.Query{PageSize: limit}.WithLimit(limit))
	})
}

func egonet(focus graphmodels.EgonetNode, dirs []graphmodels.Direction, relations func(graphmodels.Direction) (paging.Page[graphmodels.Relation], error)) (*graphmodels.Egonet, error) {
	groups := make([][]graphmodels.Relation, 0, len(dirs))
	for _, dir := range dirs {
		page, err := relations(dir)
		if err != nil {
			return nil, err
		}
		groups = append(groups, page.Items)
	}
	return graphmodels.NewEgonet(focus, groups...), nil
}
