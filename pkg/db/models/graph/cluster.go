package graph

import (
	"fmt"
)

// Cluster aggregates every address merged into one entity.
type Cluster struct {
	Cluster       uint64 `json:"cluster"`
	NoAddresses   uint32 `json:"noAddresses"`
	Balance       Value  `json:"balance"`
	FirstTx       TxRef  `json:"firstTx"`
	LastTx        TxRef  `json:"lastTx"`
	InDegree      uint32 `json:"inDegree"`
	OutDegree     uint32 `json:"outDegree"`
	NoIncomingTxs uint32 `json:"noIncomingTxs"`
	NoOutgoingTxs uint32 `json:"noOutgoingTxs"`
	TotalReceived Value  `json:"totalReceived"`
	TotalSpent    Value  `json:"totalSpent"`
	Tags          []Tag  `json:"tags"`
}

// ClusterColumns is the select list matching ClusterRow.
const ClusterColumns = `cluster, no_addresses, no_incoming_txs, no_outgoing_txs,
		first_tx_height, first_tx_timestamp, first_tx_hash,
		last_tx_height, last_tx_timestamp, last_tx_hash,
		in_degree, out_degree, total_received, total_spent`

// ClusterRow mirrors a row of the cluster table.
type ClusterRow struct {
	Cluster          uint64 `ch:"cluster"`
	NoAddresses      uint32 `ch:"no_addresses"`
	NoIncomingTxs    uint32 `ch:"no_incoming_txs"`
	NoOutgoingTxs    uint32 `ch:"no_outgoing_txs"`
	FirstTxHeight    uint64 `ch:"first_tx_height"`
	FirstTxTimestamp int64  `ch:"first_tx_timestamp"`
	FirstTxHash      string `ch:"first_tx_hash"`
	LastTxHeight     uint64 `ch:"last_tx_height"`
	LastTxTimestamp  int64  `ch:"last_tx_timestamp"`
	LastTxHash       string `ch:"last_tx_hash"`
	InDegree         uint32 `ch:"in_degree"`
	OutDegree        uint32 `ch:"out_degree"`
	TotalReceived    int64  `ch:"total_received"`
	TotalSpent       int64  `ch:"total_spent"`
}

func (r ClusterRow) ToCluster(rate Rate) (*Cluster, error) {
	balance, err := balanceOf(r.TotalReceived, r.TotalSpent)
	if err != nil {
		return nil, fmt.Errorf("cluster %d: %w", r.Cluster, err)
	}
	return &Cluster{
		Cluster:       r.Cluster,
		NoAddresses:   r.NoAddresses,
		Balance:       NewValue(balance, rate),
		FirstTx:       TxRef{Height: r.FirstTxHeight, Timestamp: r.FirstTxTimestamp, TxHash: r.FirstTxHash},
		LastTx:        TxRef{Height: r.LastTxHeight, Timestamp: r.LastTxTimestamp, TxHash: r.LastTxHash},
		InDegree:      r.InDegree,
		OutDegree:     r.OutDegree,
		NoIncomingTxs: r.NoIncomingTxs,
		NoOutgoingTxs: r.NoOutgoingTxs,
		TotalReceived: NewValue(r.TotalReceived, rate),
		TotalSpent:    NewValue(r.TotalSpent, rate),
		Tags:          []Tag{},
	}, nil
}
