package graph

import (
	"fmt"
)

// AddressPrefixLength is the number of leading address characters used as the
// shard key of every address-keyed table.
const AddressPrefixLength = 5

// AddressPrefix returns the shard key for an address.
func AddressPrefix(address string) string {
	return leading(address, AddressPrefixLength)
}

// leading returns the first n characters of s, never a partial UTF-8 sequence.
func leading(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// TxRef points at a transaction by height, block time and hash.
type TxRef struct {
	Height    uint64 `json:"height"`
	Timestamp int64  `json:"timestamp"`
	TxHash    string `json:"tx_hash"`
}

// Address is the aggregate view of one address. Money fields are valued at the
// exchange rate snapshot's last height.
type Address struct {
	Address       string `json:"address"`
	AddressPrefix string `json:"address_prefix"`
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

// AddressColumns is the select list matching AddressRow.
const AddressColumns = `address_prefix, address, no_incoming_txs, no_outgoing_txs,
		first_tx_height, first_tx_timestamp, first_tx_hash,
		last_tx_height, last_tx_timestamp, last_tx_hash,
		in_degree, out_degree, total_received, total_spent`

// AddressRow mirrors a row of the address table.
type AddressRow struct {
	AddressPrefix    string `ch:"address_prefix"`
	Address          string `ch:"address"`
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

// ToAddress adapts the row into an Address valued with rate.
func (r AddressRow) ToAddress(rate Rate) (*Address, error) {
	if r.Address == "" {
		return nil, fmt.Errorf("address row: empty address: %w", ErrMalformedRow)
	}
	balance, err := balanceOf(r.TotalReceived, r.TotalSpent)
	if err != nil {
		return nil, fmt.Errorf("address %s: %w", r.Address, err)
	}
	return &Address{
		Address:       r.Address,
		AddressPrefix: r.AddressPrefix,
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

func balanceOf(received, spent int64) (int64, error) {
	if received < 0 || spent < 0 {
		return 0, fmt.Errorf("negative totals (received=%d spent=%d): %w", received, spent, ErrMalformedRow)
	}
	if spent > received {
		return 0, fmt.Errorf("spent %d exceeds received %d: %w", spent, received, ErrMalformedRow)
	}
	return received - spent, nil
}

// ClusterAddress is an address listed as a member of a cluster.
type ClusterAddress struct {
	Cluster uint64 `json:"cluster"`
	Address
}

// ClusterAddressColumns is the select list matching ClusterAddressRow.
const ClusterAddressColumns = `cluster, ` + AddressColumns

// ClusterAddressRow mirrors a row of the cluster_addresses table.
type ClusterAddressRow struct {
	Cluster          uint64 `ch:"cluster"`
	AddressPrefix    string `ch:"address_prefix"`
	Address          string `ch:"address"`
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

func (r ClusterAddressRow) ToClusterAddress(rate Rate) (*ClusterAddress, error) {
	addr, err := AddressRow{
		AddressPrefix:    r.AddressPrefix,
		Address:          r.Address,
		NoIncomingTxs:    r.NoIncomingTxs,
		NoOutgoingTxs:    r.NoOutgoingTxs,
		FirstTxHeight:    r.FirstTxHeight,
		FirstTxTimestamp: r.FirstTxTimestamp,
		FirstTxHash:      r.FirstTxHash,
		LastTxHeight:     r.LastTxHeight,
		LastTxTimestamp:  r.LastTxTimestamp,
		LastTxHash:       r.LastTxHash,
		InDegree:         r.InDegree,
		OutDegree:        r.OutDegree,
		TotalReceived:    r.TotalReceived,
		TotalSpent:       r.TotalSpent,
	}.ToAddress(rate)
	if err != nil {
		return nil, fmt.Errorf("cluster %d: %w", r.Cluster, err)
	}
	return &ClusterAddress{Cluster: r.Cluster, Address: *addr}, nil
}
