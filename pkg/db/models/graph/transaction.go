package graph

import (
	"fmt"
)

// AddressTransaction is one transaction touching an address. Unlike relations it
// is valued at the transaction's own height.
type AddressTransaction struct {
	Address       string `json:"address"`
	AddressPrefix string `json:"address_prefix"`
	TxHash        string `json:"txHash"`
	Height        uint64 `json:"height"`
	Timestamp     int64  `json:"timestamp"`
	TxIndex       uint64 `json:"txIndex"`
	Value         Value  `json:"value"`
}

const AddressTransactionColumns = `address_prefix, address, tx_hash, height, timestamp, tx_index, value`

type AddressTransactionRow struct {
	AddressPrefix string `ch:"address_prefix"`
	Address       string `ch:"address"`
	TxHash        string `ch:"tx_hash"`
	Height        uint64 `ch:"height"`
	Timestamp     int64  `ch:"timestamp"`
	TxIndex       uint64 `ch:"tx_index"`
	Value         int64  `ch:"value"`
}

// ToTransaction values the row with rate, which the caller picks for r.Height.
func (r AddressTransactionRow) ToTransaction(rate Rate) (*AddressTransaction, error) {
	if r.TxHash == "" {
		return nil, fmt.Errorf("address %s transaction at %d: empty hash: %w", r.Address, r.Height, ErrMalformedRow)
	}
	return &AddressTransaction{
		Address:       r.Address,
		AddressPrefix: r.AddressPrefix,
		TxHash:        r.TxHash,
		Height:        r.Height,
		Timestamp:     r.Timestamp,
		TxIndex:       r.TxIndex,
		Value:         NewValue(r.Value, rate),
	}, nil
}

// Statistics summarises one currency's dataset.
type Statistics struct {
	Timestamp      int64  `ch:"timestamp" json:"timestamp"`
	NoBlocks       uint64 `ch:"no_blocks" json:"noBlocks"`
	NoTransactions uint64 `ch:"no_transactions" json:"noTransactions"`
	NoAddresses    uint64 `ch:"no_addresses" json:"noAddresses"`
	NoClusters     uint64 `ch:"no_clusters" json:"noClusters"`
	LastHeight     uint64 `json:"lastHeight"`
}
