package graph

import (
	"fmt"
	"strings"
)

// TxPrefixLength is the number of leading hash characters used as the shard key
// of the raw transaction table.
const TxPrefixLength = 5

// TxPrefix returns the shard key for a hex transaction hash.
func TxPrefix(txHash string) string {
	return leading(txHash, TxPrefixLength)
}

// IsHex reports whether s is a non-empty run of hex digits.
func IsHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// ParseTxHash normalises a transaction hash to lower case hex.
func ParseTxHash(raw string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(raw))
	if !IsHex(h) || len(h)%2 != 0 {
		return "", fmt.Errorf("transaction hash %q is not hex", raw)
	}
	return h, nil
}

// Block is the minimal view of a raw block.
type Block struct {
	BlockHash      string `ch:"block_hash" json:"blockHash"`
	Height         uint64 `ch:"height" json:"height"`
	NoTransactions uint32 `ch:"no_transactions" json:"noTransactions"`
	Timestamp      int64  `ch:"timestamp" json:"timestamp"`
}

const BlockColumns = `block_hash, height, no_transactions, timestamp`

// BlockTransaction summarises one transaction of a block.
type BlockTransaction struct {
	TxHash      string `json:"txHash"`
	NoInputs    uint32 `json:"noInputs"`
	NoOutputs   uint32 `json:"noOutputs"`
	TotalInput  Value  `json:"totalInput"`
	TotalOutput Value  `json:"totalOutput"`
}

// BlockTransactions lists every transaction of the block at Height.
type BlockTransactions struct {
	Height uint64             `json:"height"`
	Txs    []BlockTransaction `json:"txs"`
}

const BlockTransactionColumns = `height, tx_index, tx_hash, no_inputs, no_outputs, total_input, total_output`

type BlockTransactionRow struct {
	Height      uint64 `ch:"height"`
	TxIndex     uint32 `ch:"tx_index"`
	TxHash      string `ch:"tx_hash"`
	NoInputs    uint32 `ch:"no_inputs"`
	NoOutputs   uint32 `ch:"no_outputs"`
	TotalInput  int64  `ch:"total_input"`
	TotalOutput int64  `ch:"total_output"`
}

// ToBlockTransactions groups the rows of one block valued with rate, which the
// caller picks for height.
func ToBlockTransactions(height uint64, rows []BlockTransactionRow, rate Rate) (*BlockTransactions, error) {
	out := &BlockTransactions{Height: height, Txs: make([]BlockTransaction, 0, len(rows))}
	for _, r := range rows {
		if r.Height != height {
			return nil, fmt.Errorf("block %d: row of height %d: %w", height, r.Height, ErrMalformedRow)
		}
		if r.TxHash == "" {
			return nil, fmt.Errorf("block %d transaction %d: empty hash: %w", height, r.TxIndex, ErrMalformedRow)
		}
		if r.TotalInput < 0 || r.TotalOutput < 0 {
			return nil, fmt.Errorf("block %d transaction %s: negative totals: %w", height, r.TxHash, ErrMalformedRow)
		}
		out.Txs = append(out.Txs, BlockTransaction{
			TxHash:      r.TxHash,
			NoInputs:    r.NoInputs,
			NoOutputs:   r.NoOutputs,
			TotalInput:  NewValue(r.TotalInput, rate),
			TotalOutput: NewValue(r.TotalOutput, rate),
		})
	}
	return out, nil
}

// TxValue is one input or output of a transaction.
type TxValue struct {
	Address string `json:"address"`
	Value   Value  `json:"value"`
}

// Transaction is the full view of a raw transaction, valued at its own height.
type Transaction struct {
	TxHash      string    `json:"txHash"`
	Coinbase    bool      `json:"coinbase"`
	Height      uint64    `json:"height"`
	Inputs      []TxValue `json:"inputs"`
	Outputs     []TxValue `json:"outputs"`
	Timestamp   int64     `json:"timestamp"`
	TotalInput  Value     `json:"totalInput"`
	TotalOutput Value     `json:"totalOutput"`
}

const TransactionColumns = `tx_prefix, tx_hash, height, timestamp, coinbase, total_input, total_output,
		inputs.address, inputs.value, outputs.address, outputs.value`

// TransactionRow mirrors a row of the raw transaction table. Inputs and outputs
// are nested columns read as parallel arrays.
type TransactionRow struct {
	TxPrefix        string   `ch:"tx_prefix"`
	TxHash          string   `ch:"tx_hash"`
	Height          uint64   `ch:"height"`
	Timestamp       int64    `ch:"timestamp"`
	Coinbase        bool     `ch:"coinbase"`
	TotalInput      int64    `ch:"total_input"`
	TotalOutput     int64    `ch:"total_output"`
	InputAddresses  []string `ch:"inputs.address"`
	InputValues     []int64  `ch:"inputs.value"`
	OutputAddresses []string `ch:"outputs.address"`
	OutputValues    []int64  `ch:"outputs.value"`
}

// ToTransaction values the row with rate, which the caller picks for r.Height.
func (r TransactionRow) ToTransaction(rate Rate) (*Transaction, error) {
	if r.TxHash == "" {
		return nil, fmt.Errorf("transaction at %d: empty hash: %w", r.Height, ErrMalformedRow)
	}
	if r.TotalInput < 0 || r.TotalOutput < 0 {
		return nil, fmt.Errorf("transaction %s: negative totals: %w", r.TxHash, ErrMalformedRow)
	}
	inputs, err := txValues(r.InputAddresses, r.InputValues, rate)
	if err != nil {
		return nil, fmt.Errorf("transaction %s inputs: %w", r.TxHash, err)
	}
	outputs, err := txValues(r.OutputAddresses, r.OutputValues, rate)
	if err != nil {
		return nil, fmt.Errorf("transaction %s outputs: %w", r.TxHash, err)
	}
	return &Transaction{
		TxHash:      r.TxHash,
		Coinbase:    r.Coinbase,
		Height:      r.Height,
		Inputs:      inputs,
		Outputs:     outputs,
		Timestamp:   r.Timestamp,
		TotalInput:  NewValue(r.TotalInput, rate),
		TotalOutput: NewValue(r.TotalOutput, rate),
	}, nil
}

func txValues(addresses []string, values []int64, rate Rate) ([]TxValue, error) {
	if len(addresses) != len(values) {
		return nil, fmt.Errorf("%d addresses for %d values: %w", len(addresses), len(values), ErrMalformedRow)
	}
	out := make([]TxValue, 0, len(addresses))
	for i, a := range addresses {
		if values[i] < 0 {
			return nil, fmt.Errorf("negative value %d for %s: %w", values[i], a, ErrMalformedRow)
		}
		out = append(out, TxValue{Address: a, Value: NewValue(values[i], rate)})
	}
	return out, nil
}

// SearchResult lists the addresses and transaction hashes starting with a
// search expression.
type SearchResult struct {
	Addresses    []string `json:"addresses"`
	Transactions []string `json:"transactions"`
}
