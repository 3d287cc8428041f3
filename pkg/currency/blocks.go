package currency

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/monacohq/graphsense-REST/pkg/db/graph"
	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"github.com/monacohq/graphsense-REST/pkg/db/paging"
)

// Block returns the block at height. Blocks past the snapshot's last height are
// not served yet.
func (s *Service) Block(ctx context.Context, height uint64) (*graphmodels.Block, error) {
	if err := s.checkHeight(height); err != nil {
		return nil, err
	}
	return s.Store.Block(ctx, height)
}

func (s *Service) Blocks(ctx context.Context, q paging.Query) (paging.Page[graphmodels.Block], error) {
	return s.Store.Blocks(ctx, q)
}

// BlockTransactions lists the transactions of the block at height valued at
// that height.
func (s *Service) BlockTransactions(ctx context.Context, height uint64) (*graphmodels.BlockTransactions, error) {
	if err := s.checkHeight(height); err != nil {
		return nil, err
	}
	rows, err := s.Store.BlockTransactions(ctx, height)
	if err != nil {
		return nil, err
	}
	return graphmodels.ToBlockTransactions(height, rows, s.Rates.At(height))
}

func (s *Service) checkHeight(height uint64) error {
	if height > s.Rates.LastHeight() {
		return fmt.Errorf("block %d not available yet: %w", height, graph.ErrNotFound)
	}
	return nil
}

// Transaction returns the transaction with the normalised hex hash txHash,
// valued at its own height.
func (s *Service) Transaction(ctx context.Context, txHash string) (*graphmodels.Transaction, error) {
	row, err := s.Store.Transaction(ctx, txHash)
	if err != nil {
		return nil, err
	}
	return row.ToTransaction(s.Rates.At(row.Height))
}

func (s *Service) Transactions(ctx context.Context, q paging.Query) (paging.Page[graphmodels.Transaction], error) {
	page, err := s.Store.Transactions(ctx, q)
	if err != nil {
		return paging.Page[graphmodels.Transaction]{}, err
	}
	return paging.Map(page, func(r graphmodels.TransactionRow) (graphmodels.Transaction, error) {
		tx, err := r.ToTransaction(s.Rates.At(r.Height))
		if err != nil {
			return graphmodels.Transaction{}, err
		}
		return *tx, nil
	})
}

// Search lists up to limit addresses and transaction hashes starting with
// expression. Expressions shorter than a shard key match nothing; only hex
// expressions are looked up as transaction hashes.
func (s *Service) Search(ctx context.Context, expression string, limit int) (*graphmodels.SearchResult, error) {
	res := &graphmodels.SearchResult{Addresses: []string{}, Transactions: []string{}}
	if utf8.RuneCountInString(expression) < graphmodels.AddressPrefixLength {
		return res, nil
	}

	addresses, err := s.Store.SearchAddresses(ctx, expression, limit)
	if err != nil {
		return nil, err
	}
	res.Addresses = addresses

	if graphmodels.IsHex(expression) {
		txs, err := s.Store.SearchTransactions(ctx, strings.ToLower(expression), limit)
		if err != nil {
			return nil, err
		}
		res.Transactions = txs
	}
	return res, nil
}
