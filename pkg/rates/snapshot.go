package rates

import (
	"context"
	"errors"
	"fmt"

	graphmodels "github.com/monacohq/graphsense-REST/pkg/db/models/graph"
	"go.uber.org/zap"
)

// ErrEmptySnapshot is returned when no rates could be loaded.
var ErrEmptySnapshot = errors.New("exchange rate snapshot is empty")

// Loader is the store surface a snapshot is built from.
type Loader interface {
	Prober
	LoadExchangeRates(ctx context.Context, last uint64) ([]graphmodels.Rate, error)
}

// Snapshot is an immutable, gap-free table of rates for heights 0..Last. It is
// safe for concurrent use.
type Snapshot struct {
	rates []graphmodels.Rate
}

// NewSnapshot wraps rates, which must be ordered by height starting at 0.
func NewSnapshot(rates []graphmodels.Rate) (*Snapshot, error) {
	if len(rates) == 0 {
		return nil, ErrEmptySnapshot
	}
	for i, r := range rates {
		if r.Height != uint64(i) {
			return nil, fmt.Errorf("rate at index %d has height %d", i, r.Height)
		}
	}
	return &Snapshot{rates: rates}, nil
}

// Load discovers the last height through l and reads every rate up to it.
func Load(ctx context.Context, l Loader, logger *zap.Logger) (*Snapshot, error) {
	last, err := DiscoverLastHeight(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("discover last height: %w", err)
	}
	logger.Debug("Discovered last exchange rate height", zap.Uint64("height", last))

	rows, err := l.LoadExchangeRates(ctx, last)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(rows)
}

// LastHeight is the newest height with a rate.
func (s *Snapshot) LastHeight() uint64 {
	return uint64(len(s.rates) - 1)
}

// Last returns the newest rate.
func (s *Snapshot) Last() graphmodels.Rate {
	return s.rates[len(s.rates)-1]
}

// At returns the rate at height, clamped to the newest one.
func (s *Snapshot) At(height uint64) graphmodels.Rate {
	if height > s.LastHeight() {
		return s.Last()
	}
	return s.rates[height]
}

// List returns up to limit rates, newest first, skipping offset of them. More
// is true when older rates remain.
func (s *Snapshot) List(offset, limit int) (items []graphmodels.Rate, more bool) {
	if offset < 0 || limit <= 0 || offset >= len(s.rates) {
		return []graphmodels.Rate{}, false
	}
	top := len(s.rates) - 1 - offset
	items = make([]graphmodels.Rate, 0, min(limit, top+1))
	for h := top; h >= 0 && len(items) < limit; h-- {
		items = append(items, s.rates[h])
	}
	return items, top+1 > limit
}
