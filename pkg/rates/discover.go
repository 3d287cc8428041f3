// Package rates discovers how far a currency's exchange rate table reaches and
// holds the loaded rates in memory for valuation.
package rates

import (
	"context"
	"fmt"
)

const (
	initialStep      uint64 = 100_000
	contractionRatio uint64 = 10
)

// Prober answers whether a row exists at one height of an append-only table.
type Prober interface {
	HasRateAt(ctx context.Context, height uint64) (bool, error)
}

// DiscoverLastHeight finds the highest height H such that every height 0..H has
// a row, without counting the table. It steps forward while rows exist and, on
// a miss, backs up one step and shrinks the step tenfold; it stops on a miss at
// step 1. An empty table yields 0.
func DiscoverLastHeight(ctx context.Context, p Prober) (uint64, error) {
	probe, step := uint64(0), initialStep
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		found, err := p.HasRateAt(ctx, probe)
		if err != nil {
			return 0, fmt.Errorf("probe height %d: %w", probe, err)
		}
		switch {
		case found:
			probe += step
		case probe == 0:
			return 0, nil
		case step == 1:
			return probe - 1, nil
		default:
			probe -= step
			step /= contractionRatio
		}
	}
}
