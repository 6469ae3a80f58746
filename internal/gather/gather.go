// Package gather backfills daily bar data for the configured watchlist from
// the Alpaca market-data API into the bar store.
package gather

import "context"

// Gatherer is the interface for data gathering processes.
type Gatherer interface {
	// Name returns the gatherer identifier.
	Name() string
	// Run executes the backfill. It blocks until done or ctx is cancelled.
	Run(ctx context.Context) error
}
