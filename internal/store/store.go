// Package store defines storage interfaces for the lab's two persistence
// concerns: daily bar history (Parquet) and evolved trader records (SQLite).
package store

import (
	"context"
	"time"

	"tradelab/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with existing data.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end],
	// sorted by timestamp.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available.
	ListSymbols(ctx context.Context) ([]string, error)
}

// TraderStore persists search runs and the traders that survived them.
type TraderStore interface {
	// SaveRun inserts or updates a run summary.
	SaveRun(ctx context.Context, run *domain.Run) error

	// LatestRun returns the most recently started run, or nil when the
	// store is empty.
	LatestRun(ctx context.Context) (*domain.Run, error)

	// SaveTraders persists a batch of trader records.
	SaveTraders(ctx context.Context, records []domain.TraderRecord) error

	// TopTraders returns up to limit traders for a run, best score first.
	TopTraders(ctx context.Context, runID string, limit int) ([]domain.TraderRecord, error)

	// GetTrader retrieves a single trader by ID, or nil when absent.
	GetTrader(ctx context.Context, id string) (*domain.TraderRecord, error)
}
