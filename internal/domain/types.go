// Package domain defines the shared value types passed between the storage,
// gathering, and search layers: market bars and persisted trader records.
package domain

import "time"

// Bar is a single OHLCV bar for one symbol.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Run describes one evolutionary search run.
type Run struct {
	ID          string
	Symbol      string
	Generations int
	Population  int
	BestScore   float64
	StartedAt   time.Time
	FinishedAt  time.Time
}

// TraderRecord is the persisted form of a trader: its identity, fitness,
// and the numerical representation needed to reconstruct it.
type TraderRecord struct {
	ID         string
	RunID      string
	Generation int
	Score      float64
	MaxLag     int
	Weights    []float64
	Formulas   [][]float64
	CreatedAt  time.Time
}

// FormulaCount returns the number of formula terms in the record.
func (r *TraderRecord) FormulaCount() int { return len(r.Formulas) }
