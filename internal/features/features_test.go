package features

import (
	"math"
	"testing"
	"time"

	"tradelab/internal/domain"
)

func makeBars(closes []float64) []domain.Bar {
	bars := make([]domain.Bar, len(closes))
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol:    "TEST",
			Timestamp: day.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.02,
			Low:       c * 0.98,
			Close:     c,
			Volume:    1000 + int64(i)*50,
			VWAP:      c * 1.001,
		}
	}
	return bars
}

func TestMatrixShape(t *testing.T) {
	bars := makeBars([]float64{100, 101, 99, 102, 103, 104, 102, 105})

	m, err := Matrix(bars)
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if len(m) != len(bars) {
		t.Fatalf("rows = %d, want %d", len(m), len(bars))
	}
	for i, row := range m {
		if len(row) != NumColumns {
			t.Fatalf("row %d width = %d, want %d", i, len(row), NumColumns)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("row %d col %d = %v, want finite", i, j, v)
			}
		}
	}
	if len(Columns()) != NumColumns {
		t.Errorf("Columns() has %d names, want %d", len(Columns()), NumColumns)
	}
}

func TestMatrixValues(t *testing.T) {
	bars := makeBars([]float64{100, 110, 99, 102, 103, 104, 102})
	m, err := Matrix(bars)
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}

	// No prior close: first log return is zero.
	if m[0][ColLogReturn] != 0 {
		t.Errorf("first log return = %v, want 0", m[0][ColLogReturn])
	}
	want := math.Log(110.0 / 100.0)
	if math.Abs(m[1][ColLogReturn]-want) > 1e-12 {
		t.Errorf("log return = %v, want %v", m[1][ColLogReturn], want)
	}

	// Momentum needs a 5-bar lookback.
	if m[4][ColMomentum] != 0 {
		t.Errorf("momentum before window filled = %v, want 0", m[4][ColMomentum])
	}
	wantMom := math.Log(104.0 / 100.0)
	if math.Abs(m[5][ColMomentum]-wantMom) > 1e-12 {
		t.Errorf("momentum = %v, want %v", m[5][ColMomentum], wantMom)
	}
}

// Row t must depend only on bars 0..t, so an extended bar series leaves
// earlier rows unchanged.
func TestMatrixPrefixStable(t *testing.T) {
	closes := []float64{100, 101, 99, 102, 103, 104, 102, 105, 107, 106}
	full, err := Matrix(makeBars(closes))
	if err != nil {
		t.Fatalf("Matrix(full): %v", err)
	}
	prefix, err := Matrix(makeBars(closes[:6]))
	if err != nil {
		t.Fatalf("Matrix(prefix): %v", err)
	}

	for i := range prefix {
		for j := range prefix[i] {
			if math.Abs(prefix[i][j]-full[i][j]) > 1e-12 {
				t.Errorf("row %d col %d differs between prefix and full: %v vs %v", i, j, prefix[i][j], full[i][j])
			}
		}
	}
}

func TestMatrixRejectsBadBars(t *testing.T) {
	if _, err := Matrix(nil); err == nil {
		t.Error("empty bars accepted")
	}
	bars := makeBars([]float64{100, 101})
	bars[1].Close = 0
	if _, err := Matrix(bars); err == nil {
		t.Error("zero close accepted")
	}
}

func TestForwardReturns(t *testing.T) {
	bars := makeBars([]float64{100, 110, 99})
	rets := ForwardReturns(bars)
	if len(rets) != 3 {
		t.Fatalf("len = %d, want 3", len(rets))
	}
	if math.Abs(rets[0]-math.Log(1.1)) > 1e-12 {
		t.Errorf("rets[0] = %v, want %v", rets[0], math.Log(1.1))
	}
	if rets[2] != 0 {
		t.Errorf("final forward return = %v, want 0", rets[2])
	}
}
