// Package features assembles the numeric feature history a trader consumes
// from raw daily bars, plus the realized-return series predictions are
// scored against.
package features

import (
	"fmt"
	"math"

	"tradelab/internal/domain"
)

// Feature column indexes within a matrix row.
const (
	ColLogReturn  = iota // 1-bar log return
	ColMomentum          // 5-bar log return
	ColVolatility        // stddev of log returns over the last 10 bars
	ColRange             // (high-low)/close
	ColVWAPGap           // (close-vwap)/close
	ColVolumeZ           // volume z-score over the last 20 bars

	NumColumns
)

const (
	momentumWindow   = 5
	volatilityWindow = 10
	volumeWindow     = 20
)

// Columns returns the feature column names, index-aligned with matrix rows.
func Columns() []string {
	return []string{"log_return", "momentum_5", "volatility_10", "range_pct", "vwap_gap", "volume_z_20"}
}

// Matrix builds the [time, feature] history from time-ordered bars. Windowed
// features use whatever prefix is available, so row t depends only on bars
// 0..t and the matrix is safe to extend incrementally.
func Matrix(bars []domain.Bar) ([][]float64, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("features: no bars")
	}

	rets := make([]float64, len(bars))
	for t, b := range bars {
		if b.Close <= 0 {
			return nil, fmt.Errorf("features: non-positive close %v at bar %d (%s)", b.Close, t, b.Symbol)
		}
		if t > 0 {
			rets[t] = math.Log(b.Close / bars[t-1].Close)
		}
	}

	out := make([][]float64, len(bars))
	for t, b := range bars {
		row := make([]float64, NumColumns)
		row[ColLogReturn] = rets[t]
		if t >= momentumWindow {
			row[ColMomentum] = math.Log(b.Close / bars[t-momentumWindow].Close)
		}
		row[ColVolatility] = stddev(window(rets[1:t+1], volatilityWindow))
		row[ColRange] = (b.High - b.Low) / b.Close
		if b.VWAP > 0 {
			row[ColVWAPGap] = (b.Close - b.VWAP) / b.Close
		}
		row[ColVolumeZ] = volumeZ(bars[:t+1])
		out[t] = row
	}
	return out, nil
}

// ForwardReturns aligns realized returns with predictions: position t holds
// the close-to-close log return over (t, t+1]. The final position has no
// realized return yet and carries 0, which contributes nothing to the
// directional score.
func ForwardReturns(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for t := 0; t+1 < len(bars); t++ {
		if bars[t].Close > 0 && bars[t+1].Close > 0 {
			out[t] = math.Log(bars[t+1].Close / bars[t].Close)
		}
	}
	return out
}

// window returns the trailing n elements of xs, or all of xs when shorter.
func window(xs []float64, n int) []float64 {
	if len(xs) > n {
		return xs[len(xs)-n:]
	}
	return xs
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func volumeZ(bars []domain.Bar) float64 {
	if len(bars) < 2 {
		return 0
	}
	start := 0
	if len(bars) > volumeWindow {
		start = len(bars) - volumeWindow
	}
	vols := make([]float64, 0, len(bars)-start)
	for _, b := range bars[start:] {
		vols = append(vols, float64(b.Volume))
	}

	mean := 0.0
	for _, v := range vols {
		mean += v
	}
	mean /= float64(len(vols))

	sd := stddev(vols)
	if sd == 0 {
		return 0
	}
	return (float64(bars[len(bars)-1].Volume) - mean) / sd
}
