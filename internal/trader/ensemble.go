// Package trader implements the ensemble forecasting agent: a weighted
// linear combination of formula terms, a temporally consistent record of its
// own predictions, directional scoring against realized returns, and weight
// recalibration by ordinary least squares.
package trader

import (
	"fmt"
	"math"
)

// Formula is the capability the trader requires of each forecasting unit.
// Implementations must be stateless with respect to Predict: the same
// feature window always yields the same value.
type Formula interface {
	// Predict returns a scalar forecast from a time-ordered feature
	// history (most recent row last).
	Predict(features [][]float64) (float64, error)

	// NumericalRepr returns the unit's numeric encoding for persistence.
	NumericalRepr() []float64
}

// Ensemble pairs a formula collection with its positionally aligned weight
// vector. Pure computation only; history bookkeeping lives in History.
type Ensemble struct {
	Weights  []float64
	Formulas []Formula
}

// Predict returns the weighted combination of all formula predictions over
// the full feature window.
func (e *Ensemble) Predict(features [][]float64) (float64, error) {
	combined, _, err := e.PredictWithFormulas(features)
	return combined, err
}

// PredictWithFormulas computes every formula's prediction exactly once and
// returns both the combined value and the per-formula vector.
func (e *Ensemble) PredictWithFormulas(features [][]float64) (float64, []float64, error) {
	if len(features) == 0 {
		return 0, nil, fmt.Errorf("%w: empty feature history", ErrDimensionMismatch)
	}

	preds := make([]float64, len(e.Formulas))
	combined := 0.0
	for j, f := range e.Formulas {
		v, err := f.Predict(features)
		if err != nil {
			return 0, nil, fmt.Errorf("formula %d: %w", j, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, nil, fmt.Errorf("%w: formula %d produced non-finite value %v", ErrDimensionMismatch, j, v)
		}
		preds[j] = v
		combined += e.Weights[j] * v
	}
	return combined, preds, nil
}
