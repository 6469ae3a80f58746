package trader

import "fmt"

// RefreshMode selects how RefreshHistory rebuilds the prediction record.
type RefreshMode int

const (
	// RefreshFull discards the tracked history and recomputes every step.
	// Use it when the feature window was replaced or extended by more than
	// one step, or when a consistent re-derivation is required.
	RefreshFull RefreshMode = iota

	// RefreshIncremental appends one new step to the tracked history.
	RefreshIncremental
)

// Trader is an ensemble agent producing a directional forecast for one
// asset by linearly combining a fixed collection of formulas. It owns the
// mutable agent state: the weight vector, the prediction histories, and the
// current score.
//
// A Trader is not safe for concurrent mutation; the enclosing search
// process evaluates each instance from a single goroutine. Distinct
// instances share no state.
type Trader struct {
	ensemble Ensemble
	maxLag   int
	score    float64
	hist     *History
}

// Representation is the serialization contract produced for the external
// persistence layer: the formula count paired with each formula's own
// numerical representation, aligned with formula order.
type Representation struct {
	FormulaCount int
	Formulas     [][]float64
}

// New constructs a trader from an initial weight vector, an ordered formula
// collection, and the lag below which no prediction is defined. The formula
// collection and maxLag are fixed for the lifetime of the instance.
func New(weights []float64, formulas []Formula, maxLag int) (*Trader, error) {
	if len(formulas) == 0 {
		return nil, fmt.Errorf("%w: no formulas", ErrDimensionMismatch)
	}
	if len(weights) != len(formulas) {
		return nil, fmt.Errorf("%w: %d weights for %d formulas", ErrDimensionMismatch, len(weights), len(formulas))
	}
	if maxLag < 0 {
		return nil, fmt.Errorf("%w: negative max lag %d", ErrDimensionMismatch, maxLag)
	}

	w := make([]float64, len(weights))
	copy(w, weights)

	return &Trader{
		ensemble: Ensemble{Weights: w, Formulas: formulas},
		maxLag:   maxLag,
		hist:     NewHistory(maxLag, len(formulas)),
	}, nil
}

// NTerms returns the number of formulas in the ensemble.
func (t *Trader) NTerms() int { return len(t.ensemble.Formulas) }

// MaxLag returns the lag window length.
func (t *Trader) MaxLag() int { return t.maxLag }

// Score returns the score committed by the last successful UpdateScore.
func (t *Trader) Score() float64 { return t.score }

// Weights returns a copy of the current weight vector.
func (t *Trader) Weights() []float64 {
	w := make([]float64, len(t.ensemble.Weights))
	copy(w, t.ensemble.Weights)
	return w
}

// History exposes the tracked prediction record for read access.
func (t *Trader) History() *History { return t.hist }

// Predict returns today's forecast over the given feature history. It is
// pure: no history row is recorded.
func (t *Trader) Predict(features [][]float64) (float64, error) {
	return t.ensemble.Predict(features)
}

// RefreshHistory brings the tracked prediction record up to date with the
// given feature history, either by full recompute or one-step append.
func (t *Trader) RefreshHistory(features [][]float64, mode RefreshMode) error {
	switch mode {
	case RefreshFull:
		return t.hist.RecomputeAll(&t.ensemble, features)
	case RefreshIncremental:
		return t.hist.AppendOne(&t.ensemble, features)
	default:
		return fmt.Errorf("trader: unknown refresh mode %d", mode)
	}
}

// UpdateScore evaluates the tracked history against the realized returns
// and commits the result. On failure the stored score is untouched.
func (t *Trader) UpdateScore(returns []float64, method string) error {
	score, err := Evaluate(t.hist, returns, method)
	if err != nil {
		return err
	}
	t.score = score
	return nil
}

// UpdateWeights recalibrates the weight vector from the tracked per-formula
// history and commits it wholesale on success. On failure the existing
// vector is untouched: a reader always observes either the old weights or
// the new, never a partial update.
func (t *Trader) UpdateWeights(returns []float64) error {
	weights, err := Recalibrate(t.hist, returns)
	if err != nil {
		return err
	}
	t.ensemble.Weights = weights
	return nil
}

// Representation exports the trader for the external persistence layer.
func (t *Trader) Representation() Representation {
	reprs := make([][]float64, len(t.ensemble.Formulas))
	for j, f := range t.ensemble.Formulas {
		reprs[j] = f.NumericalRepr()
	}
	return Representation{
		FormulaCount: len(t.ensemble.Formulas),
		Formulas:     reprs,
	}
}
