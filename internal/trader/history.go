package trader

import "fmt"

// History tracks the agent-level prediction series and the per-formula
// prediction matrix for every time step observed so far. The two stay
// co-indexed at all times: row t of the matrix holds the formula predictions
// behind combined prediction t. Rows are either fully defined or undefined;
// a parallel mask carries definedness so no sentinel value ever flows
// through arithmetic.
type History struct {
	maxLag int
	nTerms int

	combined   []float64
	perFormula [][]float64
	defined    []bool
}

// NewHistory creates an empty history for an ensemble of nTerms formulas
// whose first defined prediction occurs at step maxLag.
func NewHistory(maxLag, nTerms int) *History {
	return &History{maxLag: maxLag, nTerms: nTerms}
}

// Len returns the current horizon T.
func (h *History) Len() int { return len(h.combined) }

// Defined reports whether a prediction exists at step t.
func (h *History) Defined(t int) bool {
	return t >= 0 && t < len(h.defined) && h.defined[t]
}

// DefinedCount returns the number of defined rows.
func (h *History) DefinedCount() int {
	n := 0
	for _, d := range h.defined {
		if d {
			n++
		}
	}
	return n
}

// Combined returns the agent-level prediction at step t. The second return
// is false for undefined rows.
func (h *History) Combined(t int) (float64, bool) {
	if !h.Defined(t) {
		return 0, false
	}
	return h.combined[t], true
}

// FormulaRow returns the per-formula prediction row at step t. The second
// return is false for undefined rows. The slice is shared; callers must not
// modify it.
func (h *History) FormulaRow(t int) ([]float64, bool) {
	if !h.Defined(t) {
		return nil, false
	}
	return h.perFormula[t], true
}

// RecomputeAll rebuilds both histories from scratch over the full feature
// history. For each step t from maxLag to T-1 the ensemble is evaluated on
// the inclusive prefix features[:t+1]; steps before maxLag stay undefined.
// Prior state is discarded only after every step computes, so a failed
// rebuild leaves the history unchanged.
func (h *History) RecomputeAll(e *Ensemble, features [][]float64) error {
	T := len(features)
	combined := make([]float64, T)
	perFormula := make([][]float64, T)
	defined := make([]bool, T)

	for t := h.maxLag; t < T; t++ {
		c, preds, err := e.PredictWithFormulas(features[:t+1])
		if err != nil {
			return fmt.Errorf("recomputing step %d: %w", t, err)
		}
		combined[t] = c
		perFormula[t] = preds
		defined[t] = true
	}

	h.combined = combined
	h.perFormula = perFormula
	h.defined = defined
	return nil
}

// AppendOne evaluates the ensemble once over the full window and appends
// the result as the new final row of both histories. The feature history
// must extend the tracked history by exactly one step. Steps inside the lag
// window are recorded undefined without consulting the formulas.
func (h *History) AppendOne(e *Ensemble, features [][]float64) error {
	t := len(h.combined)
	if len(features) != t+1 {
		return fmt.Errorf("%w: %d feature rows for history of length %d", ErrAlignment, len(features), t)
	}

	if t < h.maxLag {
		h.combined = append(h.combined, 0)
		h.perFormula = append(h.perFormula, nil)
		h.defined = append(h.defined, false)
		return nil
	}

	c, preds, err := e.PredictWithFormulas(features)
	if err != nil {
		return fmt.Errorf("appending step %d: %w", t, err)
	}
	h.combined = append(h.combined, c)
	h.perFormula = append(h.perFormula, preds)
	h.defined = append(h.defined, true)
	return nil
}
