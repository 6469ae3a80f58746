package trader

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Recalibrate fits an ordinary-least-squares regression of realized returns
// on the per-formula prediction matrix, restricted to defined history rows,
// and returns the coefficient vector as the candidate weight vector. It has
// no side effects; committing the result is the caller's responsibility.
//
// Fails with ErrInsufficientData when fewer defined rows remain than
// regression terms, and with ErrSingularDesign when the filtered matrix is
// rank-deficient (duplicate or constant formula outputs). Neither failure
// may be papered over with degenerate weights.
func Recalibrate(h *History, returns []float64) ([]float64, error) {
	if len(returns) != h.Len() {
		return nil, fmt.Errorf("%w: %d returns for history of length %d", ErrDimensionMismatch, len(returns), h.Len())
	}

	rows := make([]int, 0, h.Len())
	for t := 0; t < h.Len(); t++ {
		if h.Defined(t) {
			rows = append(rows, t)
		}
	}
	if len(rows) < h.nTerms {
		return nil, fmt.Errorf("%w: %d defined rows for %d terms", ErrInsufficientData, len(rows), h.nTerms)
	}

	x := mat.NewDense(len(rows), h.nTerms, nil)
	y := mat.NewVecDense(len(rows), nil)
	for i, t := range rows {
		x.SetRow(i, h.perFormula[t])
		y.SetVec(i, returns[t])
	}

	var coef mat.VecDense
	if err := coef.SolveVec(x, y); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularDesign, err)
	}

	weights := make([]float64, h.nTerms)
	for j := range weights {
		weights[j] = coef.AtVec(j)
	}
	return weights, nil
}
