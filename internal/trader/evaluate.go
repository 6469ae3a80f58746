package trader

import "fmt"

// MethodDefault scores the sum over defined steps of sign(prediction)·return:
// a cumulative-return proxy that rewards correct directional calls and
// ignores magnitude. A zero prediction takes no position and contributes
// nothing.
const MethodDefault = "default"

// Evaluate reduces a prediction history and a matching realized-return
// series to a single fitness scalar under the named method. The return
// series must be co-indexed with the history. Unrecognized methods fail
// with ErrUnsupportedMethod; there is no fallback.
func Evaluate(h *History, returns []float64, method string) (float64, error) {
	if len(returns) != h.Len() {
		return 0, fmt.Errorf("%w: %d returns for history of length %d", ErrDimensionMismatch, len(returns), h.Len())
	}
	if method != MethodDefault {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	score := 0.0
	for t := 0; t < h.Len(); t++ {
		pred, ok := h.Combined(t)
		if !ok {
			continue
		}
		switch {
		case pred > 0:
			score += returns[t]
		case pred < 0:
			score -= returns[t]
		}
	}
	return score, nil
}
