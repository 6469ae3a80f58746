package trader

import "errors"

// Sentinel errors surfaced by the trader core. Callers match them with
// errors.Is; every failure is returned synchronously and no operation
// substitutes a default value for a failed computation.
var (
	// ErrDimensionMismatch reports a feature history, formula output, or
	// return series with an unexpected shape.
	ErrDimensionMismatch = errors.New("trader: dimension mismatch")

	// ErrUnsupportedMethod reports an unrecognized evaluation method name.
	ErrUnsupportedMethod = errors.New("trader: unsupported evaluation method")

	// ErrInsufficientData reports that fewer defined history rows remain
	// than regression terms, leaving the system underdetermined.
	ErrInsufficientData = errors.New("trader: insufficient defined history for regression")

	// ErrSingularDesign reports a rank-deficient regression matrix.
	ErrSingularDesign = errors.New("trader: singular regression design")

	// ErrAlignment reports an incremental append whose feature history
	// length does not extend the tracked history by exactly one step.
	ErrAlignment = errors.New("trader: feature history misaligned with tracked history")
)
