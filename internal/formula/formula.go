// Package formula implements the concrete forecasting terms a trader
// combines: each term reads one or two feature columns over a trailing
// window, applies a binary operator, and passes the result through an
// activation function.
package formula

import (
	"errors"
	"fmt"
	"math"
)

// Activation identifies the scalar activation applied to a term's output.
type Activation uint8

const (
	ActIdentity Activation = iota
	ActTanh
	ActSign
	ActReLU
	ActSigmoid // centered: 2/(1+e^-x) - 1, keeps the output sign

	numActivations
)

// BinaryOp identifies the operator combining the two feature references.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv // guarded: returns 0 when the denominator is ~0
	OpMax
	OpMin

	numOps
)

var (
	// ErrShortWindow is returned when the feature history has fewer rows
	// than a term's lookback requires.
	ErrShortWindow = errors.New("formula: feature window shorter than lookback")

	// ErrBadFeature is returned when a term references a feature column
	// that does not exist in the supplied history.
	ErrBadFeature = errors.New("formula: feature index out of range")
)

// Ref selects a feature column and the trailing window it is read over.
// The resolved value is the mean of the last Lookback rows of the column;
// Lookback 1 reads only the most recent row.
type Ref struct {
	Feature  int
	Lookback int
}

// Term is one forecasting unit: act(op(value(A), value(B))).
type Term struct {
	A   Ref
	B   Ref
	Op  BinaryOp
	Act Activation
}

// Lookback returns the number of trailing rows the term needs before it can
// produce a value.
func (t *Term) Lookback() int {
	if t.A.Lookback > t.B.Lookback {
		return t.A.Lookback
	}
	return t.B.Lookback
}

// Predict evaluates the term over the feature history. The history is
// time-ordered with the most recent row last.
func (t *Term) Predict(features [][]float64) (float64, error) {
	if len(features) == 0 {
		return 0, fmt.Errorf("%w: empty history", ErrShortWindow)
	}
	if len(features) < t.Lookback() {
		return 0, fmt.Errorf("%w: have %d rows, need %d", ErrShortWindow, len(features), t.Lookback())
	}

	a, err := resolve(features, t.A)
	if err != nil {
		return 0, err
	}
	b, err := resolve(features, t.B)
	if err != nil {
		return 0, err
	}

	return t.Act.apply(t.Op.apply(a, b)), nil
}

// resolve computes the trailing mean of the referenced feature column.
func resolve(features [][]float64, r Ref) (float64, error) {
	n := r.Lookback
	if n < 1 {
		n = 1
	}
	sum := 0.0
	for _, row := range features[len(features)-n:] {
		if r.Feature < 0 || r.Feature >= len(row) {
			return 0, fmt.Errorf("%w: feature %d, row width %d", ErrBadFeature, r.Feature, len(row))
		}
		sum += row[r.Feature]
	}
	return sum / float64(n), nil
}

func (op BinaryOp) apply(a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		if math.Abs(b) < 1e-12 {
			return 0
		}
		return a / b
	case OpMax:
		return math.Max(a, b)
	default:
		return math.Min(a, b)
	}
}

func (act Activation) apply(x float64) float64 {
	switch act {
	case ActTanh:
		return math.Tanh(x)
	case ActSign:
		if x > 0 {
			return 1
		}
		if x < 0 {
			return -1
		}
		return 0
	case ActReLU:
		return math.Max(0, x)
	case ActSigmoid:
		return 2/(1+math.Exp(-x)) - 1
	default:
		return x
	}
}

// MaxLag returns the number of leading time steps for which no prediction
// is defined: a term with lookback L first produces a value at step L-1.
func MaxLag(terms []*Term) int {
	lag := 0
	for _, t := range terms {
		if l := t.Lookback() - 1; l > lag {
			lag = l
		}
	}
	return lag
}

// ---------------------------------------------------------------------------
// Numerical representation
// ---------------------------------------------------------------------------

// reprLen is the fixed width of a term's numerical representation:
// [op, act, featA, lookbackA, featB, lookbackB].
const reprLen = 6

// NumericalRepr encodes the term as a fixed-width numeric vector suitable
// for persistence.
func (t *Term) NumericalRepr() []float64 {
	return []float64{
		float64(t.Op),
		float64(t.Act),
		float64(t.A.Feature),
		float64(t.A.Lookback),
		float64(t.B.Feature),
		float64(t.B.Lookback),
	}
}

// FromRepr reconstructs a term from its numerical representation.
func FromRepr(repr []float64) (*Term, error) {
	if len(repr) != reprLen {
		return nil, fmt.Errorf("formula: representation has %d values, want %d", len(repr), reprLen)
	}
	op := BinaryOp(repr[0])
	act := Activation(repr[1])
	if op >= numOps {
		return nil, fmt.Errorf("formula: unknown operator code %v", repr[0])
	}
	if act >= numActivations {
		return nil, fmt.Errorf("formula: unknown activation code %v", repr[1])
	}
	t := &Term{
		Op:  op,
		Act: act,
		A:   Ref{Feature: int(repr[2]), Lookback: int(repr[3])},
		B:   Ref{Feature: int(repr[4]), Lookback: int(repr[5])},
	}
	if t.A.Lookback < 1 || t.B.Lookback < 1 {
		return nil, fmt.Errorf("formula: lookback must be >= 1, got %d/%d", t.A.Lookback, t.B.Lookback)
	}
	return t, nil
}
