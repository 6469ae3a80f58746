package formula

import "math/rand"

// Random returns a term with uniformly drawn operator, activation, feature
// indexes, and lookbacks in [1, maxLookback].
func Random(rng *rand.Rand, nFeatures, maxLookback int) *Term {
	if maxLookback < 1 {
		maxLookback = 1
	}
	return &Term{
		Op:  BinaryOp(rng.Intn(int(numOps))),
		Act: Activation(rng.Intn(int(numActivations))),
		A:   randomRef(rng, nFeatures, maxLookback),
		B:   randomRef(rng, nFeatures, maxLookback),
	}
}

func randomRef(rng *rand.Rand, nFeatures, maxLookback int) Ref {
	return Ref{
		Feature:  rng.Intn(nFeatures),
		Lookback: 1 + rng.Intn(maxLookback),
	}
}

// Mutate returns a copy of the term with exactly one component redrawn.
// The receiver is never modified; formula collections are immutable for the
// lifetime of the trader holding them.
func (t *Term) Mutate(rng *rand.Rand, nFeatures, maxLookback int) *Term {
	out := *t
	switch rng.Intn(4) {
	case 0:
		out.Op = BinaryOp(rng.Intn(int(numOps)))
	case 1:
		out.Act = Activation(rng.Intn(int(numActivations)))
	case 2:
		out.A = randomRef(rng, nFeatures, maxLookback)
	default:
		out.B = randomRef(rng, nFeatures, maxLookback)
	}
	return &out
}
