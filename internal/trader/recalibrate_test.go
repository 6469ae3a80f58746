package trader

import (
	"errors"
	"math"
	"testing"
)

// Exact-fit scenario: per-formula history [[1,0],[0,1],[1,1]] with returns
// [2,3,5] has the unique OLS solution [2,3], and UpdateWeights must commit
// exactly that vector.
func TestRecalibrationExactFit(t *testing.T) {
	f1 := &scripted{values: []float64{1, 0, 1}}
	f2 := &scripted{values: []float64{0, 1, 1}}
	tr := mustTrader(t, []float64{0, 0}, []Formula{f1, f2}, 0)

	if err := tr.RefreshHistory(makeFeatures(3), RefreshFull); err != nil {
		t.Fatalf("RefreshHistory: %v", err)
	}
	if err := tr.UpdateWeights([]float64{2, 3, 5}); err != nil {
		t.Fatalf("UpdateWeights: %v", err)
	}

	got := tr.Weights()
	want := []float64{2, 3}
	for j := range want {
		if math.Abs(got[j]-want[j]) > 1e-9 {
			t.Errorf("weights[%d] = %v, want %v", j, got[j], want[j])
		}
	}
}

// Overdetermined least squares: four rows, two terms, noisy response. The
// fit must run and produce finite coefficients.
func TestRecalibrationOverdetermined(t *testing.T) {
	f1 := &scripted{values: []float64{1, 2, 3, 4}}
	f2 := &scripted{values: []float64{1, -1, 1, -1}}
	tr := mustTrader(t, []float64{0, 0}, []Formula{f1, f2}, 0)

	if err := tr.RefreshHistory(makeFeatures(4), RefreshFull); err != nil {
		t.Fatalf("RefreshHistory: %v", err)
	}
	if err := tr.UpdateWeights([]float64{1.1, 1.9, 3.2, 3.8}); err != nil {
		t.Fatalf("UpdateWeights: %v", err)
	}
	for j, w := range tr.Weights() {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			t.Errorf("weights[%d] = %v, want finite", j, w)
		}
	}
}

// Recalibration filters on the defined-mask: only rows at or past the lag
// window enter the regression.
func TestRecalibrationFiltersLagWindow(t *testing.T) {
	// Steps 0-1 are inside the lag window; the scripted values there would
	// break the exact fit if they leaked into the regression.
	f1 := &scripted{values: []float64{99, -99, 1, 0, 1}}
	f2 := &scripted{values: []float64{-99, 99, 0, 1, 1}}
	tr := mustTrader(t, []float64{0, 0}, []Formula{f1, f2}, 2)

	if err := tr.RefreshHistory(makeFeatures(5), RefreshFull); err != nil {
		t.Fatalf("RefreshHistory: %v", err)
	}
	if err := tr.UpdateWeights([]float64{0, 0, 2, 3, 5}); err != nil {
		t.Fatalf("UpdateWeights: %v", err)
	}

	got := tr.Weights()
	want := []float64{2, 3}
	for j := range want {
		if math.Abs(got[j]-want[j]) > 1e-9 {
			t.Errorf("weights[%d] = %v, want %v", j, got[j], want[j])
		}
	}
}

func TestInsufficientDataKeepsWeights(t *testing.T) {
	f1 := &scripted{values: []float64{1}}
	f2 := &scripted{values: []float64{2}}
	initial := []float64{0.5, -0.5}
	tr := mustTrader(t, initial, []Formula{f1, f2}, 0)

	// One defined row for two terms: underdetermined.
	if err := tr.RefreshHistory(makeFeatures(1), RefreshFull); err != nil {
		t.Fatalf("RefreshHistory: %v", err)
	}
	err := tr.UpdateWeights([]float64{1})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("got %v, want ErrInsufficientData", err)
	}

	got := tr.Weights()
	for j := range initial {
		if got[j] != initial[j] {
			t.Errorf("weights[%d] changed across failed update: %v -> %v", j, initial[j], got[j])
		}
	}
}

func TestSingularDesignKeepsWeights(t *testing.T) {
	// Both formulas replay identical series: the design matrix is rank 1.
	dup := []float64{1, 2, 3}
	f1 := &scripted{values: dup}
	f2 := &scripted{values: dup}
	initial := []float64{1, 1}
	tr := mustTrader(t, initial, []Formula{f1, f2}, 0)

	if err := tr.RefreshHistory(makeFeatures(3), RefreshFull); err != nil {
		t.Fatalf("RefreshHistory: %v", err)
	}
	err := tr.UpdateWeights([]float64{1, 2, 3})
	if !errors.Is(err, ErrSingularDesign) {
		t.Fatalf("got %v, want ErrSingularDesign", err)
	}

	got := tr.Weights()
	for j := range initial {
		if got[j] != initial[j] {
			t.Errorf("weights[%d] changed across failed update: %v -> %v", j, initial[j], got[j])
		}
	}
}

func TestRecalibrateLengthMismatch(t *testing.T) {
	f := &scripted{values: []float64{1, 2}}
	tr := mustTrader(t, []float64{0}, []Formula{f}, 0)
	if err := tr.RefreshHistory(makeFeatures(2), RefreshFull); err != nil {
		t.Fatalf("RefreshHistory: %v", err)
	}
	if err := tr.UpdateWeights([]float64{1, 2, 3}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}
