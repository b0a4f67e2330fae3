package network

import (
	"math"
	"math/rand"
	"testing"

	"coexnet/internal/testkit"
)

func TestPickSoftThreshold_ReturnsSmallestSatisfyingPower(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m, _, _ := testkit.TwoBlockMatrix(rng, 60, 80, 20, 0.6)

	// Zero targets make every candidate qualify; the scan must still land
	// on the smallest one.
	sel := PickSoftThreshold(m, []float64{2, 4, 6}, false, 0, 0)
	if !sel.Satisfied {
		t.Fatalf("expected a satisfying power, got best-effort %g", sel.Power)
	}
	if sel.Power != 2 {
		t.Errorf("selected power = %g, want smallest candidate 2", sel.Power)
	}
}

func TestPickSoftThreshold_UnreachableTargetFallsBackToBestFit(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m := testkit.CorrelatedBlock(rng, 50, 15, 0.7, "G")

	sel := PickSoftThreshold(m, []float64{2, 4, 6}, false, 0.999999, 20)
	if sel.Satisfied {
		t.Fatal("impossible fit target reported as satisfied")
	}
	if math.IsNaN(sel.Power) {
		t.Fatal("fallback power not populated")
	}
	best := math.Inf(-1)
	var bestPower float64
	for _, r := range sel.Results {
		if r.ScaleFreeFit > best {
			best = r.ScaleFreeFit
			bestPower = r.Power
		}
	}
	if sel.Power != bestPower {
		t.Errorf("fallback power = %g, want best-fit candidate %g", sel.Power, bestPower)
	}
}

func TestPickSoftThreshold_ReportsEveryCandidate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := testkit.CorrelatedBlock(rng, 40, 12, 0.5, "G")

	candidates := []float64{1, 3, 5}
	sel := PickSoftThreshold(m, candidates, true, 0.9, 5)
	if len(sel.Results) != len(candidates) {
		t.Fatalf("got %d fit results, want %d", len(sel.Results), len(candidates))
	}
	for i, r := range sel.Results {
		if r.Power != candidates[i] {
			t.Errorf("result %d has power %g, want %g", i, r.Power, candidates[i])
		}
		if r.MeanConnectivity < 0 {
			t.Errorf("power %g has negative mean connectivity", r.Power)
		}
	}
}
