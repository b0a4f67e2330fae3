package network

import (
	"math"
	"math/rand"
	"testing"

	"coexnet/domain/expr"
	"coexnet/internal/errors"
	"coexnet/internal/testkit"
)

func mustMatrix(t *testing.T, genes []expr.GeneID, values [][]float64) *expr.Matrix {
	t.Helper()
	m, err := expr.NewMatrix(genes, testkit.SampleIDs(len(values[0])), values)
	if err != nil {
		t.Fatalf("failed to build matrix: %v", err)
	}
	return m
}

func TestAdjacency_CorrelatedAndUncorrelatedPairs(t *testing.T) {
	// Two perfectly correlated genes, one orthogonal to them, one noise
	// gene. Unsigned mode with power 1 should give adjacency ~1 for the
	// correlated pair and ~0 for the orthogonal pair.
	m := mustMatrix(t,
		[]expr.GeneID{"g1", "g2", "g3", "g4"},
		[][]float64{
			{1, 2, 3, 4, 5, 6},
			{2, 4, 6, 8, 10, 12},
			{2, -1, -1, -1, -1, 2},
			{0.3, -0.8, 0.5, -0.1, 0.9, -0.4},
		})

	engine := NewSimilarityEngine(1, false)
	adj := engine.Adjacency(Correlation(m))

	if got := adj.At(0, 1); math.Abs(got-1) > 1e-9 {
		t.Errorf("adjacency(g1,g2) = %g, want ~1", got)
	}
	if got := adj.At(0, 2); math.Abs(got) > 1e-9 {
		t.Errorf("adjacency(g1,g3) = %g, want ~0", got)
	}
	if got := adj.At(0, 0); got != 0 {
		t.Errorf("diagonal = %g, want 0", got)
	}
}

func TestAdjacency_BoundsAndSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := testkit.CorrelatedBlock(rng, 30, 12, 0.8, "G")

	for _, signed := range []bool{false, true} {
		adj := NewSimilarityEngine(6, signed).Adjacency(Correlation(m))
		if err := adj.CheckBounds(1e-9); err != nil {
			t.Errorf("signed=%v: %v", signed, err)
		}
	}
}

func TestAdjacency_SignedMapsNegativeCorrelationLow(t *testing.T) {
	m := mustMatrix(t,
		[]expr.GeneID{"up", "down"},
		[][]float64{
			{1, 2, 3, 4, 5, 6},
			{6, 5, 4, 3, 2, 1},
		})

	adj := NewSimilarityEngine(2, true).Adjacency(Correlation(m))
	// Perfect anticorrelation maps to s = 0 in a signed network.
	if got := adj.At(0, 1); got > 1e-9 {
		t.Errorf("signed adjacency of anticorrelated pair = %g, want ~0", got)
	}
}

func TestCheckIntegrity(t *testing.T) {
	tests := []struct {
		name     string
		values   [][]float64
		wantCode string
	}{
		{
			name:   "clean data passes",
			values: [][]float64{{1, 2, 3, 4}, {4, 1, 3, 2}},
		},
		{
			name:     "NaN rejected",
			values:   [][]float64{{1, 2, math.NaN(), 4}, {4, 1, 3, 2}},
			wantCode: errors.CodeInputIntegrity,
		},
		{
			name:     "near-zero variance rejected",
			values:   [][]float64{{5, 5, 5, 5}, {4, 1, 3, 2}},
			wantCode: errors.CodeInputIntegrity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustMatrix(t, []expr.GeneID{"a", "b"}, tt.values)
			err := CheckIntegrity(m, 1e-8)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.HasCode(err, tt.wantCode) {
				t.Fatalf("got error %v, want code %s", err, tt.wantCode)
			}
		})
	}
}
