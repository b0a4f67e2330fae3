package network

import (
	"math"
	"math/rand"
	"testing"

	"coexnet/domain/network"
	"coexnet/internal/testkit"
)

func randomAdjacency(rng *rand.Rand, n int) *network.SymMatrix {
	adj := network.NewSymMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			adj.Set(i, j, rng.Float64())
		}
	}
	return adj
}

// naiveTOM is the direct triple-loop definition against which the
// blockwise implementation is checked.
func naiveTOM(adj *network.SymMatrix) *network.SymMatrix {
	n := adj.Size()
	k := adj.Connectivity()
	tom := network.NewSymMatrix(n)
	for i := 0; i < n; i++ {
		tom.Set(i, i, 1)
		for j := i + 1; j < n; j++ {
			shared := 0.0
			for u := 0; u < n; u++ {
				if u != i && u != j {
					shared += adj.At(i, u) * adj.At(j, u)
				}
			}
			denom := math.Min(k[i], k[j]) + 1 - adj.At(i, j)
			v := (shared + adj.At(i, j)) / denom
			tom.Set(i, j, math.Max(0, math.Min(1, v)))
		}
	}
	return tom
}

func TestTOM_MatchesDirectDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	adj := randomAdjacency(rng, 25)

	got := NewTOMEngine(1000).Compute(adj)
	want := naiveTOM(adj)

	for i := 0; i < adj.Size(); i++ {
		for j := 0; j < adj.Size(); j++ {
			if math.Abs(got.At(i, j)-want.At(i, j)) > 1e-10 {
				t.Fatalf("TOM(%d,%d) = %g, want %g", i, j, got.At(i, j), want.At(i, j))
			}
		}
	}
}

func TestTOM_BlockSizeDoesNotChangeResult(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	adj := randomAdjacency(rng, 40)

	whole := NewTOMEngine(1000).Compute(adj)
	blocked := NewTOMEngine(7).Compute(adj)

	for i := 0; i < adj.Size(); i++ {
		for j := 0; j < adj.Size(); j++ {
			if math.Abs(whole.At(i, j)-blocked.At(i, j)) > 1e-12 {
				t.Fatalf("block size changed TOM(%d,%d): %g vs %g",
					i, j, whole.At(i, j), blocked.At(i, j))
			}
		}
	}
}

func TestTOM_BoundsSymmetryAndDiagonal(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	m := testkit.CorrelatedBlock(rng, 30, 15, 0.6, "G")
	adj := NewSimilarityEngine(4, false).Adjacency(Correlation(m))

	tom := NewTOMEngine(8).Compute(adj)
	n := tom.Size()
	for i := 0; i < n; i++ {
		if tom.At(i, i) != 1 {
			t.Fatalf("TOM diagonal at %d = %g, want 1", i, tom.At(i, i))
		}
		for j := 0; j < n; j++ {
			v := tom.At(i, j)
			if v < 0 || v > 1 {
				t.Fatalf("TOM(%d,%d) = %g out of [0,1]", i, j, v)
			}
			if v != tom.At(j, i) {
				t.Fatalf("TOM not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestDissimilarity(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	adj := randomAdjacency(rng, 10)
	tom := NewTOMEngine(1000).Compute(adj)
	diss := Dissimilarity(tom)

	for i := 0; i < tom.Size(); i++ {
		for j := 0; j < tom.Size(); j++ {
			if math.Abs(diss.At(i, j)-(1-tom.At(i, j))) > 1e-15 {
				t.Fatalf("dissimilarity(%d,%d) != 1-TOM", i, j)
			}
		}
	}
	if diss.At(0, 0) != 0 {
		t.Errorf("dissimilarity diagonal = %g, want 0", diss.At(0, 0))
	}
}
