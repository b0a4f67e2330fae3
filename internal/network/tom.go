package network

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"coexnet/domain/network"
)

// TOMEngine computes the topological overlap matrix from an adjacency
// matrix. The shared-neighbor sums are one adjacency self-product, computed
// block-wise so peak memory stays bounded for whole-transcriptome inputs.
type TOMEngine struct {
	BlockSize int
}

// NewTOMEngine creates an engine with the given row-block size. Sizes below
// one fall back to a single block.
func NewTOMEngine(blockSize int) *TOMEngine {
	if blockSize < 1 {
		blockSize = 1 << 30
	}
	return &TOMEngine{BlockSize: blockSize}
}

// Compute derives TOM(i,j) = (sum_u a_iu*a_ju + a_ij) / (min(k_i,k_j) + 1 - a_ij)
// with a unit diagonal, clipped to [0,1]. The adjacency diagonal is zero so
// the cross-product sum needs no u==i / u==j exclusion terms.
func (e *TOMEngine) Compute(adj *network.SymMatrix) *network.SymMatrix {
	n := adj.Size()
	k := adj.Connectivity()

	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		copy(a.RawRowView(i), adj.Row(i))
	}

	tom := network.NewSymMatrix(n)

	blocks := make(chan [2]int)
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range blocks {
				e.computeBlock(a, adj, tom, k, b[0], b[1])
			}
		}()
	}

	for start := 0; start < n; start += e.BlockSize {
		end := start + e.BlockSize
		if end > n {
			end = n
		}
		blocks <- [2]int{start, end}
	}
	close(blocks)
	wg.Wait()

	for i := 0; i < n; i++ {
		tom.Set(i, i, 1)
	}
	return tom
}

// computeBlock fills TOM rows [start,end). The block product reuses the
// fully materialized adjacency, so each block costs one (end-start) x n by
// n x n multiply.
func (e *TOMEngine) computeBlock(a *mat.Dense, adj *network.SymMatrix, tom *network.SymMatrix, k []float64, start, end int) {
	n := adj.Size()
	block := a.Slice(start, end, 0, n)

	var prod mat.Dense
	prod.Mul(block, a.T())

	for i := start; i < end; i++ {
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			aij := adj.At(i, j)
			numerator := prod.At(i-start, j) + aij
			denominator := math.Min(k[i], k[j]) + 1 - aij

			v := 0.0
			if denominator > 0 {
				v = numerator / denominator
			}
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			// Each (i,j) with i<j is written by exactly one block row;
			// writes for i>j land on the mirrored cell of a different row,
			// so Set is safe without locking only when j > i.
			if j > i {
				tom.Set(i, j, v)
			}
		}
	}
}

// Dissimilarity converts a TOM into the clustering distance 1 - TOM.
func Dissimilarity(tom *network.SymMatrix) *network.SymMatrix {
	n := tom.Size()
	d := network.NewSymMatrix(n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d.Set(i, j, 1-tom.At(i, j))
		}
	}
	return d
}
