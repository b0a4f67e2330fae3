package network

import (
	"fmt"
	"math"
)

// SymMatrix is a dense symmetric gene x gene matrix used for both adjacency
// and topological overlap. Values are kept in [0,1] by the engines that
// construct it; the type itself only enforces shape.
type SymMatrix struct {
	n    int
	data []float64 // row-major n*n
}

// NewSymMatrix allocates an n x n zero matrix.
func NewSymMatrix(n int) *SymMatrix {
	return &SymMatrix{n: n, data: make([]float64, n*n)}
}

// Size returns the number of genes (rows).
func (m *SymMatrix) Size() int { return m.n }

// At returns the value at (i,j).
func (m *SymMatrix) At(i, j int) float64 { return m.data[i*m.n+j] }

// Set writes v at (i,j) and (j,i).
func (m *SymMatrix) Set(i, j int, v float64) {
	m.data[i*m.n+j] = v
	m.data[j*m.n+i] = v
}

// Row returns row i as a slice view. Callers must not mutate it.
func (m *SymMatrix) Row(i int) []float64 { return m.data[i*m.n : (i+1)*m.n] }

// RowSumOffDiag returns the sum of row i excluding the diagonal entry.
func (m *SymMatrix) RowSumOffDiag(i int) float64 {
	sum := 0.0
	for j, v := range m.Row(i) {
		if j == i {
			continue
		}
		sum += v
	}
	return sum
}

// Connectivity returns the per-gene off-diagonal row sums, the weighted
// degree vector of the network.
func (m *SymMatrix) Connectivity() []float64 {
	k := make([]float64, m.n)
	for i := 0; i < m.n; i++ {
		k[i] = m.RowSumOffDiag(i)
	}
	return k
}

// CheckBounds verifies every entry lies in [0,1] within tol and the matrix is
// symmetric. Used by tests and input validation, not on hot paths.
func (m *SymMatrix) CheckBounds(tol float64) error {
	for i := 0; i < m.n; i++ {
		for j := i; j < m.n; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || v < -tol || v > 1+tol {
				return fmt.Errorf("entry (%d,%d)=%g outside [0,1]", i, j, v)
			}
			if math.Abs(v-m.At(j, i)) > tol {
				return fmt.Errorf("asymmetry at (%d,%d): %g vs %g", i, j, v, m.At(j, i))
			}
		}
	}
	return nil
}
