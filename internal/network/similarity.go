package network

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"coexnet/domain/expr"
	"coexnet/domain/network"
	"coexnet/internal/errors"
)

// SimilarityEngine turns an expression matrix into a soft-thresholded
// adjacency matrix. Pure function of its inputs; no state survives a call.
type SimilarityEngine struct {
	Power  float64
	Signed bool
}

// NewSimilarityEngine creates an engine with an explicit soft-threshold power.
func NewSimilarityEngine(power float64, signed bool) *SimilarityEngine {
	return &SimilarityEngine{Power: power, Signed: signed}
}

// CheckIntegrity rejects genes that would poison the correlation structure:
// missing values and near-zero variance rows. Must run before any similarity
// computation; the caller decides whether to exclude and retry.
func CheckIntegrity(m *expr.Matrix, minVariance float64) error {
	for i, g := range m.Genes() {
		row := m.Row(i)
		mean := 0.0
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.InputIntegrityf("gene %q has missing or non-finite values", g)
			}
			mean += v
		}
		mean /= float64(len(row))
		ss := 0.0
		for _, v := range row {
			d := v - mean
			ss += d * d
		}
		variance := ss / float64(len(row)-1)
		if variance < minVariance {
			return errors.InputIntegrityf("gene %q has near-zero variance (%.3g)", g, variance)
		}
	}
	return nil
}

// standardizedRows returns a genes x samples matrix whose rows are centered
// and scaled to unit Euclidean norm, so that X * X^T is exactly the Pearson
// correlation matrix.
func standardizedRows(m *expr.Matrix) *mat.Dense {
	g, s := m.GeneCount(), m.SampleCount()
	x := mat.NewDense(g, s, nil)
	for i := 0; i < g; i++ {
		row := m.Row(i)
		mean := 0.0
		for _, v := range row {
			mean += v
		}
		mean /= float64(s)
		norm := 0.0
		for _, v := range row {
			d := v - mean
			norm += d * d
		}
		norm = math.Sqrt(norm)
		for j, v := range row {
			if norm == 0 {
				x.Set(i, j, 0)
			} else {
				x.Set(i, j, (v-mean)/norm)
			}
		}
	}
	return x
}

// Correlation computes the full Pearson correlation matrix as one
// standardized matrix product.
func Correlation(m *expr.Matrix) *mat.Dense {
	x := standardizedRows(m)
	g, _ := x.Dims()
	c := mat.NewDense(g, g, nil)
	c.Mul(x, x.T())
	// Floating error can push perfect correlations slightly past 1.
	for i := 0; i < g; i++ {
		for j := 0; j < g; j++ {
			v := c.At(i, j)
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			c.Set(i, j, v)
		}
	}
	return c
}

// Adjacency applies the soft threshold to a correlation matrix. Unsigned
// networks use |r|^power, signed networks ((1+r)/2)^power. The diagonal is
// zero so degree sums exclude the self term.
func (e *SimilarityEngine) Adjacency(corr *mat.Dense) *network.SymMatrix {
	g, _ := corr.Dims()
	adj := network.NewSymMatrix(g)
	for i := 0; i < g; i++ {
		for j := i + 1; j < g; j++ {
			r := corr.At(i, j)
			var s float64
			if e.Signed {
				s = (1 + r) / 2
			} else {
				s = math.Abs(r)
			}
			adj.Set(i, j, math.Pow(s, e.Power))
		}
	}
	return adj
}
