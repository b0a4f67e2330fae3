package expr

import (
	"fmt"
)

// GeneID uniquely identifies a gene row within a dataset
type GeneID string

// SampleID uniquely identifies a sample column within a dataset
type SampleID string

// Matrix is an immutable genes x samples expression matrix.
// Row and column order is fixed at construction; lookups by GeneID go
// through the index map.
type Matrix struct {
	genes   []GeneID
	samples []SampleID
	values  [][]float64 // [gene][sample]
	geneIdx map[GeneID]int
}

// NewMatrix builds an expression matrix from parallel gene/sample/value slices.
// The value rows are copied so callers cannot mutate the matrix afterwards.
func NewMatrix(genes []GeneID, samples []SampleID, values [][]float64) (*Matrix, error) {
	if len(genes) == 0 || len(samples) == 0 {
		return nil, fmt.Errorf("expression matrix requires at least one gene and one sample")
	}
	if len(values) != len(genes) {
		return nil, fmt.Errorf("expression matrix has %d genes but %d value rows", len(genes), len(values))
	}

	idx := make(map[GeneID]int, len(genes))
	rows := make([][]float64, len(genes))
	for i, g := range genes {
		if _, dup := idx[g]; dup {
			return nil, fmt.Errorf("duplicate gene identifier %q", g)
		}
		idx[g] = i
		if len(values[i]) != len(samples) {
			return nil, fmt.Errorf("gene %q has %d values, expected %d samples", g, len(values[i]), len(samples))
		}
		row := make([]float64, len(samples))
		copy(row, values[i])
		rows[i] = row
	}

	return &Matrix{
		genes:   append([]GeneID(nil), genes...),
		samples: append([]SampleID(nil), samples...),
		values:  rows,
		geneIdx: idx,
	}, nil
}

// Genes returns the gene identifiers in row order.
func (m *Matrix) Genes() []GeneID { return m.genes }

// Samples returns the sample identifiers in column order.
func (m *Matrix) Samples() []SampleID { return m.samples }

// GeneCount returns the number of gene rows.
func (m *Matrix) GeneCount() int { return len(m.genes) }

// SampleCount returns the number of sample columns.
func (m *Matrix) SampleCount() int { return len(m.samples) }

// Row returns the expression profile of the gene at row i.
// The returned slice must not be mutated.
func (m *Matrix) Row(i int) []float64 { return m.values[i] }

// RowByGene returns the expression profile for a gene identifier.
func (m *Matrix) RowByGene(g GeneID) ([]float64, bool) {
	i, ok := m.geneIdx[g]
	if !ok {
		return nil, false
	}
	return m.values[i], true
}

// GeneIndex returns the row index of a gene identifier.
func (m *Matrix) GeneIndex(g GeneID) (int, bool) {
	i, ok := m.geneIdx[g]
	return i, ok
}

// HasSameGenes reports whether other carries exactly the same gene set,
// regardless of row order.
func (m *Matrix) HasSameGenes(other *Matrix) bool {
	if other == nil || len(m.genes) != len(other.genes) {
		return false
	}
	for g := range m.geneIdx {
		if _, ok := other.geneIdx[g]; !ok {
			return false
		}
	}
	return true
}

// Subset returns a new matrix restricted to the given genes, in the given
// order. Missing genes are an error; preservation statistics must never
// silently intersect gene sets.
func (m *Matrix) Subset(genes []GeneID) (*Matrix, error) {
	values := make([][]float64, len(genes))
	for i, g := range genes {
		row, ok := m.RowByGene(g)
		if !ok {
			return nil, fmt.Errorf("gene %q not present in matrix", g)
		}
		values[i] = row
	}
	return NewMatrix(genes, m.samples, values)
}
