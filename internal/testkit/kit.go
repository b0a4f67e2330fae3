package testkit

import (
	"fmt"
	"math/rand"

	"coexnet/domain/expr"
)

// CorrelatedBlock generates a module-like gene set: every gene follows one
// shared latent profile plus independent noise, so all pairwise correlations
// are strong and positive.
func CorrelatedBlock(rng *rand.Rand, genes, samples int, noise float64, prefix string) *expr.Matrix {
	latent := make([]float64, samples)
	for j := range latent {
		latent[j] = rng.NormFloat64()
	}

	ids := make([]expr.GeneID, genes)
	sampleIDs := SampleIDs(samples)
	values := make([][]float64, genes)
	for i := 0; i < genes; i++ {
		ids[i] = expr.GeneID(fmt.Sprintf("%s%04d", prefix, i))
		row := make([]float64, samples)
		for j := range row {
			row[j] = latent[j] + noise*rng.NormFloat64()
		}
		values[i] = row
	}
	m, err := expr.NewMatrix(ids, sampleIDs, values)
	if err != nil {
		panic(err)
	}
	return m
}

// NoiseMatrix generates fully independent random expression with the given
// gene identifiers, matching dimensions but carrying no structure.
func NoiseMatrix(rng *rand.Rand, genes []expr.GeneID, samples int) *expr.Matrix {
	values := make([][]float64, len(genes))
	for i := range genes {
		row := make([]float64, samples)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		values[i] = row
	}
	m, err := expr.NewMatrix(genes, SampleIDs(samples), values)
	if err != nil {
		panic(err)
	}
	return m
}

// TwoBlockMatrix builds a matrix with two internally correlated modules and
// a pool of unstructured background genes. Returns the matrix plus the gene
// identifiers of each block.
func TwoBlockMatrix(rng *rand.Rand, blockSize, background, samples int, noise float64) (*expr.Matrix, []expr.GeneID, []expr.GeneID) {
	a := CorrelatedBlock(rng, blockSize, samples, noise, "A")
	b := CorrelatedBlock(rng, blockSize, samples, noise, "B")

	genes := append(append([]expr.GeneID{}, a.Genes()...), b.Genes()...)
	values := make([][]float64, 0, len(genes)+background)
	for i := 0; i < blockSize; i++ {
		values = append(values, a.Row(i))
	}
	for i := 0; i < blockSize; i++ {
		values = append(values, b.Row(i))
	}
	for i := 0; i < background; i++ {
		genes = append(genes, expr.GeneID(fmt.Sprintf("N%04d", i)))
		row := make([]float64, samples)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		values = append(values, row)
	}

	m, err := expr.NewMatrix(genes, SampleIDs(samples), values)
	if err != nil {
		panic(err)
	}
	return m, a.Genes(), b.Genes()
}

// SampleIDs generates sequential sample identifiers.
func SampleIDs(n int) []expr.SampleID {
	out := make([]expr.SampleID, n)
	for i := range out {
		out[i] = expr.SampleID(fmt.Sprintf("S%03d", i))
	}
	return out
}
