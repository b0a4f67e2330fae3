package modules

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"coexnet/domain/expr"
	"coexnet/domain/modules"
	"coexnet/internal/errors"
)

// Eigengene is a module's representative expression trajectory: the first
// principal component of its member genes' standardized profiles, one value
// per sample.
type Eigengene []float64

// ComputeEigengene extracts the first right singular vector of the module's
// standardized genes x samples submatrix. The sign is aligned with the mean
// member profile so eigengenes correlate positively with their module.
func ComputeEigengene(m *expr.Matrix, genes []expr.GeneID) (Eigengene, error) {
	if len(genes) == 0 {
		return nil, errors.UnstableStatistic("cannot compute eigengene of empty module")
	}
	s := m.SampleCount()

	x := mat.NewDense(len(genes), s, nil)
	meanProfile := make([]float64, s)
	for i, g := range genes {
		row, ok := m.RowByGene(g)
		if !ok {
			return nil, errors.DimensionMismatch("gene " + string(g) + " missing from expression matrix")
		}
		std := standardize(row)
		x.SetRow(i, std)
		for j, v := range std {
			meanProfile[j] += v
		}
	}
	for j := range meanProfile {
		meanProfile[j] /= float64(len(genes))
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, errors.UnstableStatistic("SVD failed for module eigengene")
	}
	var v mat.Dense
	svd.VTo(&v)

	eg := make(Eigengene, s)
	for j := 0; j < s; j++ {
		eg[j] = v.At(j, 0)
	}

	// Align orientation with the average member profile.
	if stat.Correlation(eg, meanProfile, nil) < 0 {
		for j := range eg {
			eg[j] = -eg[j]
		}
	}
	return eg, nil
}

// standardize centers a profile and scales it to unit standard deviation.
// Zero-variance profiles come back as all zeros.
func standardize(row []float64) []float64 {
	mean, sd := stat.MeanStdDev(row, nil)
	out := make([]float64, len(row))
	if sd == 0 || math.IsNaN(sd) {
		return out
	}
	for i, v := range row {
		out[i] = (v - mean) / sd
	}
	return out
}

// EigengeneSet holds one eigengene per module label.
type EigengeneSet map[modules.Label]Eigengene

// ComputeEigengenes builds eigengenes for every module in the assignment,
// skipping the unassigned label.
func ComputeEigengenes(m *expr.Matrix, a *modules.Assignment) (EigengeneSet, error) {
	set := make(EigengeneSet)
	for _, l := range a.Modules() {
		eg, err := ComputeEigengene(m, a.Genes(l))
		if err != nil {
			return nil, err
		}
		set[l] = eg
	}
	return set, nil
}
