package network

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"coexnet/domain/expr"
)

// FitResult describes one candidate power in the soft-threshold scan.
type FitResult struct {
	Power            float64
	ScaleFreeFit     float64 // R^2 of the log-log connectivity regression
	MeanConnectivity float64
}

// ThresholdSelection is the outcome of a soft-threshold scan. When Satisfied
// is false no candidate met both targets and Power carries the best-fitting
// candidate; the caller must choose explicitly rather than trust it.
type ThresholdSelection struct {
	Power     float64
	Satisfied bool
	Results   []FitResult
}

// PickSoftThreshold scans candidate powers and selects the smallest one whose
// network satisfies both the scale-free fit target and the mean connectivity
// floor. The correlation matrix is computed once and re-thresholded per
// candidate.
func PickSoftThreshold(m *expr.Matrix, candidates []float64, signed bool, fitTarget, meanDegreeFloor float64) ThresholdSelection {
	corr := Correlation(m)

	sorted := append([]float64(nil), candidates...)
	sort.Float64s(sorted)

	sel := ThresholdSelection{Power: math.NaN()}
	bestFit := math.Inf(-1)

	for _, p := range sorted {
		engine := NewSimilarityEngine(p, signed)
		adj := engine.Adjacency(corr)
		k := adj.Connectivity()

		fit := scaleFreeFit(k)
		meanK := mean(k)
		sel.Results = append(sel.Results, FitResult{Power: p, ScaleFreeFit: fit, MeanConnectivity: meanK})

		if fit > bestFit {
			bestFit = fit
			if !sel.Satisfied {
				sel.Power = p
			}
		}
		if !sel.Satisfied && fit >= fitTarget && meanK >= meanDegreeFloor {
			sel.Power = p
			sel.Satisfied = true
		}
	}
	return sel
}

// scaleFreeFit bins the connectivity distribution and regresses log10(p(k))
// on log10(k). Returns the coefficient of determination of that line.
func scaleFreeFit(k []float64) float64 {
	const nBins = 10
	if len(k) < nBins {
		return 0
	}

	minK, maxK := k[0], k[0]
	for _, v := range k {
		if v < minK {
			minK = v
		}
		if v > maxK {
			maxK = v
		}
	}
	if maxK <= minK {
		return 0
	}

	width := (maxK - minK) / nBins
	counts := make([]int, nBins)
	binMean := make([]float64, nBins)
	for _, v := range k {
		b := int((v - minK) / width)
		if b >= nBins {
			b = nBins - 1
		}
		counts[b]++
		binMean[b] += v
	}

	var logK, logP []float64
	total := float64(len(k))
	for b := 0; b < nBins; b++ {
		if counts[b] == 0 {
			continue
		}
		meanK := binMean[b] / float64(counts[b])
		freq := float64(counts[b]) / total
		if meanK <= 0 || freq <= 0 {
			continue
		}
		logK = append(logK, math.Log10(meanK))
		logP = append(logP, math.Log10(freq))
	}
	if len(logK) < 3 {
		return 0
	}

	r := stat.Correlation(logK, logP, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r * r
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}
