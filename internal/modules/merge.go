package modules

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"coexnet/domain/expr"
	"coexnet/domain/modules"
)

// MergeCloseModules repeatedly merges the module pair whose eigengene
// correlation distance (1 - cor) falls below mergeHeight, relabeling the
// smaller module into the larger, until no pair qualifies. Eigengenes are
// recomputed after every merge because the merged module's representative
// profile shifts.
func MergeCloseModules(m *expr.Matrix, a *modules.Assignment, mergeHeight float64) (*modules.Assignment, EigengeneSet, error) {
	current := a
	for {
		set, err := ComputeEigengenes(m, current)
		if err != nil {
			return nil, nil, err
		}
		labels := current.Modules()
		if len(labels) < 2 {
			return current, set, nil
		}

		bestI, bestJ := -1, -1
		bestDiss := math.Inf(1)
		for i := 0; i < len(labels); i++ {
			for j := i + 1; j < len(labels); j++ {
				diss := 1 - stat.Correlation(set[labels[i]], set[labels[j]], nil)
				if diss < bestDiss {
					bestDiss = diss
					bestI, bestJ = i, j
				}
			}
		}

		if bestDiss >= mergeHeight {
			return current, set, nil
		}

		from, into := labels[bestI], labels[bestJ]
		// Fold the smaller module into the larger one.
		if current.Size(from) > current.Size(into) {
			from, into = into, from
		}
		next := make(map[expr.GeneID]modules.Label, current.GeneCount())
		for _, l := range labels {
			for _, g := range current.Genes(l) {
				if l == from {
					next[g] = into
				} else {
					next[g] = l
				}
			}
		}
		for _, g := range current.Genes(modules.Unassigned) {
			next[g] = modules.Unassigned
		}
		current = modules.NewAssignment(next)
	}
}

// ReassignGenes moves individual genes to a different module when their
// correlation to that module's eigengene beats their own by more than
// margin. A single pass over all assigned genes; unassigned genes are left
// alone.
func ReassignGenes(m *expr.Matrix, a *modules.Assignment, set EigengeneSet, margin float64) *modules.Assignment {
	next := a
	for _, l := range a.Modules() {
		for _, g := range a.Genes(l) {
			row, ok := m.RowByGene(g)
			if !ok {
				continue
			}
			own := stat.Correlation(row, set[l], nil)

			bestLabel := l
			bestKME := own
			for _, other := range a.Modules() {
				if other == l {
					continue
				}
				kme := stat.Correlation(row, set[other], nil)
				if kme > bestKME+margin {
					bestKME = kme
					bestLabel = other
				}
			}
			if bestLabel != l {
				next = next.WithLabel(g, bestLabel)
			}
		}
	}
	return next
}
