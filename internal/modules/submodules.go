package modules

import (
	"coexnet/domain/expr"
	"coexnet/domain/modules"
	"coexnet/domain/network"
)

// DetectSubmodules reruns detection inside each module of a parent
// assignment with the submodule threshold set (effectively no size floor and
// a tighter merge height). Keys of the result are parent labels; unassigned
// genes of the parent are not revisited.
func DetectSubmodules(m *expr.Matrix, tom *network.SymMatrix, parent *modules.Assignment, cfg DetectorConfig) (map[modules.Label]*modules.Assignment, error) {
	out := make(map[modules.Label]*modules.Assignment)
	detector := NewDetector(cfg)

	for _, l := range parent.Modules() {
		genes := parent.Genes(l)
		if len(genes) < 3 {
			continue
		}

		sub, err := m.Subset(genes)
		if err != nil {
			return nil, err
		}
		subTOM := subsetTOM(m, tom, genes)
		res, err := detector.Detect(sub, subTOM)
		if err != nil {
			return nil, err
		}
		out[l] = res.Assignment
	}
	return out, nil
}

// subsetTOM extracts the TOM restricted to a gene subset, in subset order.
func subsetTOM(m *expr.Matrix, tom *network.SymMatrix, genes []expr.GeneID) *network.SymMatrix {
	idx := make([]int, len(genes))
	for i, g := range genes {
		gi, _ := m.GeneIndex(g)
		idx[i] = gi
	}
	sub := network.NewSymMatrix(len(genes))
	for i := range idx {
		for j := i; j < len(idx); j++ {
			sub.Set(i, j, tom.At(idx[i], idx[j]))
		}
	}
	return sub
}
