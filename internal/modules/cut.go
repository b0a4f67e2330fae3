package modules

import (
	"sort"

	"coexnet/domain/expr"
	"coexnet/domain/modules"
)

// CutBranches extracts modules from a dendrogram by cutting every merge
// above cutHeight and keeping branches with at least minSize leaves. Leaves
// of undersized branches stay unassigned. Returns gene-index labels; the
// caller maps indices back to gene identifiers.
func CutBranches(dend *modules.Dendrogram, cutHeight float64, minSize int) map[int]modules.Label {
	labels := make(map[int]modules.Label)

	// A node is a branch root when it survives the cut but its parent does
	// not (or it is the tree root).
	isChildOfLow := make([]bool, len(dend.Nodes))
	for _, n := range dend.Nodes {
		if n.Leaf >= 0 {
			continue
		}
		if n.Height <= cutHeight {
			isChildOfLow[n.Left] = true
			isChildOfLow[n.Right] = true
		}
	}

	var roots []int
	for idx, n := range dend.Nodes {
		low := n.Leaf >= 0 || n.Height <= cutHeight
		if low && !isChildOfLow[idx] {
			roots = append(roots, idx)
		}
	}
	sort.Ints(roots)

	next := modules.Label(1)
	for _, root := range roots {
		leaves := dend.LeavesUnder(root)
		if len(leaves) < minSize {
			for _, leaf := range leaves {
				labels[leaf] = modules.Unassigned
			}
			continue
		}
		for _, leaf := range leaves {
			labels[leaf] = next
		}
		next++
	}
	return labels
}

// CutHeightFromQuantile converts a quantile of the maximum merge height into
// an absolute cut height.
func CutHeightFromQuantile(dend *modules.Dendrogram, quantile float64) float64 {
	maxH := 0.0
	for _, n := range dend.Nodes {
		if n.Height > maxH {
			maxH = n.Height
		}
	}
	return maxH * quantile
}

// labelsByGene translates gene-index labels into gene-identifier labels.
func labelsByGene(genes []expr.GeneID, byIndex map[int]modules.Label) map[expr.GeneID]modules.Label {
	out := make(map[expr.GeneID]modules.Label, len(genes))
	for i, g := range genes {
		out[g] = byIndex[i]
	}
	return out
}
