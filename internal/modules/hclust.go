package modules

import (
	"math"

	"coexnet/domain/modules"
	"coexnet/domain/network"
)

// AverageLinkage clusters genes hierarchically on a dissimilarity matrix
// using the nearest-neighbor chain algorithm, which keeps the whole run at
// quadratic cost. Average linkage is reducible, so chain merges produce the
// same tree as naive global-minimum search. Ties break toward the smallest
// cluster slot, making the result deterministic for a given input.
func AverageLinkage(dist *network.SymMatrix) *modules.Dendrogram {
	n := dist.Size()

	d := make([][]float64, n)
	for i := 0; i < n; i++ {
		d[i] = append([]float64(nil), dist.Row(i)...)
	}

	size := make([]int, n)
	active := make([]bool, n)
	nodeOf := make([]int, n)

	dend := &modules.Dendrogram{Nodes: make([]modules.DendrogramNode, 0, 2*n-1)}
	for i := 0; i < n; i++ {
		size[i] = 1
		active[i] = true
		nodeOf[i] = i
		dend.Nodes = append(dend.Nodes, modules.DendrogramNode{
			Left: -1, Right: -1, Leaf: i, Height: 0, Size: 1,
		})
	}

	chain := make([]int, 0, n)
	merges := 0

	for merges < n-1 {
		if len(chain) == 0 {
			for i := 0; i < n; i++ {
				if active[i] {
					chain = append(chain, i)
					break
				}
			}
		}

		for {
			x := chain[len(chain)-1]

			// Nearest active neighbor of x; prefer the previous chain
			// element on exact ties so reciprocal pairs terminate.
			y := -1
			best := math.Inf(1)
			var prev = -1
			if len(chain) >= 2 {
				prev = chain[len(chain)-2]
			}
			for j := 0; j < n; j++ {
				if !active[j] || j == x {
					continue
				}
				dj := d[x][j]
				if dj < best || (dj == best && j == prev) {
					best = dj
					y = j
				}
			}

			if y == prev && prev >= 0 {
				// Reciprocal nearest neighbors: merge x and y.
				chain = chain[:len(chain)-2]
				mergeClusters(d, size, active, x, y)

				keep, gone := x, y
				if y < x {
					keep, gone = y, x
				}
				dend.Nodes = append(dend.Nodes, modules.DendrogramNode{
					Left:   nodeOf[keep],
					Right:  nodeOf[gone],
					Leaf:   -1,
					Height: best,
					Size:   size[keep],
				})
				nodeOf[keep] = len(dend.Nodes) - 1
				merges++
				break
			}
			chain = append(chain, y)
		}
	}
	return dend
}

// mergeClusters folds cluster y into cluster min(x,y) with the
// Lance-Williams average-linkage update and deactivates the other slot.
func mergeClusters(d [][]float64, size []int, active []bool, x, y int) {
	keep, gone := x, y
	if y < x {
		keep, gone = y, x
	}
	nk, ng := float64(size[keep]), float64(size[gone])
	total := nk + ng

	n := len(d)
	for j := 0; j < n; j++ {
		if !active[j] || j == keep || j == gone {
			continue
		}
		merged := (nk*d[keep][j] + ng*d[gone][j]) / total
		d[keep][j] = merged
		d[j][keep] = merged
	}
	size[keep] += size[gone]
	active[gone] = false
}
