package preservation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"coexnet/domain/network"
)

// BatteryResult holds the raw structural statistics for one gene subset in
// one comparison network. A NaN value means the statistic was not computable
// for this subset; callers must treat it as missing, never as zero.
type BatteryResult struct {
	Density         float64 // mean off-diagonal adjacency of the module subgraph
	ClusterCoef     float64 // mean weighted clustering coefficient
	ConnectivityCor float64 // Spearman cor of reference vs comparison intramodular connectivity
	AdjacencyCor    float64 // Pearson cor of reference vs comparison adjacency entries
}

// Names returns statistic names in battery order, matching Values.
func (BatteryResult) Names() []string {
	return []string{"density", "clusterCoef", "connectivityCor", "adjacencyCor"}
}

// Values returns the statistics in battery order.
func (b BatteryResult) Values() []float64 {
	return []float64{b.Density, b.ClusterCoef, b.ConnectivityCor, b.AdjacencyCor}
}

// ComputeBattery evaluates every battery statistic on a module subgraph.
// refAdj and compAdj are adjacency matrices already restricted to the same
// gene subset in the same order.
func ComputeBattery(refAdj, compAdj *network.SymMatrix) BatteryResult {
	return BatteryResult{
		Density:         density(compAdj),
		ClusterCoef:     meanClusteringCoefficient(compAdj),
		ConnectivityCor: spearman(refAdj.Connectivity(), compAdj.Connectivity()),
		AdjacencyCor:    adjacencyCorrelation(refAdj, compAdj),
	}
}

// density is the mean off-diagonal adjacency, the intramodular connectivity
// density of the subgraph.
func density(adj *network.SymMatrix) float64 {
	n := adj.Size()
	if n < 2 {
		return math.NaN()
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += adj.RowSumOffDiag(i)
	}
	return sum / float64(n*(n-1))
}

// meanClusteringCoefficient averages the weighted clustering coefficient
// over all nodes: C_i = sum_{j!=k} a_ij a_jk a_ki / ((sum_j a_ij)^2 - sum_j a_ij^2).
func meanClusteringCoefficient(adj *network.SymMatrix) float64 {
	n := adj.Size()
	if n < 3 {
		return math.NaN()
	}

	total := 0.0
	counted := 0
	for i := 0; i < n; i++ {
		rowSum := 0.0
		rowSumSq := 0.0
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			a := adj.At(i, j)
			rowSum += a
			rowSumSq += a * a
		}
		denom := rowSum*rowSum - rowSumSq
		if denom <= 0 {
			continue
		}

		tri := 0.0
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			aij := adj.At(i, j)
			if aij == 0 {
				continue
			}
			for k := 0; k < n; k++ {
				if k == i || k == j {
					continue
				}
				tri += aij * adj.At(j, k) * adj.At(k, i)
			}
		}
		total += tri / denom
		counted++
	}
	if counted == 0 {
		return math.NaN()
	}
	return total / float64(counted)
}

// adjacencyCorrelation correlates the upper-triangle entries of two
// adjacency matrices over the same gene subset.
func adjacencyCorrelation(refAdj, compAdj *network.SymMatrix) float64 {
	n := refAdj.Size()
	if n < 3 || compAdj.Size() != n {
		return math.NaN()
	}
	var xs, ys []float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			xs = append(xs, refAdj.At(i, j))
			ys = append(ys, compAdj.At(i, j))
		}
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return math.NaN()
	}
	return r
}

// spearman computes the rank correlation of two vectors.
func spearman(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 3 {
		return math.NaN()
	}
	r := stat.Correlation(rankData(x), rankData(y), nil)
	if math.IsNaN(r) {
		return math.NaN()
	}
	return r
}

// rankData assigns ranks to data, handling ties by averaging
func rankData(data []float64) []float64 {
	n := len(data)
	ranks := make([]float64, n)

	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, n)
	for i, v := range data {
		pairs[i] = pair{v, i}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	i := 0
	for i < n {
		j := i
		for j < n-1 && pairs[j+1].value == pairs[i].value {
			j++
		}
		avgRank := float64(i+j)/2.0 + 1
		for k := i; k <= j; k++ {
			ranks[pairs[k].index] = avgRank
		}
		i = j + 1
	}
	return ranks
}
