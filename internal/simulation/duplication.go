package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	internal "coexnet/internal"

	"coexnet/domain/expr"
	"coexnet/domain/simulation"
	"coexnet/internal/config"
	"coexnet/internal/errors"
	"coexnet/ports"
)

// Simulator generates synthetic duplicated-genome expression matrices from a
// source dataset. Each output value models a dosage-compensated duplication:
// twice the source value with mean-zero multiplicative jitter. Imbalance
// scenarios leave a fraction of samples at the unduplicated level for a
// chosen gene set, modeling partial loss of dosage compensation.
type Simulator struct {
	cfg config.SimulationConfig
	rng ports.RNGPort
	log *internal.Logger
}

// NewSimulator creates a duplication simulator.
func NewSimulator(cfg config.SimulationConfig, rngPort ports.RNGPort) *Simulator {
	return &Simulator{cfg: cfg, rng: rngPort, log: internal.DefaultLogger}
}

// HubGenes selects the module genes above the upper connectivity quantile.
// connectivity is indexed parallel to genes. The returned set is sorted by
// descending connectivity.
func HubGenes(genes []expr.GeneID, connectivity []float64, quantile float64) ([]expr.GeneID, error) {
	if len(genes) != len(connectivity) {
		return nil, errors.DimensionMismatch(fmt.Sprintf(
			"connectivity vector has %d entries for %d genes", len(connectivity), len(genes)))
	}
	type geneK struct {
		gene expr.GeneID
		k    float64
	}
	ranked := make([]geneK, len(genes))
	for i, g := range genes {
		ranked[i] = geneK{g, connectivity[i]}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].k != ranked[j].k {
			return ranked[i].k > ranked[j].k
		}
		return ranked[i].gene < ranked[j].gene
	})

	count := int(math.Ceil(float64(len(genes)) * (1 - quantile)))
	if count < 1 {
		count = 1
	}
	if count > len(ranked) {
		count = len(ranked)
	}
	out := make([]expr.GeneID, count)
	for i := 0; i < count; i++ {
		out[i] = ranked[i].gene
	}
	return out, nil
}

// Scenarios builds the full descriptor grid for one noise factor: control,
// random-imbalance and hub-imbalance, each replicated cfg.Replicates times.
// hubSet is the reference module's hub genes; the unbalanced count for both
// imbalance scenarios is a fixed share of its size.
func (s *Simulator) Scenarios(ctx context.Context, source *expr.Matrix, noiseFactor float64, hubSet []expr.GeneID) ([]simulation.Descriptor, error) {
	unbalancedCount := int(math.Round(float64(len(hubSet)) * s.cfg.UnbalancedShare))
	if unbalancedCount < 1 && len(hubSet) > 0 {
		unbalancedCount = 1
	}

	var out []simulation.Descriptor
	for rep := 0; rep < s.cfg.Replicates; rep++ {
		out = append(out, simulation.Descriptor{
			NoiseFactor: noiseFactor,
			Scenario:    simulation.ScenarioControl,
			Replicate:   rep,
		})

		randomKey := fmt.Sprintf("random/%.2f/%d", noiseFactor, rep)
		stream, err := s.rng.Stream(ctx, "scenario-genes", randomKey, s.cfg.Seed)
		if err != nil {
			return nil, err
		}
		pool := source.Genes()
		randomSet := make([]expr.GeneID, 0, unbalancedCount)
		for _, idx := range stream.Perm(len(pool))[:min(unbalancedCount, len(pool))] {
			randomSet = append(randomSet, pool[idx])
		}
		out = append(out, simulation.Descriptor{
			NoiseFactor:     noiseFactor,
			Scenario:        simulation.ScenarioRandomImbalance,
			Replicate:       rep,
			UnbalancedGenes: randomSet,
		})

		hubKey := fmt.Sprintf("hub/%.2f/%d", noiseFactor, rep)
		stream, err = s.rng.Stream(ctx, "scenario-genes", hubKey, s.cfg.Seed)
		if err != nil {
			return nil, err
		}
		hubDraw := make([]expr.GeneID, 0, unbalancedCount)
		for _, idx := range stream.Perm(len(hubSet))[:min(unbalancedCount, len(hubSet))] {
			hubDraw = append(hubDraw, hubSet[idx])
		}
		out = append(out, simulation.Descriptor{
			NoiseFactor:     noiseFactor,
			Scenario:        simulation.ScenarioHubImbalance,
			Replicate:       rep,
			UnbalancedGenes: hubDraw,
		})
	}
	return out, nil
}

// Generate produces one synthetic expression matrix for a descriptor. The
// output carries exactly the source's gene set and sample count; every
// simulated sample corresponds 1:1 to a source sample at doubled ploidy.
func (s *Simulator) Generate(ctx context.Context, source *expr.Matrix, desc simulation.Descriptor) (*expr.Matrix, error) {
	stream, err := s.rng.Stream(ctx, "simulate", desc.Label(), s.cfg.Seed)
	if err != nil {
		return nil, err
	}

	unbalanced := make(map[expr.GeneID]bool, len(desc.UnbalancedGenes))
	for _, g := range desc.UnbalancedGenes {
		if _, ok := source.GeneIndex(g); !ok {
			return nil, errors.DimensionMismatch(fmt.Sprintf(
				"unbalanced gene %q not present in source matrix", g))
		}
		unbalanced[g] = true
	}

	genes := source.Genes()
	samples := source.SampleCount()
	values := make([][]float64, len(genes))
	for i, g := range genes {
		src := source.Row(i)
		row := make([]float64, samples)

		// For unbalanced genes a fixed fraction of samples stays at the
		// unduplicated level; which samples is a fresh draw per gene.
		var uncompensated map[int]bool
		if unbalanced[g] {
			count := int(math.Round(float64(samples) * s.cfg.ImbalanceFraction))
			uncompensated = make(map[int]bool, count)
			for _, idx := range stream.Perm(samples)[:count] {
				uncompensated[idx] = true
			}
		}

		for j, v := range src {
			if uncompensated[j] {
				row[j] = jitter(stream, v, desc.NoiseFactor)
			} else {
				row[j] = jitter(stream, 2*v, desc.NoiseFactor)
			}
		}
		values[i] = row
	}
	return expr.NewMatrix(genes, source.Samples(), values)
}

// jitter displaces a value by a bounded, mean-zero amount proportional to
// noise * value.
func jitter(stream *rand.Rand, value, noise float64) float64 {
	return value + noise*value*(stream.Float64()-0.5)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
