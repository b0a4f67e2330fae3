package preservation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	internal "coexnet/internal"

	"coexnet/domain/expr"
	"coexnet/domain/modules"
	"coexnet/domain/preservation"
	"coexnet/internal/config"
	"coexnet/internal/errors"
	coexnetwork "coexnet/internal/network"
	"coexnet/ports"
)

// Engine runs the per-module permutation test against one or more comparison
// datasets. Module-level work items execute concurrently under a weighted
// semaphore; permutation replicates within a module are distributed across
// an inner worker group. Every random draw comes from a seed-addressable
// sub-stream, so scheduling order never changes results.
type Engine struct {
	cfg    config.PreservationConfig
	netCfg config.NetworkConfig
	rng    ports.RNGPort
	log    *internal.Logger
}

// NewEngine creates a preservation engine.
func NewEngine(cfg config.PreservationConfig, netCfg config.NetworkConfig, rngPort ports.RNGPort) *Engine {
	return &Engine{cfg: cfg, netCfg: netCfg, rng: rngPort, log: internal.DefaultLogger}
}

// Outcome is the result of one module x comparison unit of work. Err is set
// for fatal per-unit failures (dimension mismatch); unstable statistics
// surface inside the record as NA, never here.
type Outcome struct {
	Module    modules.Label
	CompGroup string
	Record    preservation.Record
	Err       error
}

// Run scores every module of the reference assignment against every
// comparison dataset. Failed units do not abort their siblings; the caller
// receives one outcome per unit and aggregates success and failure as a pure
// reduction.
func (e *Engine) Run(ctx context.Context, ref expr.Dataset, assignment *modules.Assignment, comparisons []expr.Dataset) []Outcome {
	type job struct {
		label modules.Label
		comp  expr.Dataset
	}

	var jobs []job
	for _, comp := range comparisons {
		for _, l := range assignment.Modules() {
			jobs = append(jobs, job{label: l, comp: comp})
		}
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sem := semaphore.NewWeighted(int64(workers))

	outcomes := make([]Outcome, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = Outcome{Module: j.label, CompGroup: j.comp.Label, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			defer sem.Release(1)
			rec, err := e.scoreModule(ctx, ref, assignment, j.label, j.comp)
			outcomes[i] = Outcome{Module: j.label, CompGroup: j.comp.Label, Record: rec, Err: err}
		}(i, j)
	}
	wg.Wait()
	return outcomes
}

// scoreModule computes one preservation record: observed battery statistics
// on the comparison network restricted to the module's genes, a permutation
// null over random same-sized gene sets, and the standardized composite.
func (e *Engine) scoreModule(ctx context.Context, ref expr.Dataset, assignment *modules.Assignment, label modules.Label, comp expr.Dataset) (preservation.Record, error) {
	genes := assignment.Genes(label)
	record := preservation.Record{
		Module:     label,
		RefGroup:   ref.Label,
		CompGroup:  comp.Label,
		ModuleSize: len(genes),
		ZSummary:   math.NaN(),
	}

	if len(genes) < e.cfg.MinScoreSize {
		// Too few genes for a stable permutation null; NA is data.
		return record, nil
	}
	if !ref.Matrix.HasSameGenes(comp.Matrix) {
		return record, errors.DimensionMismatch(fmt.Sprintf(
			"comparison %q gene set does not match reference %q", comp.Label, ref.Label))
	}

	observed, err := e.subsetBattery(ref.Matrix, comp.Matrix, genes)
	if err != nil {
		return record, err
	}

	nulls, err := e.permutationNull(ctx, ref.Matrix, comp.Matrix, label, comp.Label, len(genes))
	if err != nil {
		return record, err
	}

	names := observed.Names()
	obsValues := observed.Values()
	var zs []float64
	for s, name := range names {
		statZ := preservation.StatisticZ{Name: name, Observed: obsValues[s], Z: math.NaN()}

		var null []float64
		for _, b := range nulls {
			v := b.Values()[s]
			if !math.IsNaN(v) {
				null = append(null, v)
			}
		}

		if !math.IsNaN(obsValues[s]) && len(null) >= 2 {
			nullMean, _ := stats.Mean(null)
			nullSD, _ := stats.StandardDeviationSample(null)
			p95, _ := stats.Percentile(null, 95)
			statZ.Null = preservation.NullSummary{Mean: nullMean, StdDev: nullSD, Percentile95: p95}
			// A null distribution this tight is numerically degenerate
			// (e.g. correlation statistics when reference and comparison
			// coincide); its Z would be float noise, not signal.
			if nullSD > 1e-12 {
				statZ.Z = (obsValues[s] - nullMean) / nullSD
				statZ.Valid = true
				zs = append(zs, statZ.Z)
			}
		}
		record.Statistics = append(record.Statistics, statZ)
	}

	// The composite needs at least two computable statistics.
	if len(zs) >= 2 {
		sum := 0.0
		for _, z := range zs {
			sum += z
		}
		record.ZSummary = sum / float64(len(zs))
	}
	return record, nil
}

// permutationNull recomputes the battery for randomly relabeled modules:
// gene sets of the same size drawn from the full shared pool. Each replicate
// owns a stream addressed by (module, permutation index) on the configured
// base seed, so a fixed seed reproduces the null exactly across runs.
func (e *Engine) permutationNull(ctx context.Context, refM, compM *expr.Matrix, label modules.Label, compLabel string, size int) ([]BatteryResult, error) {
	pool := refM.Genes()
	results := make([]BatteryResult, e.cfg.Permutations)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for p := 0; p < e.cfg.Permutations; p++ {
		p := p
		g.Go(func() error {
			itemKey := fmt.Sprintf("module%d/%s/perm%d", label, compLabel, p)
			stream, err := e.rng.Stream(gctx, "permutation", itemKey, e.cfg.Seed)
			if err != nil {
				return err
			}

			subset := make([]expr.GeneID, size)
			for i, idx := range stream.Perm(len(pool))[:size] {
				subset[i] = pool[idx]
			}

			b, err := e.subsetBattery(refM, compM, subset)
			if err != nil {
				return err
			}
			results[p] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// subsetBattery builds reference and comparison adjacency for a gene subset
// and evaluates the statistic battery on it.
func (e *Engine) subsetBattery(refM, compM *expr.Matrix, genes []expr.GeneID) (BatteryResult, error) {
	refSub, err := refM.Subset(genes)
	if err != nil {
		return BatteryResult{}, errors.WithCode(errors.CodeDimensionMismatch, err)
	}
	compSub, err := compM.Subset(genes)
	if err != nil {
		return BatteryResult{}, errors.WithCode(errors.CodeDimensionMismatch, err)
	}

	sim := coexnetwork.NewSimilarityEngine(e.netCfg.SoftPower, e.netCfg.Signed)
	refAdj := sim.Adjacency(coexnetwork.Correlation(refSub))
	compAdj := sim.Adjacency(coexnetwork.Correlation(compSub))
	return ComputeBattery(refAdj, compAdj), nil
}
