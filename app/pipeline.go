package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	internal "coexnet/internal"

	"coexnet/domain/expr"
	dmodules "coexnet/domain/modules"
	"coexnet/domain/network"
	"coexnet/domain/preservation"
	"coexnet/internal/config"
	"coexnet/internal/errors"
	"coexnet/internal/modules"
	coexnetwork "coexnet/internal/network"
	preserve "coexnet/internal/preservation"
	"coexnet/internal/simulation"
	"coexnet/ports"
)

// Pipeline wires the network, module detection, simulation and preservation
// phases into one run. Persistence happens only at phase boundaries; each
// per-module record save is a checkpoint.
type Pipeline struct {
	cfg  *config.Config
	rng  ports.RNGPort
	repo ports.ResultRepository
	log  *internal.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg *config.Config, rngPort ports.RNGPort, repo ports.ResultRepository) *Pipeline {
	return &Pipeline{cfg: cfg, rng: rngPort, repo: repo, log: internal.DefaultLogger}
}

// UnitFailure reports one module x comparison unit that failed fatally.
// Sibling units are unaffected.
type UnitFailure struct {
	Module    dmodules.Label
	CompGroup string
	Err       error
}

// RunReport is the aggregate outcome of one pipeline run.
type RunReport struct {
	RunID              uuid.UUID
	Power              float64
	ThresholdSatisfied bool
	Assignment         *dmodules.Assignment
	Eigengenes         modules.EigengeneSet
	Submodules         map[dmodules.Label]*dmodules.Assignment
	Table              *preservation.Table
	Failures           []UnitFailure
}

// Run executes the full pipeline on a tagged dataset collection: reference
// network construction and module detection, synthetic duplication datasets,
// then preservation scoring of every comparison.
func (p *Pipeline) Run(ctx context.Context, datasets *expr.DatasetSet) (*RunReport, error) {
	// The run ID names persisted results; random draws are addressed by the
	// configured seed alone, so repeating a run reproduces its numbers.
	runID := uuid.New()
	ref := datasets.Reference()
	p.log.Info("run %s: reference %q with %d genes x %d samples",
		runID, ref.Label, ref.Matrix.GeneCount(), ref.Matrix.SampleCount())

	if err := coexnetwork.CheckIntegrity(ref.Matrix, p.cfg.Network.MinGeneVariance); err != nil {
		return nil, err
	}

	power, satisfied := p.resolvePower(ref.Matrix)

	refTOM, err := p.buildTOM(ref.Matrix, power)
	if err != nil {
		return nil, err
	}

	detector := modules.NewDetector(modules.DetectorConfig{
		MinModuleSize:     p.cfg.Modules.MinModuleSize,
		MergeHeight:       p.cfg.Modules.MergeHeight,
		ReassignThreshold: p.cfg.Modules.ReassignThreshold,
		CutHeightQuantile: p.cfg.Modules.CutHeightQuantile,
	})
	detection, err := detector.Detect(ref.Matrix, refTOM)
	if err != nil {
		return nil, err
	}
	if err := p.repo.SaveAssignment(ctx, runID, detection.Assignment); err != nil {
		return nil, err
	}
	p.log.Info("run %s: %d modules detected", runID, len(detection.Assignment.Modules()))

	var submodules map[dmodules.Label]*dmodules.Assignment
	if p.cfg.Modules.DetectSubmodules {
		submodules, err = modules.DetectSubmodules(ref.Matrix, refTOM, detection.Assignment, modules.DetectorConfig{
			MinModuleSize:     p.cfg.Modules.SubMinModuleSize,
			MergeHeight:       p.cfg.Modules.SubMergeHeight,
			ReassignThreshold: p.cfg.Modules.ReassignThreshold,
			CutHeightQuantile: p.cfg.Modules.CutHeightQuantile,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := p.addSimulations(ctx, runID, datasets, detection.Assignment, refTOM); err != nil {
		return nil, err
	}

	netCfg := p.cfg.Network
	netCfg.SoftPower = power
	engine := preserve.NewEngine(p.cfg.Preservation, netCfg, p.rng)
	outcomes := engine.Run(ctx, ref, detection.Assignment, datasets.Comparisons())

	// Pure reduction over independent unit outcomes.
	report := &RunReport{
		RunID:              runID,
		Power:              power,
		ThresholdSatisfied: satisfied,
		Assignment:         detection.Assignment,
		Eigengenes:         detection.Eigengenes,
		Submodules:         submodules,
		Table:              &preservation.Table{},
	}
	for _, o := range outcomes {
		if o.Err != nil {
			report.Failures = append(report.Failures, UnitFailure{Module: o.Module, CompGroup: o.CompGroup, Err: o.Err})
			p.log.Error("run %s: module %d vs %q failed: %v", runID, o.Module, o.CompGroup, o.Err)
			continue
		}
		report.Table.Add(o.Record)
		if err := p.repo.SaveRecord(ctx, runID, o.Record); err != nil {
			return nil, errors.Wrap(err, "failed to checkpoint preservation record")
		}
	}
	p.log.Info("run %s: %d records, %d failures", runID, len(report.Table.Records), len(report.Failures))
	return report, nil
}

// resolvePower returns the configured soft threshold, or scans for one when
// auto-selection is requested. An unsatisfied scan is surfaced as a warning
// and the best-fitting candidate, never a silent fallback.
func (p *Pipeline) resolvePower(ref *expr.Matrix) (float64, bool) {
	if p.cfg.Network.SoftPower > 0 {
		return p.cfg.Network.SoftPower, true
	}
	sel := coexnetwork.PickSoftThreshold(
		ref, p.cfg.Network.CandidatePowers, p.cfg.Network.Signed,
		p.cfg.Network.FitTarget, p.cfg.Network.MeanDegreeFloor)
	if !sel.Satisfied {
		p.log.Warn("no soft-threshold power satisfies fit >= %.2f and mean connectivity >= %.0f; best candidate is %.0f",
			p.cfg.Network.FitTarget, p.cfg.Network.MeanDegreeFloor, sel.Power)
	} else {
		p.log.Info("soft-threshold power %.0f selected", sel.Power)
	}
	return sel.Power, sel.Satisfied
}

func (p *Pipeline) buildTOM(m *expr.Matrix, power float64) (*network.SymMatrix, error) {
	sim := coexnetwork.NewSimilarityEngine(power, p.cfg.Network.Signed)
	adj := sim.Adjacency(coexnetwork.Correlation(m))
	return coexnetwork.NewTOMEngine(p.cfg.Network.TOMBlockSize).Compute(adj), nil
}

// addSimulations generates duplication datasets for every configured noise
// factor and appends them as tagged simulation replicates. Hub genes come
// from the largest module's TOM connectivity in the reference network.
func (p *Pipeline) addSimulations(ctx context.Context, runID uuid.UUID, datasets *expr.DatasetSet, assignment *dmodules.Assignment, refTOM *network.SymMatrix) error {
	if len(p.cfg.Simulation.NoiseFactors) == 0 || p.cfg.Simulation.Replicates == 0 {
		return nil
	}
	labels := assignment.Modules()
	if len(labels) == 0 {
		p.log.Warn("no modules detected; skipping duplication simulations")
		return nil
	}

	ref := datasets.Reference()
	// RelabelBySize makes label 1 the largest module.
	target := labels[0]
	targetGenes := assignment.Genes(target)

	connectivity := make([]float64, len(targetGenes))
	for i, g := range targetGenes {
		idx, ok := ref.Matrix.GeneIndex(g)
		if !ok {
			return errors.DimensionMismatch(fmt.Sprintf("module gene %q missing from reference", g))
		}
		connectivity[i] = refTOM.RowSumOffDiag(idx)
	}
	hubs, err := simulation.HubGenes(targetGenes, connectivity, p.cfg.Simulation.HubQuantile)
	if err != nil {
		return err
	}

	simulator := simulation.NewSimulator(p.cfg.Simulation, p.rng)
	for _, noise := range p.cfg.Simulation.NoiseFactors {
		descriptors, err := simulator.Scenarios(ctx, ref.Matrix, noise, hubs)
		if err != nil {
			return err
		}
		for _, desc := range descriptors {
			m, err := simulator.Generate(ctx, ref.Matrix, desc)
			if err != nil {
				return err
			}
			if err := datasets.Add(expr.Dataset{
				Role:   expr.RoleSimulationReplicate,
				Label:  desc.Label(),
				Matrix: m,
			}); err != nil {
				return err
			}
		}
	}
	p.log.Info("run %s: %d datasets queued for preservation scoring", runID, datasets.Len()-1)
	return nil
}
