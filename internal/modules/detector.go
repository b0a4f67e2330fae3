package modules

import (
	internal "coexnet/internal"

	"coexnet/domain/expr"
	"coexnet/domain/modules"
	"coexnet/domain/network"
	coexnetwork "coexnet/internal/network"
)

// DetectorConfig carries the thresholds for one detection pass. Top-level
// and submodule passes use different tuned constants, kept as explicit
// configuration rather than derived from one another.
type DetectorConfig struct {
	MinModuleSize     int
	MergeHeight       float64
	ReassignThreshold float64
	CutHeightQuantile float64
}

// Result bundles everything a detection pass produces. The dendrogram is
// reporting output only; downstream statistics consume just the assignment
// and eigengenes.
type Result struct {
	Assignment *modules.Assignment
	Eigengenes EigengeneSet
	Dendrogram *modules.Dendrogram
}

// Detector runs hierarchical clustering, dynamic branch cutting, eigengene
// merging and gene reassignment on a reference TOM.
type Detector struct {
	cfg DetectorConfig
	log *internal.Logger
}

// NewDetector creates a detector for one threshold set.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg, log: internal.DefaultLogger}
}

// Detect partitions the reference gene set into modules. Every gene receives
// exactly one label; genes on undersized branches carry the unassigned
// label. Final labels are renamed by decreasing module size.
func (d *Detector) Detect(m *expr.Matrix, tom *network.SymMatrix) (*Result, error) {
	dist := coexnetwork.Dissimilarity(tom)

	d.log.Info("clustering %d genes (average linkage on 1-TOM)", m.GeneCount())
	dend := AverageLinkage(dist)

	cutHeight := CutHeightFromQuantile(dend, d.cfg.CutHeightQuantile)
	byIndex := CutBranches(dend, cutHeight, d.cfg.MinModuleSize)
	assignment := modules.NewAssignment(labelsByGene(m.Genes(), byIndex))
	d.log.Info("branch cut at height %.4f produced %d modules", cutHeight, len(assignment.Modules()))

	merged, eigengenes, err := MergeCloseModules(m, assignment, d.cfg.MergeHeight)
	if err != nil {
		return nil, err
	}
	if n := len(merged.Modules()); n != len(assignment.Modules()) {
		d.log.Info("eigengene merge reduced module count to %d", n)
	}

	reassigned := ReassignGenes(m, merged, eigengenes, d.cfg.ReassignThreshold)
	final := reassigned.RelabelBySize()

	// Eigengenes follow the final labels.
	finalEigengenes, err := ComputeEigengenes(m, final)
	if err != nil {
		return nil, err
	}

	return &Result{
		Assignment: final,
		Eigengenes: finalEigengenes,
		Dendrogram: dend,
	}, nil
}
