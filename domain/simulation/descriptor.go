package simulation

import (
	"fmt"

	"coexnet/domain/expr"
)

// ScenarioKind distinguishes the three duplication experiments.
type ScenarioKind int

const (
	// ScenarioControl doubles every gene with jitter and no imbalance.
	ScenarioControl ScenarioKind = iota
	// ScenarioRandomImbalance draws the unbalanced gene set uniformly from
	// all genes.
	ScenarioRandomImbalance
	// ScenarioHubImbalance draws the unbalanced gene set from the
	// highest-connectivity genes of the reference module.
	ScenarioHubImbalance
)

// String returns the canonical scenario name used in result labels.
func (k ScenarioKind) String() string {
	switch k {
	case ScenarioControl:
		return "control"
	case ScenarioRandomImbalance:
		return "random-imbalance"
	case ScenarioHubImbalance:
		return "hub-imbalance"
	default:
		return fmt.Sprintf("scenario(%d)", int(k))
	}
}

// Descriptor identifies one synthetic dataset. Scenario and Replicate are
// unique within a noise factor.
type Descriptor struct {
	NoiseFactor     float64
	Scenario        ScenarioKind
	Replicate       int
	UnbalancedGenes []expr.GeneID
}

// Label renders a stable dataset label for tagging and persistence.
func (d Descriptor) Label() string {
	return fmt.Sprintf("%s_noise%.2f_rep%d", d.Scenario, d.NoiseFactor, d.Replicate)
}
