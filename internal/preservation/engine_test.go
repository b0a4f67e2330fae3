package preservation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"coexnet/adapters/rng"
	"coexnet/domain/expr"
	"coexnet/domain/modules"
	dsim "coexnet/domain/simulation"
	"coexnet/internal/config"
	"coexnet/internal/errors"
	"coexnet/internal/simulation"
	"coexnet/internal/testkit"
)

func testEngine(perms int) *Engine {
	return NewEngine(
		config.PreservationConfig{
			Permutations: perms,
			Seed:         7,
			MinScoreSize: 10,
			Workers:      2,
		},
		config.NetworkConfig{SoftPower: 2, Signed: false},
		rng.New(),
	)
}

// moduleDataset builds a reference with one tight 40-gene module inside a
// 160-gene pool and an assignment labeling just that module.
func moduleDataset(seed int64) (expr.Dataset, *modules.Assignment, []expr.GeneID) {
	r := rand.New(rand.NewSource(seed))
	m, blockA, _ := testkit.TwoBlockMatrix(r, 40, 80, 25, 0.2)

	labels := make(map[expr.GeneID]modules.Label)
	for _, g := range m.Genes() {
		labels[g] = modules.Unassigned
	}
	for _, g := range blockA {
		labels[g] = 1
	}
	ref := expr.Dataset{Role: expr.RoleReference, Label: "ref", Matrix: m}
	return ref, modules.NewAssignment(labels), blockA
}

func TestRun_IdenticalComparisonScoresStronglyPreserved(t *testing.T) {
	ref, assignment, _ := moduleDataset(51)
	comp := expr.Dataset{Role: expr.RoleComparisonGroup, Label: "same", Matrix: ref.Matrix}

	outcomes := testEngine(100).Run(context.Background(), ref, assignment, []expr.Dataset{comp})
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	out := outcomes[0]
	if out.Err != nil {
		t.Fatalf("scoring failed: %v", out.Err)
	}
	if !out.Record.Valid() {
		t.Fatal("identical comparison produced NA")
	}
	if out.Record.ZSummary < 10 {
		t.Errorf("Z-summary = %.2f for a module preserved verbatim, want >= 10", out.Record.ZSummary)
	}
	if out.Record.ModuleSize != 40 {
		t.Errorf("module size = %d, want 40", out.Record.ModuleSize)
	}
}

func TestRun_NoiseComparisonScoresUnpreserved(t *testing.T) {
	ref, assignment, _ := moduleDataset(53)
	noise := testkit.NoiseMatrix(rand.New(rand.NewSource(99)), ref.Matrix.Genes(), ref.Matrix.SampleCount())
	comp := expr.Dataset{Role: expr.RoleComparisonGroup, Label: "noise", Matrix: noise}

	outcomes := testEngine(100).Run(context.Background(), ref, assignment, []expr.Dataset{comp})
	out := outcomes[0]
	if out.Err != nil {
		t.Fatalf("scoring failed: %v", out.Err)
	}
	// The module has no structure in the comparison, so its score sits in
	// the body of the null: near zero, or NA when too few statistics held.
	if out.Record.Valid() && math.Abs(out.Record.ZSummary) >= 5 {
		t.Errorf("Z-summary = %.2f against pure noise, want near zero", out.Record.ZSummary)
	}
}

func TestRun_UndersizedModuleReportsNA(t *testing.T) {
	ref, _, blockA := moduleDataset(57)

	labels := make(map[expr.GeneID]modules.Label)
	for _, g := range ref.Matrix.Genes() {
		labels[g] = modules.Unassigned
	}
	for _, g := range blockA[:5] {
		labels[g] = 1
	}
	tiny := modules.NewAssignment(labels)
	comp := expr.Dataset{Role: expr.RoleComparisonGroup, Label: "same", Matrix: ref.Matrix}

	outcomes := testEngine(50).Run(context.Background(), ref, tiny, []expr.Dataset{comp})
	out := outcomes[0]
	if out.Err != nil {
		t.Fatalf("undersized module must not be an error, got: %v", out.Err)
	}
	if out.Record.Valid() {
		t.Errorf("Z-summary = %.2f for a 5-gene module, want NA", out.Record.ZSummary)
	}
	if out.Record.ModuleSize != 5 {
		t.Errorf("module size = %d, want 5", out.Record.ModuleSize)
	}
}

func TestRun_GeneSetMismatchFailsThatUnitOnly(t *testing.T) {
	ref, assignment, _ := moduleDataset(61)

	otherGenes := make([]expr.GeneID, ref.Matrix.GeneCount())
	for i := range otherGenes {
		otherGenes[i] = expr.GeneID("X" + string(rune('a'+i%26)) + string(rune('a'+i/26)))
	}
	mismatched := testkit.NoiseMatrix(rand.New(rand.NewSource(3)), otherGenes, ref.Matrix.SampleCount())

	comps := []expr.Dataset{
		{Role: expr.RoleComparisonGroup, Label: "bad", Matrix: mismatched},
		{Role: expr.RoleComparisonGroup, Label: "good", Matrix: ref.Matrix},
	}
	outcomes := testEngine(50).Run(context.Background(), ref, assignment, comps)
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}

	var badErr error
	var goodOK bool
	for _, out := range outcomes {
		switch out.CompGroup {
		case "bad":
			badErr = out.Err
		case "good":
			goodOK = out.Err == nil && out.Record.Valid()
		}
	}
	if !errors.HasCode(badErr, errors.CodeDimensionMismatch) {
		t.Errorf("mismatched comparison error = %v, want %s", badErr, errors.CodeDimensionMismatch)
	}
	if !goodOK {
		t.Error("healthy comparison was dragged down by its failed sibling")
	}
}

func TestRun_DeterministicAcrossInvocations(t *testing.T) {
	ref, assignment, _ := moduleDataset(67)
	comp := expr.Dataset{Role: expr.RoleComparisonGroup, Label: "same", Matrix: ref.Matrix}

	first := testEngine(60).Run(context.Background(), ref, assignment, []expr.Dataset{comp})
	second := testEngine(60).Run(context.Background(), ref, assignment, []expr.Dataset{comp})

	a, b := first[0].Record, second[0].Record
	if a.ZSummary != b.ZSummary && !(math.IsNaN(a.ZSummary) && math.IsNaN(b.ZSummary)) {
		t.Fatalf("Z-summary differs across identical runs: %v vs %v", a.ZSummary, b.ZSummary)
	}
	if len(a.Statistics) != len(b.Statistics) {
		t.Fatalf("statistic count differs: %d vs %d", len(a.Statistics), len(b.Statistics))
	}
	for i := range a.Statistics {
		sa, sb := a.Statistics[i], b.Statistics[i]
		if sa.Valid != sb.Valid {
			t.Errorf("statistic %s validity differs", sa.Name)
		}
		if sa.Valid && sa.Z != sb.Z {
			t.Errorf("statistic %s Z differs: %v vs %v", sa.Name, sa.Z, sb.Z)
		}
	}
}

func TestSubsetBattery_GeneOrderIrrelevant(t *testing.T) {
	ref, _, blockA := moduleDataset(71)
	e := testEngine(10)

	forward, err := e.subsetBattery(ref.Matrix, ref.Matrix, blockA)
	if err != nil {
		t.Fatalf("battery failed: %v", err)
	}

	reversed := make([]expr.GeneID, len(blockA))
	for i, g := range blockA {
		reversed[len(blockA)-1-i] = g
	}
	backward, err := e.subsetBattery(ref.Matrix, ref.Matrix, reversed)
	if err != nil {
		t.Fatalf("battery failed: %v", err)
	}

	fv, bv := forward.Values(), backward.Values()
	for i, name := range forward.Names() {
		if math.Abs(fv[i]-bv[i]) > 1e-9 {
			t.Errorf("%s changed under gene reordering: %v vs %v", name, fv[i], bv[i])
		}
	}
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Duplicated datasets at higher jitter should preserve the reference module
// less. The medians over replicates must fall as the noise factor rises.
func TestRun_MedianZSummaryFallsAsNoiseRises(t *testing.T) {
	ref, assignment, _ := moduleDataset(73)
	sim := simulation.NewSimulator(config.SimulationConfig{
		Replicates:        5,
		ImbalanceFraction: 0.5,
		HubQuantile:       0.75,
		UnbalancedShare:   0.5,
		Seed:              73,
	}, rng.New())

	noiseFactors := []float64{0.1, 0.6, 1.2}
	medians := make([]float64, len(noiseFactors))
	for n, noise := range noiseFactors {
		var comps []expr.Dataset
		for rep := 0; rep < 5; rep++ {
			desc := dsim.Descriptor{NoiseFactor: noise, Scenario: dsim.ScenarioControl, Replicate: rep}
			m, err := sim.Generate(context.Background(), ref.Matrix, desc)
			if err != nil {
				t.Fatalf("generate noise %.1f rep %d: %v", noise, rep, err)
			}
			comps = append(comps, expr.Dataset{
				Role:   expr.RoleSimulationReplicate,
				Label:  fmt.Sprintf("sim%.1f/%d", noise, rep),
				Matrix: m,
			})
		}

		var zs []float64
		for _, out := range testEngine(60).Run(context.Background(), ref, assignment, comps) {
			if out.Err != nil {
				t.Fatalf("noise %.1f: scoring failed: %v", noise, out.Err)
			}
			if !out.Record.Valid() {
				t.Fatalf("noise %.1f: replicate %q reported NA", noise, out.CompGroup)
			}
			zs = append(zs, out.Record.ZSummary)
		}
		medians[n] = median(zs)
	}

	for n := 1; n < len(medians); n++ {
		if medians[n] >= medians[n-1] {
			t.Errorf("median Z-summary did not fall from noise %.1f (%.2f) to %.1f (%.2f)",
				noiseFactors[n-1], medians[n-1], noiseFactors[n], medians[n])
		}
	}
}
