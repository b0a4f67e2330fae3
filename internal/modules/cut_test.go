package modules

import (
	"math"
	"testing"

	"coexnet/domain/modules"
)

func TestCutBranches_TwoPairsBecomeTwoModules(t *testing.T) {
	d := distMatrix([][]float64{
		{0.1, 0.9, 0.9},
		{0.9, 0.9},
		{0.2},
	})
	dend := AverageLinkage(d)

	labels := CutBranches(dend, 0.5, 2)
	if len(labels) != 4 {
		t.Fatalf("labeled %d genes, want 4", len(labels))
	}
	if labels[0] != labels[1] || labels[2] != labels[3] {
		t.Errorf("pairs split across modules: %v", labels)
	}
	if labels[0] == labels[2] {
		t.Errorf("distinct branches share a label: %v", labels)
	}
	for g, l := range labels {
		if l == modules.Unassigned {
			t.Errorf("gene %d unassigned despite sufficient branch size", g)
		}
	}
}

func TestCutBranches_UndersizedBranchesStayUnassigned(t *testing.T) {
	d := distMatrix([][]float64{
		{0.1, 0.9, 0.9},
		{0.9, 0.9},
		{0.2},
	})
	dend := AverageLinkage(d)

	labels := CutBranches(dend, 0.5, 3)
	for g, l := range labels {
		if l != modules.Unassigned {
			t.Errorf("gene %d got label %d, want unassigned", g, l)
		}
	}
	if len(labels) != 4 {
		t.Fatalf("labeled %d genes, want 4 (unassigned still counts)", len(labels))
	}
}

func TestCutBranches_CutAboveRootYieldsOneModule(t *testing.T) {
	d := distMatrix([][]float64{
		{0.1, 0.9, 0.9},
		{0.9, 0.9},
		{0.2},
	})
	dend := AverageLinkage(d)

	labels := CutBranches(dend, 1.0, 2)
	first := labels[0]
	for g, l := range labels {
		if l != first {
			t.Errorf("gene %d got label %d, want single module %d", g, l, first)
		}
	}
}

func TestCutHeightFromQuantile(t *testing.T) {
	d := distMatrix([][]float64{
		{0.1, 0.9, 0.9},
		{0.9, 0.9},
		{0.2},
	})
	dend := AverageLinkage(d)

	if got := CutHeightFromQuantile(dend, 0.5); math.Abs(got-0.45) > 1e-12 {
		t.Errorf("cut height = %g, want 0.45 (half of max merge 0.9)", got)
	}
	if got := CutHeightFromQuantile(dend, 1); math.Abs(got-0.9) > 1e-12 {
		t.Errorf("cut height at quantile 1 = %g, want max height 0.9", got)
	}
}
