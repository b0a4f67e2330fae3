package modules

import (
	"sort"

	"coexnet/domain/expr"
)

// Label is a nominal module label. Zero is reserved for unassigned genes.
type Label int

// Unassigned is the reserved label for genes that fall outside every module.
const Unassigned Label = 0

// Assignment maps every gene of the reference dataset to exactly one label.
type Assignment struct {
	labels map[expr.GeneID]Label
}

// NewAssignment builds an assignment from a gene -> label map. The map is
// copied.
func NewAssignment(labels map[expr.GeneID]Label) *Assignment {
	cp := make(map[expr.GeneID]Label, len(labels))
	for g, l := range labels {
		cp[g] = l
	}
	return &Assignment{labels: cp}
}

// Label returns the module label of a gene; genes outside the assignment
// report Unassigned.
func (a *Assignment) Label(g expr.GeneID) Label {
	return a.labels[g]
}

// GeneCount returns the number of genes covered by the assignment.
func (a *Assignment) GeneCount() int { return len(a.labels) }

// Modules returns the non-unassigned labels sorted ascending.
func (a *Assignment) Modules() []Label {
	seen := map[Label]bool{}
	for _, l := range a.labels {
		if l != Unassigned {
			seen[l] = true
		}
	}
	out := make([]Label, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Genes returns the genes carrying label l, sorted by identifier for
// reproducible downstream iteration.
func (a *Assignment) Genes(l Label) []expr.GeneID {
	var out []expr.GeneID
	for g, gl := range a.labels {
		if gl == l {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Size returns the number of genes in module l.
func (a *Assignment) Size(l Label) int {
	n := 0
	for _, gl := range a.labels {
		if gl == l {
			n++
		}
	}
	return n
}

// RelabelBySize renames module labels so that label 1 is the largest module,
// label 2 the second largest, and so on. Unassigned stays 0. Ties break by
// old label for determinism.
func (a *Assignment) RelabelBySize() *Assignment {
	type modSize struct {
		label Label
		size  int
	}
	var ms []modSize
	for _, l := range a.Modules() {
		ms = append(ms, modSize{l, a.Size(l)})
	}
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].size != ms[j].size {
			return ms[i].size > ms[j].size
		}
		return ms[i].label < ms[j].label
	})

	rename := map[Label]Label{Unassigned: Unassigned}
	for i, m := range ms {
		rename[m.label] = Label(i + 1)
	}

	out := make(map[expr.GeneID]Label, len(a.labels))
	for g, l := range a.labels {
		out[g] = rename[l]
	}
	return &Assignment{labels: out}
}

// WithLabel returns a copy of the assignment with gene g moved to label l.
func (a *Assignment) WithLabel(g expr.GeneID, l Label) *Assignment {
	cp := NewAssignment(a.labels)
	cp.labels[g] = l
	return cp
}
