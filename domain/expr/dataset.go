package expr

import "fmt"

// DatasetRole classifies how a dataset participates in a preservation run.
type DatasetRole int

const (
	RoleReference DatasetRole = iota
	RoleComparisonGroup
	RoleSimulationReplicate
)

// String returns the canonical role name.
func (r DatasetRole) String() string {
	switch r {
	case RoleReference:
		return "reference"
	case RoleComparisonGroup:
		return "comparison"
	case RoleSimulationReplicate:
		return "simulation"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Dataset tags an expression matrix with its role and a human label.
// This replaces positional "slot N means group X" indexing.
type Dataset struct {
	Role   DatasetRole
	Label  string
	Matrix *Matrix
}

// DatasetSet is an ordered collection of tagged datasets with exactly one
// reference.
type DatasetSet struct {
	datasets []Dataset
}

// NewDatasetSet builds a collection around one reference matrix.
func NewDatasetSet(referenceLabel string, reference *Matrix) *DatasetSet {
	return &DatasetSet{datasets: []Dataset{{
		Role:   RoleReference,
		Label:  referenceLabel,
		Matrix: reference,
	}}}
}

// Add appends a comparison or simulation dataset. Adding a second reference
// is an error.
func (s *DatasetSet) Add(d Dataset) error {
	if d.Role == RoleReference {
		return fmt.Errorf("dataset set already has a reference; cannot add %q as reference", d.Label)
	}
	if d.Matrix == nil {
		return fmt.Errorf("dataset %q has no matrix", d.Label)
	}
	s.datasets = append(s.datasets, d)
	return nil
}

// Reference returns the reference dataset.
func (s *DatasetSet) Reference() Dataset { return s.datasets[0] }

// Comparisons returns all non-reference datasets in insertion order.
func (s *DatasetSet) Comparisons() []Dataset {
	return s.datasets[1:]
}

// Len returns the total number of datasets including the reference.
func (s *DatasetSet) Len() int { return len(s.datasets) }
