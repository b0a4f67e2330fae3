package preservation

import (
	"math"
	"sort"

	"coexnet/domain/modules"
)

// NullSummary describes the permutation null distribution of one statistic.
type NullSummary struct {
	Mean         float64
	StdDev       float64
	Percentile95 float64
}

// StatisticZ is a single standardized statistic inside the battery.
// Valid is false when the statistic could not be computed for this module,
// in which case Z carries NaN and must be excluded from the composite.
type StatisticZ struct {
	Name     string
	Observed float64
	Null     NullSummary
	Z        float64
	Valid    bool
}

// Record is the preservation outcome for one module in one comparison
// dataset. ZSummary is NaN when fewer than two battery statistics were
// computable; NA always travels as data, never as an error.
type Record struct {
	Module     modules.Label
	RefGroup   string
	CompGroup  string
	ZSummary   float64
	ModuleSize int
	Statistics []StatisticZ
}

// Valid reports whether the record carries a computed score.
func (r Record) Valid() bool { return !math.IsNaN(r.ZSummary) }

// Table aggregates records across modules and comparisons. Building the
// table is a pure reduction over independently computed records.
type Table struct {
	Records []Record
}

// Add appends a record.
func (t *Table) Add(r Record) { t.Records = append(t.Records, r) }

// Sorted returns records ordered by comparison group, then module label.
func (t *Table) Sorted() []Record {
	out := append([]Record(nil), t.Records...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompGroup != out[j].CompGroup {
			return out[i].CompGroup < out[j].CompGroup
		}
		return out[i].Module < out[j].Module
	})
	return out
}

// ForComparison filters records for one comparison group label.
func (t *Table) ForComparison(comp string) []Record {
	var out []Record
	for _, r := range t.Records {
		if r.CompGroup == comp {
			out = append(out, r)
		}
	}
	return out
}
