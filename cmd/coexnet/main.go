package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/joho/godotenv"

	"coexnet/adapters/excel"
	"coexnet/adapters/memory"
	"coexnet/adapters/postgres"
	"coexnet/adapters/rng"
	"coexnet/app"
	"coexnet/domain/expr"
	"coexnet/internal/config"
	"coexnet/ports"
)

func main() {
	referencePath := flag.String("reference", "", "path to the reference expression matrix (xlsx or csv)")
	referenceLabel := flag.String("reference-label", "reference", "label for the reference group")
	var comparisons multiFlag
	flag.Var(&comparisons, "comparison", "label=path of a comparison expression matrix (repeatable)")
	flag.Parse()

	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	if *referencePath == "" {
		fmt.Fprintln(os.Stderr, "usage: coexnet --reference matrix.xlsx [--comparison label=path ...]")
		os.Exit(2)
	}

	refMatrix, err := excel.NewMatrixReader(*referencePath).ReadMatrix()
	if err != nil {
		log.Fatalf("failed to read reference matrix: %v", err)
	}
	datasets := expr.NewDatasetSet(*referenceLabel, refMatrix)

	for _, c := range comparisons {
		label, path, err := c.split()
		if err != nil {
			log.Fatalf("invalid --comparison value: %v", err)
		}
		m, err := excel.NewMatrixReader(path).ReadMatrix()
		if err != nil {
			log.Fatalf("failed to read comparison %q: %v", label, err)
		}
		if err := datasets.Add(expr.Dataset{Role: expr.RoleComparisonGroup, Label: label, Matrix: m}); err != nil {
			log.Fatalf("failed to add comparison %q: %v", label, err)
		}
	}

	var repo ports.ResultRepository
	if cfg.Database.Enabled {
		db, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			log.Fatalf("database error: %v", err)
		}
		defer db.Close()
		repo = postgres.NewResultRepository(db)
	} else {
		repo = memory.NewResultRepository()
	}

	pipeline := app.NewPipeline(cfg, rng.New(), repo)
	report, err := pipeline.Run(context.Background(), datasets)
	if err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}

	fmt.Printf("run %s: power=%.0f modules=%d\n", report.RunID, report.Power, len(report.Assignment.Modules()))
	fmt.Println("module\tcomparison\tsize\tZsummary")
	for _, rec := range report.Table.Sorted() {
		z := "NA"
		if !math.IsNaN(rec.ZSummary) {
			z = fmt.Sprintf("%.2f", rec.ZSummary)
		}
		fmt.Printf("%d\t%s\t%d\t%s\n", rec.Module, rec.CompGroup, rec.ModuleSize, z)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(os.Stderr, "module %d vs %s failed: %v\n", f.Module, f.CompGroup, f.Err)
	}
}

// multiFlag collects repeated label=path flag values.
type multiFlag []comparisonArg

type comparisonArg string

func (m *multiFlag) String() string { return fmt.Sprintf("%v", []comparisonArg(*m)) }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, comparisonArg(v))
	return nil
}

func (c comparisonArg) split() (label, path string, err error) {
	for i, ch := range c {
		if ch == '=' {
			return string(c[:i]), string(c[i+1:]), nil
		}
	}
	return "", "", fmt.Errorf("expected label=path, got %q", string(c))
}
