package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"coexnet/domain/expr"
	"coexnet/domain/modules"
	"coexnet/domain/preservation"
	"coexnet/internal/errors"
	"coexnet/ports"
)

// ResultRepositoryImpl implements ports.ResultRepository for PostgreSQL.
// Per-record saves double as checkpoints: a failed run resumes with its
// completed modules already on disk.
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository.
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

// Open connects to PostgreSQL and ensures the schema exists.
func Open(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "failed to ensure schema")
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS module_assignments (
	run_id UUID NOT NULL,
	gene TEXT NOT NULL,
	module INT NOT NULL,
	PRIMARY KEY (run_id, gene)
);

CREATE TABLE IF NOT EXISTS preservation_records (
	run_id UUID NOT NULL,
	module INT NOT NULL,
	ref_group TEXT NOT NULL,
	comp_group TEXT NOT NULL,
	z_summary DOUBLE PRECISION, -- NULL encodes NA
	module_size INT NOT NULL,
	statistics JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (run_id, module, comp_group)
);
`

// SaveAssignment stores the reference module assignment for a run.
func (r *ResultRepositoryImpl) SaveAssignment(ctx context.Context, runID uuid.UUID, a *modules.Assignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin assignment transaction")
	}
	defer tx.Rollback()

	labels := append([]modules.Label{modules.Unassigned}, a.Modules()...)
	for _, l := range labels {
		for _, g := range a.Genes(l) {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO module_assignments (run_id, gene, module)
				VALUES ($1, $2, $3)
				ON CONFLICT (run_id, gene) DO UPDATE SET module = EXCLUDED.module`,
				runID, string(g), int(l)); err != nil {
				return errors.Wrap(err, "failed to save module assignment")
			}
		}
	}
	return tx.Commit()
}

// statRow mirrors preservation.StatisticZ with nullable floats so NaN
// round-trips as JSON null.
type statRow struct {
	Name     string   `json:"name"`
	Observed *float64 `json:"observed"`
	Z        *float64 `json:"z"`
	NullMean float64  `json:"null_mean"`
	NullSD   float64  `json:"null_sd"`
	NullP95  float64  `json:"null_p95"`
	Valid    bool     `json:"valid"`
}

func toStatRows(stats []preservation.StatisticZ) []statRow {
	nullable := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	out := make([]statRow, len(stats))
	for i, s := range stats {
		out[i] = statRow{
			Name:     s.Name,
			Observed: nullable(s.Observed),
			Z:        nullable(s.Z),
			NullMean: s.Null.Mean,
			NullSD:   s.Null.StdDev,
			NullP95:  s.Null.Percentile95,
			Valid:    s.Valid,
		}
	}
	return out
}

func fromStatRows(rows []statRow) []preservation.StatisticZ {
	value := func(v *float64) float64 {
		if v == nil {
			return math.NaN()
		}
		return *v
	}
	out := make([]preservation.StatisticZ, len(rows))
	for i, s := range rows {
		out[i] = preservation.StatisticZ{
			Name:     s.Name,
			Observed: value(s.Observed),
			Z:        value(s.Z),
			Null: preservation.NullSummary{
				Mean:         s.NullMean,
				StdDev:       s.NullSD,
				Percentile95: s.NullP95,
			},
			Valid: s.Valid,
		}
	}
	return out
}

// SaveRecord checkpoints one per-module-per-comparison record.
func (r *ResultRepositoryImpl) SaveRecord(ctx context.Context, runID uuid.UUID, rec preservation.Record) error {
	statsJSON, _ := json.Marshal(toStatRows(rec.Statistics))

	var z sql.NullFloat64
	if !math.IsNaN(rec.ZSummary) {
		z = sql.NullFloat64{Float64: rec.ZSummary, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preservation_records (
			run_id, module, ref_group, comp_group, z_summary, module_size, statistics
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id, module, comp_group) DO UPDATE SET
			z_summary = EXCLUDED.z_summary,
			module_size = EXCLUDED.module_size,
			statistics = EXCLUDED.statistics`,
		runID, int(rec.Module), rec.RefGroup, rec.CompGroup, z, rec.ModuleSize, statsJSON)
	if err != nil {
		return errors.Wrap(err, "failed to save preservation record")
	}
	return nil
}

// LoadTable returns all records for a run.
func (r *ResultRepositoryImpl) LoadTable(ctx context.Context, runID uuid.UUID) (*preservation.Table, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT module, ref_group, comp_group, z_summary, module_size, statistics
		FROM preservation_records
		WHERE run_id = $1
		ORDER BY comp_group, module`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load preservation records")
	}
	defer rows.Close()

	table := &preservation.Table{}
	for rows.Next() {
		var (
			module     int
			refGroup   string
			compGroup  string
			z          sql.NullFloat64
			moduleSize int
			statsJSON  []byte
		)
		if err := rows.Scan(&module, &refGroup, &compGroup, &z, &moduleSize, &statsJSON); err != nil {
			return nil, errors.Wrap(err, "failed to scan preservation record")
		}

		rec := preservation.Record{
			Module:     modules.Label(module),
			RefGroup:   refGroup,
			CompGroup:  compGroup,
			ZSummary:   math.NaN(),
			ModuleSize: moduleSize,
		}
		if z.Valid {
			rec.ZSummary = z.Float64
		}
		if len(statsJSON) > 0 {
			var stats []statRow
			if err := json.Unmarshal(statsJSON, &stats); err == nil {
				rec.Statistics = fromStatRows(stats)
			}
		}
		table.Add(rec)
	}
	return table, rows.Err()
}

// ListRuns returns known run IDs, newest first.
func (r *ResultRepositoryImpl) ListRuns(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.SelectContext(ctx, &ids, `
		SELECT run_id FROM preservation_records
		GROUP BY run_id
		ORDER BY MAX(created_at) DESC`); err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	return ids, nil
}

// LoadAssignment rebuilds a stored module assignment.
func (r *ResultRepositoryImpl) LoadAssignment(ctx context.Context, runID uuid.UUID) (*modules.Assignment, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT gene, module FROM module_assignments WHERE run_id = $1`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load module assignment")
	}
	defer rows.Close()

	labels := make(map[expr.GeneID]modules.Label)
	for rows.Next() {
		var gene string
		var module int
		if err := rows.Scan(&gene, &module); err != nil {
			return nil, errors.Wrap(err, "failed to scan module assignment")
		}
		labels[expr.GeneID(gene)] = modules.Label(module)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return modules.NewAssignment(labels), nil
}
