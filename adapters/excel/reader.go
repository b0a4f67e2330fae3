package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"coexnet/domain/expr"
	"coexnet/internal/errors"
	"coexnet/ports"
)

// MatrixReader loads a gene x sample expression matrix from an Excel or CSV
// file. The first row holds sample identifiers (first cell is the gene
// column header); each following row is one gene and its values.
type MatrixReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewMatrixReader creates a reader that handles both Excel and CSV files.
func NewMatrixReader(filePath string) *MatrixReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &MatrixReader{filePath: filePath, fileType: fileType}
}

// ReadMatrix reads the expression matrix. Malformed or missing values fail
// with an INPUT_INTEGRITY error before any network construction can run.
func (r *MatrixReader) ReadMatrix() (*expr.Matrix, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("expression file %s", r.filePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	return parseMatrix(rows)
}

func (r *MatrixReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read Excel rows")
	}
	return rows, nil
}

func (r *MatrixReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV rows")
	}
	return rows, nil
}

func parseMatrix(rows [][]string) (*expr.Matrix, error) {
	if len(rows) < 2 || len(rows[0]) < 2 {
		return nil, errors.InputIntegrity("expression file needs a header row and at least one gene row")
	}

	header := rows[0]
	samples := make([]expr.SampleID, 0, len(header)-1)
	for _, h := range header[1:] {
		samples = append(samples, expr.SampleID(strings.TrimSpace(h)))
	}

	genes := make([]expr.GeneID, 0, len(rows)-1)
	values := make([][]float64, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if len(row) != len(samples)+1 {
			return nil, errors.InputIntegrityf(
				"row %d has %d cells, expected %d", i+2, len(row), len(samples)+1)
		}
		gene := expr.GeneID(strings.TrimSpace(row[0]))
		vals := make([]float64, len(samples))
		for j, cell := range row[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, errors.InputIntegrityf(
					"gene %q sample %q: cannot parse %q as a number", gene, samples[j], cell)
			}
			vals[j] = v
		}
		genes = append(genes, gene)
		values = append(values, vals)
	}

	m, err := expr.NewMatrix(genes, samples, values)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInputIntegrity, err)
	}
	return m, nil
}

var _ ports.DatasetReader = (*MatrixReader)(nil)
