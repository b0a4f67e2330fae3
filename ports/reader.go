package ports

import (
	"coexnet/domain/expr"
)

// DatasetReader loads one expression matrix from an external source.
// Gene rows, sample columns; integrity failures surface as INPUT_INTEGRITY
// errors before any network construction happens.
type DatasetReader interface {
	ReadMatrix() (*expr.Matrix, error)
}
