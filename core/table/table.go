// Package table converts caller-supplied arrays into the row-major buffers
// consumed by compute backends.
//
// A Table is either dense (row-major []float64) or sparse (CSR). Float32
// tables keep float64 storage whose values are rounded to single precision.
package table

import (
	"math"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// Table is a 2-D numeric buffer.
type Table struct {
	rows, cols int
	dtype      DType
	data       []float64
	sparse     *CSR
	oneDim     bool
}

var _ mat.Matrix = (*Table)(nil)

// NewDense builds a dense table over data, which must hold rows*cols values
// in row-major order. data is rounded in place for Float32.
func NewDense(rows, cols int, data []float64, dtype DType) (*Table, error) {
	if rows < 0 || cols < 0 {
		return nil, scigoErrors.NewValueError("table.NewDense", "negative dimensions")
	}
	if len(data) != rows*cols {
		return nil, scigoErrors.NewShapeError("table.NewDense", rows*cols, len(data), -1)
	}
	return &Table{rows: rows, cols: cols, dtype: dtype, data: dtype.RoundSlice(data)}, nil
}

// NewSparse builds a sparse table. The CSR values are rounded in place for
// Float32.
func NewSparse(c *CSR, dtype DType) *Table {
	dtype.RoundSlice(c.Data)
	return &Table{rows: c.Rows, cols: c.Cols, dtype: dtype, sparse: c}
}

// Dims implements mat.Matrix.
func (t *Table) Dims() (r, c int) {
	return t.rows, t.cols
}

// At implements mat.Matrix.
func (t *Table) At(i, j int) float64 {
	if t.sparse != nil {
		return t.sparse.At(i, j)
	}
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	return t.data[i*t.cols+j]
}

// T implements mat.Matrix.
func (t *Table) T() mat.Matrix {
	return mat.Transpose{Matrix: t}
}

// Rows returns the number of rows.
func (t *Table) Rows() int { return t.rows }

// Cols returns the number of columns.
func (t *Table) Cols() int { return t.cols }

// DType returns the precision of the table.
func (t *Table) DType() DType { return t.dtype }

// IsSparse reports whether the table is stored as CSR.
func (t *Table) IsSparse() bool { return t.sparse != nil }

// CSR returns the sparse storage, or nil for dense tables.
func (t *Table) CSR() *CSR { return t.sparse }

// OneDim reports whether the table was built from a 1-D input.
func (t *Table) OneDim() bool { return t.oneDim }

// RawRow returns row i of a dense table without copying. For sparse tables
// the row is materialized into a new slice.
func (t *Table) RawRow(i int) []float64 {
	if t.sparse != nil {
		row := make([]float64, t.cols)
		idx, vals := t.sparse.RowNonZeros(i)
		for k, j := range idx {
			row[j] = vals[k]
		}
		return row
	}
	return t.data[i*t.cols : (i+1)*t.cols]
}

// RawData returns the dense row-major storage. Sparse tables are
// materialized.
func (t *Table) RawData() []float64 {
	if t.sparse != nil {
		return t.sparse.ToDense().RawMatrix().Data
	}
	return t.data
}

// Slice returns rows [start, end) sharing storage with t.
func (t *Table) Slice(start, end int) *Table {
	if start < 0 || end > t.rows || start > end {
		panic(mat.ErrIndexOutOfRange)
	}
	out := &Table{rows: end - start, cols: t.cols, dtype: t.dtype, oneDim: t.oneDim}
	if t.sparse != nil {
		out.sparse = t.sparse.SliceRows(start, end)
		return out
	}
	out.data = t.data[start*t.cols : end*t.cols]
	return out
}

// AsType returns a copy of t converted to dtype. Converting to Float32
// rounds every value; converting to Float64 is exact.
func (t *Table) AsType(dtype DType) *Table {
	out := &Table{rows: t.rows, cols: t.cols, dtype: dtype, oneDim: t.oneDim}
	if t.sparse != nil {
		c := *t.sparse
		c.Data = dtype.RoundSlice(append([]float64(nil), t.sparse.Data...))
		out.sparse = &c
		return out
	}
	out.data = dtype.RoundSlice(append([]float64(nil), t.data...))
	return out
}

// densify returns a dense copy of a sparse table.
func (t *Table) densify() *Table {
	return &Table{rows: t.rows, cols: t.cols, dtype: t.dtype, oneDim: t.oneDim, data: t.RawData()}
}

// Column returns a copy of column j.
func (t *Table) Column(j int) []float64 {
	col := make([]float64, t.rows)
	for i := 0; i < t.rows; i++ {
		col[i] = t.At(i, j)
	}
	return col
}

// ToDense converts t into a freshly allocated gonum matrix.
func ToDense(t *Table) *mat.Dense {
	if t.rows == 0 || t.cols == 0 {
		return &mat.Dense{}
	}
	if t.sparse != nil {
		return t.sparse.ToDense()
	}
	return mat.NewDense(t.rows, t.cols, append([]float64(nil), t.data...))
}

// ToSlice converts t into a [][]float64.
func ToSlice(t *Table) [][]float64 {
	out := make([][]float64, t.rows)
	for i := range out {
		out[i] = append([]float64(nil), t.RawRow(i)...)
	}
	return out
}

// CheckFinite returns a ValueError when t contains NaN or ±Inf.
func CheckFinite(op string, t *Table) error {
	var values []float64
	if t.sparse != nil {
		values = t.sparse.Data
	} else {
		values = t.data
	}
	for _, v := range values {
		if math.IsNaN(v) {
			return scigoErrors.NewValueError(op, "input contains NaN")
		}
		if math.IsInf(v, 0) {
			return scigoErrors.NewValueError(op, "input contains infinity")
		}
	}
	return nil
}
