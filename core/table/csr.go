package table

import (
	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// CSR is a compressed sparse row matrix.
//
// Row i owns the entries Data[IndPtr[i]:IndPtr[i+1]] at columns
// Indices[IndPtr[i]:IndPtr[i+1]]. Column indices within a row are not
// required to be sorted but must be unique.
type CSR struct {
	Rows    int
	Cols    int
	Data    []float64
	Indices []int
	IndPtr  []int
}

var _ mat.Matrix = (*CSR)(nil)

// NewCSR validates the three CSR arrays and builds a CSR matrix.
func NewCSR(rows, cols int, data []float64, indices, indptr []int) (*CSR, error) {
	c := &CSR{Rows: rows, Cols: cols, Data: data, Indices: indices, IndPtr: indptr}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewCSRFromDense builds a CSR matrix holding the non-zero entries of m.
func NewCSRFromDense(m mat.Matrix) *CSR {
	r, c := m.Dims()
	out := &CSR{Rows: r, Cols: c, IndPtr: make([]int, r+1)}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); v != 0 {
				out.Data = append(out.Data, v)
				out.Indices = append(out.Indices, j)
			}
		}
		out.IndPtr[i+1] = len(out.Data)
	}
	return out
}

func (c *CSR) validate() error {
	const op = "NewCSR"
	if c.Rows < 0 || c.Cols < 0 {
		return scigoErrors.NewValueError(op, "negative dimensions")
	}
	if len(c.IndPtr) != c.Rows+1 {
		return scigoErrors.NewShapeError(op, c.Rows+1, len(c.IndPtr), 0)
	}
	if len(c.Data) != len(c.Indices) {
		return scigoErrors.NewShapeError(op, len(c.Data), len(c.Indices), 0)
	}
	if c.IndPtr[0] != 0 || c.IndPtr[c.Rows] != len(c.Data) {
		return scigoErrors.NewValueError(op, "indptr must start at 0 and end at nnz")
	}
	for i := 0; i < c.Rows; i++ {
		if c.IndPtr[i] > c.IndPtr[i+1] {
			return scigoErrors.NewValueError(op, "indptr must be non-decreasing")
		}
		seen := make(map[int]struct{}, c.IndPtr[i+1]-c.IndPtr[i])
		for k := c.IndPtr[i]; k < c.IndPtr[i+1]; k++ {
			j := c.Indices[k]
			if j < 0 || j >= c.Cols {
				return scigoErrors.NewValueError(op, "column index out of range")
			}
			if _, dup := seen[j]; dup {
				return scigoErrors.NewValueError(op, "duplicate column index in row")
			}
			seen[j] = struct{}{}
		}
	}
	return nil
}

// Dims implements mat.Matrix.
func (c *CSR) Dims() (r, cols int) {
	return c.Rows, c.Cols
}

// At implements mat.Matrix.
func (c *CSR) At(i, j int) float64 {
	if i < 0 || i >= c.Rows || j < 0 || j >= c.Cols {
		panic(mat.ErrIndexOutOfRange)
	}
	for k := c.IndPtr[i]; k < c.IndPtr[i+1]; k++ {
		if c.Indices[k] == j {
			return c.Data[k]
		}
	}
	return 0
}

// T implements mat.Matrix.
func (c *CSR) T() mat.Matrix {
	return mat.Transpose{Matrix: c}
}

// NNZ returns the number of stored entries.
func (c *CSR) NNZ() int {
	return len(c.Data)
}

// RowNonZeros returns the column indices and values stored for row i.
// The returned slices alias the matrix storage.
func (c *CSR) RowNonZeros(i int) ([]int, []float64) {
	lo, hi := c.IndPtr[i], c.IndPtr[i+1]
	return c.Indices[lo:hi], c.Data[lo:hi]
}

// SliceRows returns rows [start, end) sharing the value storage.
func (c *CSR) SliceRows(start, end int) *CSR {
	base := c.IndPtr[start]
	indptr := make([]int, end-start+1)
	for i := range indptr {
		indptr[i] = c.IndPtr[start+i] - base
	}
	return &CSR{
		Rows:    end - start,
		Cols:    c.Cols,
		Data:    c.Data[base:c.IndPtr[end]],
		Indices: c.Indices[base:c.IndPtr[end]],
		IndPtr:  indptr,
	}
}

// ToDense materializes the matrix.
func (c *CSR) ToDense() *mat.Dense {
	if c.Rows == 0 || c.Cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(c.Rows, c.Cols, nil)
	for i := 0; i < c.Rows; i++ {
		for k := c.IndPtr[i]; k < c.IndPtr[i+1]; k++ {
			d.Set(i, c.Indices[k], c.Data[k])
		}
	}
	return d
}
