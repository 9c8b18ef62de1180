package table

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// FromArray converts x into a Table.
//
// Supported inputs are mat.Matrix, [][]float64, [][]float32, []float64,
// []float32 (1-D inputs become n x 1), integer slices of the same shapes,
// *CSR and *Table. Integer inputs are upcast to Float64 and emit a
// DataConversionWarning. Ragged rows yield a ShapeError.
func FromArray(x any) (*Table, error) {
	const op = "FromArray"

	switch v := x.(type) {
	case nil:
		return nil, scigoErrors.NewValueError(op, "input is nil")
	case *Table:
		return v, nil
	case *CSR:
		if err := v.validate(); err != nil {
			return nil, err
		}
		return NewSparse(v, Float64), nil
	case mat.Matrix:
		return fromMatrix(v), nil
	case [][]float64:
		return from2D(op, v, Float64, func(f float64) float64 { return f })
	case [][]float32:
		return from2D(op, v, Float32, func(f float32) float64 { return float64(f) })
	case []float64:
		return from1D(v, Float64, func(f float64) float64 { return f }), nil
	case []float32:
		return from1D(v, Float32, func(f float32) float64 { return float64(f) }), nil
	case [][]int:
		warnUpcast("int")
		return from2D(op, v, Float64, func(i int) float64 { return float64(i) })
	case [][]int64:
		warnUpcast("int64")
		return from2D(op, v, Float64, func(i int64) float64 { return float64(i) })
	case [][]int32:
		warnUpcast("int32")
		return from2D(op, v, Float64, func(i int32) float64 { return float64(i) })
	case []int:
		warnUpcast("int")
		return from1D(v, Float64, func(i int) float64 { return float64(i) }), nil
	case []int64:
		warnUpcast("int64")
		return from1D(v, Float64, func(i int64) float64 { return float64(i) }), nil
	case []int32:
		warnUpcast("int32")
		return from1D(v, Float64, func(i int32) float64 { return float64(i) }), nil
	case [][][]float64, [][][]float32:
		return nil, scigoErrors.NewShapeError(op, 2, 3, -1)
	default:
		return nil, scigoErrors.NewDtypeMismatchError(op, "", fmt.Sprintf("%T", x))
	}
}

// FromArrayWithWeights converts x and an optional 1-D sample weight vector.
// The weights are cast to the dtype of x and must have one entry per row.
// A nil w yields nil weights.
func FromArrayWithWeights(x, w any) (*Table, *Table, error) {
	const op = "FromArrayWithWeights"

	tx, err := FromArray(x)
	if err != nil {
		return nil, nil, err
	}
	if w == nil {
		return tx, nil, nil
	}
	tw, err := FromArray(w)
	if err != nil {
		return nil, nil, err
	}
	if tw.cols != 1 {
		return nil, nil, scigoErrors.NewShapeError(op, 1, tw.cols, 1)
	}
	if tw.rows != tx.rows {
		return nil, nil, scigoErrors.NewShapeError(op, tx.rows, tw.rows, 0)
	}
	if tw.dtype != tx.dtype {
		tw = tw.AsType(tx.dtype)
	}
	return tx, tw, nil
}

// FromXY converts a feature matrix and its targets. A 1-D y becomes n x 1;
// y is cast to the dtype of X and must have the same number of rows.
func FromXY(x, y any) (*Table, *Table, error) {
	const op = "FromXY"

	tx, err := FromArray(x)
	if err != nil {
		return nil, nil, err
	}
	ty, err := FromArray(y)
	if err != nil {
		return nil, nil, err
	}
	if ty.sparse != nil {
		ty = ty.densify()
	}
	if tx.rows != ty.rows {
		return nil, nil, scigoErrors.NewShapeError(op, tx.rows, ty.rows, 0)
	}
	if ty.dtype != tx.dtype {
		ty = ty.AsType(tx.dtype)
	}
	return tx, ty, nil
}

func fromMatrix(m mat.Matrix) *Table {
	r, c := m.Dims()
	data := make([]float64, r*c)
	if d, ok := m.(mat.RawMatrixer); ok {
		raw := d.RawMatrix()
		for i := 0; i < r; i++ {
			copy(data[i*c:(i+1)*c], raw.Data[i*raw.Stride:i*raw.Stride+c])
		}
	} else {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				data[i*c+j] = m.At(i, j)
			}
		}
	}
	t := &Table{rows: r, cols: c, dtype: Float64, data: data}
	if _, ok := m.(mat.Vector); ok {
		t.oneDim = true
	}
	return t
}

func from2D[T any](op string, rows [][]T, dtype DType, conv func(T) float64) (*Table, error) {
	if len(rows) == 0 {
		return &Table{dtype: dtype}, nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		if len(row) != cols {
			return nil, scigoErrors.NewShapeError(op, cols, len(row), 1)
		}
		for _, v := range row {
			data = append(data, conv(v))
		}
	}
	return &Table{rows: len(rows), cols: cols, dtype: dtype, data: data}, nil
}

func from1D[T any](v []T, dtype DType, conv func(T) float64) *Table {
	data := make([]float64, len(v))
	for i, e := range v {
		data[i] = conv(e)
	}
	return &Table{rows: len(v), cols: 1, dtype: dtype, data: data, oneDim: true}
}

func warnUpcast(from string) {
	scigoErrors.Warn(scigoErrors.NewDataConversionWarning(from, "float64", "integer input is upcast to floating point"))
}
