package cpu

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// rankTolerance is the relative singular value cutoff of the SVD fallback.
const rankTolerance = 1e-12

type linearModel struct{}

func (linearModel) PartialTrain(params backend.Params, hp backend.Hyperparameters, prior *backend.RegressionPartial, x, y *table.Table) (_ *backend.RegressionPartial, err error) {
	const op = "cpu.LinearModel.PartialTrain"
	defer scigoErrors.Recover(&err, op)

	n, p := x.Dims()
	ny, t := y.Dims()
	if ny != n {
		return nil, scigoErrors.NewShapeError(op, n, ny, 0)
	}
	if prior != nil && prior.NRows > 0 {
		if prior.NFeatures != p {
			return nil, scigoErrors.NewShapeError(op, prior.NFeatures, p, 1)
		}
		if prior.NTargets != t {
			return nil, scigoErrors.NewShapeError(op, prior.NTargets, t, 1)
		}
	}
	if n == 0 {
		if prior == nil {
			return backend.NewRegressionPartial(p, t, params.FitIntercept), nil
		}
		return prior.Clone(), nil
	}

	// x and y are sliced together, so accumulate over a joined table.
	xy := joinColumns(x, y)
	batch, err := reduceBlocks(xy, blockSize(hp), func(b *table.Table) *backend.RegressionPartial {
		return normalEquationsBlock(b, p, t, params.FitIntercept)
	}, (*backend.RegressionPartial).Merge)
	if err != nil {
		return nil, err
	}
	return prior.Merge(batch)
}

func (linearModel) FinalizeTrain(params backend.Params, hp backend.Hyperparameters, partial *backend.RegressionPartial) (_ *backend.RegressionResult, err error) {
	const op = "cpu.LinearModel.FinalizeTrain"
	defer scigoErrors.Recover(&err, op)

	if partial == nil || partial.NRows == 0 {
		return nil, scigoErrors.NewInsufficientDataError(op, 1, 0)
	}
	k := partial.Dim()
	if params.Alpha == 0 && partial.NRows < k {
		return nil, scigoErrors.NewInsufficientDataError(op, k, partial.NRows)
	}

	a := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			a.SetSym(i, j, partial.XtX[i*k+j])
		}
	}
	if params.Alpha > 0 {
		first := 0
		if partial.FitIntercept {
			first = 1
		}
		for i := first; i < k; i++ {
			a.SetSym(i, i, a.At(i, i)+params.Alpha)
		}
	}
	b := mat.NewDense(k, partial.NTargets, append([]float64(nil), partial.XtY...))

	beta, err := solveNormalEquations(a, b)
	if err != nil {
		return nil, err
	}

	p, t := partial.NFeatures, partial.NTargets
	packed := make([]float64, t*(p+1))
	offset := 1
	if partial.FitIntercept {
		offset = 0
	}
	for target := 0; target < t; target++ {
		for row := 0; row < k; row++ {
			packed[target*(p+1)+row+offset] = beta.At(row, target)
		}
	}
	if err := scigoErrors.CheckMatrix(op, mat.NewDense(t, p+1, packed), 0); err != nil {
		return nil, err
	}

	return &backend.RegressionResult{
		NFeatures:          p,
		NTargets:           t,
		PackedCoefficients: params.FPType.RoundSlice(packed),
	}, nil
}

func (m linearModel) Train(params backend.Params, hp backend.Hyperparameters, x, y *table.Table) (*backend.RegressionResult, error) {
	partial, err := m.PartialTrain(params, hp, nil, x, y)
	if err != nil {
		return nil, err
	}
	return m.FinalizeTrain(params, hp, partial)
}

// solveNormalEquations solves A·B = rhs with a Cholesky factorization and
// falls back to the minimum-norm SVD solution when A is not positive
// definite.
func solveNormalEquations(a *mat.SymDense, rhs *mat.Dense) (*mat.Dense, error) {
	var beta mat.Dense

	var chol mat.Cholesky
	if chol.Factorize(a) {
		if err := chol.SolveTo(&beta, rhs); err == nil {
			return &beta, nil
		}
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, scigoErrors.ErrSingularMatrix
	}
	rank := svd.Rank(rankTolerance)
	if rank == 0 {
		return nil, scigoErrors.ErrSingularMatrix
	}
	svd.SolveTo(&beta, rhs, rank)
	return &beta, nil
}

// normalEquationsBlock accumulates XᵀX and XᵀY for one block of the joined
// [X | Y] table.
func normalEquationsBlock(xy *table.Table, p, t int, fitIntercept bool) *backend.RegressionPartial {
	n := xy.Rows()
	out := backend.NewRegressionPartial(p, t, fitIntercept)
	out.NRows = n
	k := out.Dim()

	design := mat.NewDense(n, k, nil)
	targets := mat.NewDense(n, t, nil)
	for i := 0; i < n; i++ {
		row := xy.RawRow(i)
		dst := design.RawRowView(i)
		if fitIntercept {
			dst[0] = 1
			copy(dst[1:], row[:p])
		} else {
			copy(dst, row[:p])
		}
		copy(targets.RawRowView(i), row[p:])
	}

	mat.NewDense(k, k, out.XtX).Mul(design.T(), design)
	mat.NewDense(k, t, out.XtY).Mul(design.T(), targets)
	return out
}

// joinColumns returns the dense table [x | y].
func joinColumns(x, y *table.Table) *table.Table {
	n, p := x.Dims()
	_, t := y.Dims()
	data := make([]float64, n*(p+t))
	for i := 0; i < n; i++ {
		copy(data[i*(p+t):], x.RawRow(i))
		copy(data[i*(p+t)+p:], y.RawRow(i))
	}
	joined, _ := table.NewDense(n, p+t, data, table.Float64)
	return joined
}
