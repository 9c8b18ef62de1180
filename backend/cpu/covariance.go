package cpu

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

type covariance struct{}

func (covariance) PartialCompute(params backend.Params, prior *backend.CovariancePartial, x *table.Table) (_ *backend.CovariancePartial, err error) {
	const op = "cpu.Covariance.PartialCompute"
	defer scigoErrors.Recover(&err, op)

	p := x.Cols()
	if prior != nil && prior.NRows > 0 && prior.NFeatures != p {
		return nil, scigoErrors.NewShapeError(op, prior.NFeatures, p, 1)
	}
	if x.Rows() == 0 {
		if prior == nil {
			return backend.NewCovariancePartial(p), nil
		}
		return prior.Clone(), nil
	}

	hp := backend.GetHyperparameters("covariance", "compute")
	batch, err := reduceBlocks(x, blockSize(hp), covarianceBlock, (*backend.CovariancePartial).Merge)
	if err != nil {
		return nil, err
	}
	return prior.Merge(batch)
}

func (c covariance) FinalizeCompute(params backend.Params, partial *backend.CovariancePartial) (_ *backend.CovarianceResult, err error) {
	const op = "cpu.Covariance.FinalizeCompute"
	defer scigoErrors.Recover(&err, op)

	if partial == nil || partial.NRows == 0 {
		return nil, scigoErrors.NewInsufficientDataError(op, 1, 0)
	}
	n := partial.NRows
	divisor := n - 1
	if params.Bias {
		divisor = n
	}
	if divisor == 0 {
		return nil, scigoErrors.NewInsufficientDataError(op, 2, n)
	}

	p := partial.NFeatures
	cov := append([]float64(nil), partial.CrossProduct...)
	means := make([]float64, p)
	floats.ScaleTo(means, 1/float64(n), partial.Sums)

	if params.AssumeCentered {
		// Raw second moment: C + n*m*mᵀ, reported about the origin.
		for i := 0; i < p; i++ {
			for j := 0; j < p; j++ {
				cov[i*p+j] += float64(n) * means[i] * means[j]
			}
		}
		means = make([]float64, p)
	}
	floats.Scale(1/float64(divisor), cov)

	if err := scigoErrors.CheckNumericalStability(op, cov, 0); err != nil {
		return nil, err
	}

	return &backend.CovarianceResult{
		NFeatures:  p,
		Covariance: params.FPType.RoundSlice(cov),
		Means:      params.FPType.RoundSlice(means),
	}, nil
}

func (c covariance) Compute(params backend.Params, x *table.Table) (*backend.CovarianceResult, error) {
	partial, err := c.PartialCompute(params, nil, x)
	if err != nil {
		return nil, err
	}
	return c.FinalizeCompute(params, partial)
}

// covarianceBlock computes the partial of a single block with a two-pass
// centered cross product.
func covarianceBlock(x *table.Table) *backend.CovariancePartial {
	n, p := x.Dims()
	out := backend.NewCovariancePartial(p)
	out.NRows = n

	for i := 0; i < n; i++ {
		floats.Add(out.Sums, x.RawRow(i))
	}
	mean := make([]float64, p)
	floats.ScaleTo(mean, 1/float64(n), out.Sums)

	xc := table.ToDense(x)
	for i := 0; i < n; i++ {
		floats.Sub(xc.RawRowView(i), mean)
	}
	cp := mat.NewDense(p, p, out.CrossProduct)
	cp.Mul(xc.T(), xc)
	return out
}
