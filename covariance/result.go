package covariance

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// pinvTolerance is the relative cutoff below which singular values are
// treated as zero when inverting the covariance.
const pinvTolerance = 1e-12

// estimate is a finalized covariance estimate.
type estimate struct {
	covariance *mat.Dense
	location   []float64
}

// finalizePartial turns an accumulated partial into an estimate, applying
// the n/(n-1) correction itself when the backend cannot honour bias.
func (c *config) finalizePartial(op string, dtype table.DType, partial *backend.CovariancePartial) (*estimate, error) {
	if partial == nil || partial.NRows == 0 {
		return nil, scigoErrors.NewInsufficientDataError(op, 1, 0)
	}
	n := partial.NRows
	if !c.bias && n < 2 {
		return nil, scigoErrors.NewInsufficientDataError(op, 2, n)
	}

	params := c.params(dtype)
	rescale := c.bias && !c.backend.Capabilities().BiasedCovariance
	if rescale {
		if n == 1 {
			return c.singleRowEstimate(dtype, partial), nil
		}
		params.Bias = false
	}

	res, err := c.backend.Covariance().FinalizeCompute(params, partial)
	if err != nil {
		return nil, err
	}
	return toEstimate(dtype, res, rescale, n), nil
}

// computeBatch runs a single backend Compute over x.
func (c *config) computeBatch(op string, x *table.Table) (*estimate, error) {
	n := x.Rows()
	if n == 0 {
		return nil, scigoErrors.NewInsufficientDataError(op, 1, 0)
	}
	if !c.bias && n < 2 {
		return nil, scigoErrors.NewInsufficientDataError(op, 2, n)
	}

	params := c.params(x.DType())
	rescale := c.bias && !c.backend.Capabilities().BiasedCovariance
	if rescale {
		if n == 1 {
			partial := backend.NewCovariancePartial(x.Cols())
			partial.NRows = 1
			copy(partial.Sums, x.RawRow(0))
			return c.singleRowEstimate(x.DType(), partial), nil
		}
		params.Bias = false
	}

	res, err := c.backend.Covariance().Compute(params, x)
	if err != nil {
		return nil, err
	}
	return toEstimate(x.DType(), res, rescale, n), nil
}

// singleRowEstimate is the biased estimate of a single observation.
func (c *config) singleRowEstimate(dtype table.DType, partial *backend.CovariancePartial) *estimate {
	p := partial.NFeatures
	loc := make([]float64, p)
	cov := mat.NewDense(p, p, nil)
	if c.assumeCentered {
		for i := 0; i < p; i++ {
			for j := 0; j < p; j++ {
				cov.Set(i, j, dtype.Round(partial.Sums[i]*partial.Sums[j]))
			}
		}
	} else {
		copy(loc, partial.Sums)
	}
	return &estimate{covariance: cov, location: dtype.RoundSlice(loc)}
}

func toEstimate(dtype table.DType, res *backend.CovarianceResult, rescale bool, n int) *estimate {
	data := append([]float64(nil), res.Covariance...)
	if rescale {
		floats.Scale(float64(n-1)/float64(n), data)
		dtype.RoundSlice(data)
	}
	return &estimate{
		covariance: mat.NewDense(res.NFeatures, res.NFeatures, data),
		location:   append([]float64(nil), res.Means...),
	}
}

// pseudoInverse computes the Moore-Penrose inverse of a symmetric matrix.
func pseudoInverse(a *mat.Dense) (*mat.Dense, error) {
	p, _ := a.Dims()
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return nil, scigoErrors.ErrSingularMatrix
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	cutoff := 0.0
	if len(values) > 0 {
		cutoff = pinvTolerance * values[0]
	}
	inv := make([]float64, p)
	for i, s := range values {
		if s > cutoff {
			inv[i] = 1 / s
		}
	}

	// V · diag(1/s) · Uᵀ
	var vs mat.Dense
	vs.Apply(func(_, j int, x float64) float64 { return x * inv[j] }, &v)
	out := mat.NewDense(p, p, nil)
	out.Mul(&vs, u.T())
	return out, nil
}
