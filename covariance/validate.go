package covariance

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-accel/core/model"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// validateBatch converts X and checks it against the state fixed by earlier
// batches. The state itself is not modified.
func validateBatch(op string, X any, state *model.StateManager) (*table.Table, error) {
	x, err := table.FromArray(X)
	if err != nil {
		return nil, err
	}
	if x.Cols() == 0 {
		return nil, scigoErrors.NewValueError(op, "at least one feature is required")
	}
	if err := table.CheckFinite(op, x); err != nil {
		return nil, err
	}
	dtype, err := state.Check(op, x.Cols(), x.DType())
	if err != nil {
		return nil, err
	}
	if x.DType() != dtype {
		x = x.AsType(dtype)
	}
	return x, nil
}

func (c *config) snapshotParams() model.SnapshotParams {
	return model.SnapshotParams{
		Bias:           c.bias,
		AssumeCentered: c.assumeCentered,
		Method:         c.method.String(),
	}
}

func (c *config) applySnapshotParams(p model.SnapshotParams) {
	c.bias = p.Bias
	c.assumeCentered = p.AssumeCentered
}

func (e *estimate) attributes() map[string][]float64 {
	return map[string][]float64{
		"covariance": append([]float64(nil), e.covariance.RawMatrix().Data...),
		"location":   append([]float64(nil), e.location...),
	}
}

func estimateFromAttributes(s *model.Snapshot) (*estimate, error) {
	cov, hasCov := s.Attributes["covariance"]
	loc, hasLoc := s.Attributes["location"]
	if !hasCov && !hasLoc {
		if s.State.Fitted {
			return nil, scigoErrors.NewValueError("Restore", "fitted snapshot has no estimate")
		}
		return nil, nil
	}
	p := len(loc)
	if len(cov) != p*p || p == 0 {
		return nil, scigoErrors.NewShapeError("Restore", p*p, len(cov), -1)
	}
	return &estimate{
		covariance: mat.NewDense(p, p, append([]float64(nil), cov...)),
		location:   append([]float64(nil), loc...),
	}, nil
}

// mahalanobis computes (x-μ)ᵀ P (x-μ) for every row of X.
func mahalanobis(op string, X any, e *estimate) ([]float64, error) {
	x, err := table.FromArray(X)
	if err != nil {
		return nil, err
	}
	p := len(e.location)
	if x.Cols() != p {
		return nil, scigoErrors.NewShapeError(op, p, x.Cols(), 1)
	}
	prec, err := pseudoInverse(e.covariance)
	if err != nil {
		return nil, err
	}

	out := make([]float64, x.Rows())
	d := mat.NewVecDense(p, nil)
	var pd mat.VecDense
	for i := range out {
		row := x.RawRow(i)
		for j := 0; j < p; j++ {
			d.SetVec(j, row[j]-e.location[j])
		}
		pd.MulVec(prec, d)
		out[i] = mat.Dot(d, &pd)
	}
	return out, nil
}
