package backend

import (
	"math"

	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// CovariancePartial holds the running sufficient statistics of a covariance
// estimate: the row count, per-feature sums and the cross product of the
// rows centered about their running mean.
type CovariancePartial struct {
	NRows     int
	NFeatures int
	Sums      []float64
	// CrossProduct is NFeatures x NFeatures, row-major.
	CrossProduct []float64
}

// NewCovariancePartial returns an empty partial for p features.
func NewCovariancePartial(p int) *CovariancePartial {
	return &CovariancePartial{
		NFeatures:    p,
		Sums:         make([]float64, p),
		CrossProduct: make([]float64, p*p),
	}
}

// Clone returns a deep copy.
func (c *CovariancePartial) Clone() *CovariancePartial {
	if c == nil {
		return nil
	}
	return &CovariancePartial{
		NRows:        c.NRows,
		NFeatures:    c.NFeatures,
		Sums:         append([]float64(nil), c.Sums...),
		CrossProduct: append([]float64(nil), c.CrossProduct...),
	}
}

// Merge combines two partials computed over disjoint row sets using the
// pairwise update
//
//	C = C1 + C2 + n1*n2/n * (m1-m2)(m1-m2)ᵀ
//
// Neither input is modified.
func (c *CovariancePartial) Merge(other *CovariancePartial) (*CovariancePartial, error) {
	if other == nil || other.NRows == 0 {
		return c.Clone(), nil
	}
	if c == nil || c.NRows == 0 {
		return other.Clone(), nil
	}
	if c.NFeatures != other.NFeatures {
		return nil, scigoErrors.NewShapeError("CovariancePartial.Merge", c.NFeatures, other.NFeatures, 1)
	}

	p := c.NFeatures
	n1, n2 := float64(c.NRows), float64(other.NRows)
	n := n1 + n2
	out := &CovariancePartial{
		NRows:        c.NRows + other.NRows,
		NFeatures:    p,
		Sums:         make([]float64, p),
		CrossProduct: make([]float64, p*p),
	}

	delta := make([]float64, p)
	for j := 0; j < p; j++ {
		delta[j] = c.Sums[j]/n1 - other.Sums[j]/n2
		out.Sums[j] = c.Sums[j] + other.Sums[j]
	}
	f := n1 * n2 / n
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			k := i*p + j
			out.CrossProduct[k] = c.CrossProduct[k] + other.CrossProduct[k] + f*delta[i]*delta[j]
		}
	}
	return out, nil
}

// RegressionPartial accumulates the normal equations XᵀX and XᵀY. When
// FitIntercept is set the design matrix is augmented with a leading column
// of ones, so XtX is (p+1)x(p+1) and the intercept occupies index 0.
type RegressionPartial struct {
	NRows        int
	NFeatures    int
	NTargets     int
	FitIntercept bool
	// XtX is Dim() x Dim(), row-major.
	XtX []float64
	// XtY is Dim() x NTargets, row-major.
	XtY []float64
}

// NewRegressionPartial returns an empty partial.
func NewRegressionPartial(p, targets int, fitIntercept bool) *RegressionPartial {
	r := &RegressionPartial{NFeatures: p, NTargets: targets, FitIntercept: fitIntercept}
	k := r.Dim()
	r.XtX = make([]float64, k*k)
	r.XtY = make([]float64, k*targets)
	return r
}

// Dim is the number of columns of the (possibly augmented) design matrix.
func (r *RegressionPartial) Dim() int {
	if r.FitIntercept {
		return r.NFeatures + 1
	}
	return r.NFeatures
}

// Clone returns a deep copy.
func (r *RegressionPartial) Clone() *RegressionPartial {
	if r == nil {
		return nil
	}
	out := *r
	out.XtX = append([]float64(nil), r.XtX...)
	out.XtY = append([]float64(nil), r.XtY...)
	return &out
}

// Merge adds the normal equations of two partials. Neither input is modified.
func (r *RegressionPartial) Merge(other *RegressionPartial) (*RegressionPartial, error) {
	if other == nil || other.NRows == 0 {
		return r.Clone(), nil
	}
	if r == nil || r.NRows == 0 {
		return other.Clone(), nil
	}
	const op = "RegressionPartial.Merge"
	if r.NFeatures != other.NFeatures {
		return nil, scigoErrors.NewShapeError(op, r.NFeatures, other.NFeatures, 1)
	}
	if r.NTargets != other.NTargets {
		return nil, scigoErrors.NewShapeError(op, r.NTargets, other.NTargets, 1)
	}
	if r.FitIntercept != other.FitIntercept {
		return nil, scigoErrors.NewConfigurationError("fit_intercept", "partials disagree", other.FitIntercept)
	}

	out := r.Clone()
	out.NRows += other.NRows
	for i, v := range other.XtX {
		out.XtX[i] += v
	}
	for i, v := range other.XtY {
		out.XtY[i] += v
	}
	return out, nil
}

// BasicStatisticsPartial holds per-feature running moments and extrema.
// SumSquaresCentered is taken about the running mean.
type BasicStatisticsPartial struct {
	NRows              int
	NFeatures          int
	Sums               []float64
	SumSquares         []float64
	SumSquaresCentered []float64
	Min                []float64
	Max                []float64
}

// NewBasicStatisticsPartial returns an empty partial for p features.
func NewBasicStatisticsPartial(p int) *BasicStatisticsPartial {
	b := &BasicStatisticsPartial{
		NFeatures:          p,
		Sums:               make([]float64, p),
		SumSquares:         make([]float64, p),
		SumSquaresCentered: make([]float64, p),
		Min:                make([]float64, p),
		Max:                make([]float64, p),
	}
	for j := 0; j < p; j++ {
		b.Min[j] = math.Inf(1)
		b.Max[j] = math.Inf(-1)
	}
	return b
}

// Clone returns a deep copy.
func (b *BasicStatisticsPartial) Clone() *BasicStatisticsPartial {
	if b == nil {
		return nil
	}
	return &BasicStatisticsPartial{
		NRows:              b.NRows,
		NFeatures:          b.NFeatures,
		Sums:               append([]float64(nil), b.Sums...),
		SumSquares:         append([]float64(nil), b.SumSquares...),
		SumSquaresCentered: append([]float64(nil), b.SumSquaresCentered...),
		Min:                append([]float64(nil), b.Min...),
		Max:                append([]float64(nil), b.Max...),
	}
}

// Merge combines two partials over disjoint row sets. Neither input is
// modified.
func (b *BasicStatisticsPartial) Merge(other *BasicStatisticsPartial) (*BasicStatisticsPartial, error) {
	if other == nil || other.NRows == 0 {
		return b.Clone(), nil
	}
	if b == nil || b.NRows == 0 {
		return other.Clone(), nil
	}
	if b.NFeatures != other.NFeatures {
		return nil, scigoErrors.NewShapeError("BasicStatisticsPartial.Merge", b.NFeatures, other.NFeatures, 1)
	}

	n1, n2 := float64(b.NRows), float64(other.NRows)
	f := n1 * n2 / (n1 + n2)
	out := b.Clone()
	out.NRows += other.NRows
	for j := 0; j < b.NFeatures; j++ {
		d := b.Sums[j]/n1 - other.Sums[j]/n2
		out.Sums[j] += other.Sums[j]
		out.SumSquares[j] += other.SumSquares[j]
		out.SumSquaresCentered[j] += other.SumSquaresCentered[j] + f*d*d
		out.Min[j] = math.Min(out.Min[j], other.Min[j])
		out.Max[j] = math.Max(out.Max[j], other.Max[j])
	}
	return out, nil
}
