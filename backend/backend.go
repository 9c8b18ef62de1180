//go:generate mockgen -destination=mock/mock_backend.go -package=mock github.com/YuminosukeSato/scigo-accel/backend Backend,CovarianceBackend

// Package backend defines the narrow compute contract that estimators call
// and the registry that selects an implementation at construction time.
//
// Estimators never touch numerical kernels directly. Each call passes a
// Params bag, an optional prior partial result and a table, and receives a
// new partial result or a finalized result. Implementations must not mutate
// the prior partial they are given.
package backend

import (
	"github.com/YuminosukeSato/scigo-accel/core/table"
)

// Capabilities describes optional behaviour of a backend.
type Capabilities struct {
	// BiasedCovariance is true when FinalizeCompute honours Params.Bias.
	// Otherwise the covariance is always normalized by n-1.
	BiasedCovariance bool
	// Sparse is true when CSR tables are accepted natively.
	Sparse bool
}

// Backend bundles the algorithm families an accelerator provides.
type Backend interface {
	Name() string
	Capabilities() Capabilities
	Covariance() CovarianceBackend
	LinearModel() LinearModelBackend
	BasicStatistics() BasicStatisticsBackend
}

// CovarianceBackend computes empirical covariance.
type CovarianceBackend interface {
	PartialCompute(params Params, prior *CovariancePartial, x *table.Table) (*CovariancePartial, error)
	FinalizeCompute(params Params, partial *CovariancePartial) (*CovarianceResult, error)
	Compute(params Params, x *table.Table) (*CovarianceResult, error)
}

// CovarianceResult holds a finalized covariance estimate.
type CovarianceResult struct {
	NFeatures int
	// Covariance is NFeatures x NFeatures, row-major.
	Covariance []float64
	Means      []float64
}

// LinearModelBackend trains least squares models through the normal
// equations.
type LinearModelBackend interface {
	PartialTrain(params Params, hp Hyperparameters, prior *RegressionPartial, x, y *table.Table) (*RegressionPartial, error)
	FinalizeTrain(params Params, hp Hyperparameters, partial *RegressionPartial) (*RegressionResult, error)
	Train(params Params, hp Hyperparameters, x, y *table.Table) (*RegressionResult, error)
}

// RegressionResult holds the packed coefficients, NTargets x (NFeatures+1)
// row-major. Column 0 is the intercept.
type RegressionResult struct {
	NFeatures          int
	NTargets           int
	PackedCoefficients []float64
}

// BasicStatisticsBackend computes per-feature summary statistics.
type BasicStatisticsBackend interface {
	PartialCompute(params Params, prior *BasicStatisticsPartial, x, weights *table.Table) (*BasicStatisticsPartial, error)
	FinalizeCompute(params Params, partial *BasicStatisticsPartial) (*BasicStatisticsResult, error)
	Compute(params Params, x, weights *table.Table) (*BasicStatisticsResult, error)
}

// BasicStatisticsResult maps each requested statistic name to one value per
// feature.
type BasicStatisticsResult struct {
	Values map[string][]float64
}
