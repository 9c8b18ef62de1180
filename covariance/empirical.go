package covariance

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-accel/core/model"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

const empiricalName = "EmpiricalCovariance"

// EmpiricalCovariance estimates covariance from a single batch with one
// backend Compute call.
type EmpiricalCovariance struct {
	cfg    config
	state  *model.StateManager
	result *estimate
}

// NewEmpiricalCovariance creates an unfitted estimator.
func NewEmpiricalCovariance(opts ...Option) *EmpiricalCovariance {
	return &EmpiricalCovariance{
		cfg:   newConfig(empiricalName, opts),
		state: model.NewStateManager(),
	}
}

// Fit computes the covariance of X, replacing any previous estimate.
func (c *EmpiricalCovariance) Fit(X any) (err error) {
	const op = empiricalName + ".Fit"
	defer scigoErrors.Recover(&err, op)

	if c.cfg.err != nil {
		return c.cfg.err
	}
	if c.cfg.backend == nil {
		return scigoErrors.NewConfigurationError("backend", "no backend available", nil)
	}

	fresh := model.NewStateManager()
	x, err := validateBatch(op, X, fresh)
	if err != nil {
		return err
	}
	res, err := c.cfg.computeBatch(op, x)
	if err != nil {
		return err
	}

	fresh.Accept(x.Cols(), x.Rows(), x.DType())
	fresh.MarkFinalized()
	c.state = fresh
	c.result = res

	c.cfg.logger.Info("fit",
		log.OperationKey, log.OperationFit,
		log.BackendKey, c.cfg.backend.Name(),
		log.SamplesKey, x.Rows(),
		log.FeaturesKey, x.Cols(),
	)
	return nil
}

// Covariance returns a copy of the estimated covariance matrix.
func (c *EmpiricalCovariance) Covariance() (*mat.Dense, error) {
	if err := c.state.RequireFitted(empiricalName, "Covariance"); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(c.result.covariance), nil
}

// Location returns a copy of the estimated per-feature means.
func (c *EmpiricalCovariance) Location() ([]float64, error) {
	if err := c.state.RequireFitted(empiricalName, "Location"); err != nil {
		return nil, err
	}
	return append([]float64(nil), c.result.location...), nil
}

// Precision returns the pseudo-inverse of the covariance matrix.
func (c *EmpiricalCovariance) Precision() (*mat.Dense, error) {
	if err := c.state.RequireFitted(empiricalName, "Precision"); err != nil {
		return nil, err
	}
	return pseudoInverse(c.result.covariance)
}

// Mahalanobis returns the squared Mahalanobis distance of every row of X.
func (c *EmpiricalCovariance) Mahalanobis(X any) ([]float64, error) {
	if err := c.state.RequireFitted(empiricalName, "Mahalanobis"); err != nil {
		return nil, err
	}
	return mahalanobis(empiricalName+".Mahalanobis", X, c.result)
}

// NFeaturesIn returns the number of features seen by Fit.
func (c *EmpiricalCovariance) NFeaturesIn() int {
	nf, _ := c.state.GetDimensions()
	return nf
}

// DType returns the precision of the fitted data.
func (c *EmpiricalCovariance) DType() table.DType {
	return c.state.GetDType()
}
