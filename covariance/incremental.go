// Package covariance provides empirical covariance estimators that run on a
// compute backend, in batch and incremental form.
package covariance

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-accel/backend"
	_ "github.com/YuminosukeSato/scigo-accel/backend/cpu" // default backend
	"github.com/YuminosukeSato/scigo-accel/core/model"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

const incrementalName = "IncrementalEmpiricalCovariance"

// IncrementalEmpiricalCovariance estimates the covariance of data that
// arrives in batches. PartialFit only updates the running partial result;
// the estimate is materialized by FinalizeFit or lazily by the accessors.
//
// The estimator is not safe for concurrent PartialFit calls.
type IncrementalEmpiricalCovariance struct {
	cfg     config
	state   *model.StateManager
	partial *backend.CovariancePartial
	result  *estimate
}

var (
	_ model.IncrementalEstimator = (*IncrementalEmpiricalCovariance)(nil)
	_ model.Snapshotter          = (*IncrementalEmpiricalCovariance)(nil)
)

// NewIncrementalEmpiricalCovariance creates an empty estimator.
func NewIncrementalEmpiricalCovariance(opts ...Option) *IncrementalEmpiricalCovariance {
	return &IncrementalEmpiricalCovariance{
		cfg:   newConfig(incrementalName, opts),
		state: model.NewStateManager(),
	}
}

// PartialFit accumulates one batch. The batch is validated completely
// before the partial result is replaced, so a failed call leaves the
// estimator unchanged.
func (c *IncrementalEmpiricalCovariance) PartialFit(X any) (err error) {
	const op = incrementalName + ".PartialFit"
	defer scigoErrors.Recover(&err, op)

	if c.cfg.err != nil {
		return c.cfg.err
	}
	if c.cfg.backend == nil {
		return scigoErrors.NewConfigurationError("backend", "no backend available", nil)
	}

	x, err := validateBatch(op, X, c.state)
	if err != nil {
		return err
	}

	start := time.Now()
	next, err := c.cfg.backend.Covariance().PartialCompute(c.cfg.params(x.DType()), c.partial, x)
	if err != nil {
		return err
	}

	c.partial = next
	c.state.Accept(x.Cols(), x.Rows(), x.DType())

	c.cfg.logger.Debug("partial fit",
		log.OperationKey, log.OperationPartialFit,
		log.BackendKey, c.cfg.backend.Name(),
		log.BatchSizeKey, x.Rows(),
		log.SamplesKey, next.NRows,
		log.FeaturesKey, x.Cols(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// FinalizeFit materializes the covariance and location from the partial
// result. It is a no-op when nothing changed since the last call. On error
// the estimator stays dirty and can be finalized again later.
func (c *IncrementalEmpiricalCovariance) FinalizeFit() (err error) {
	const op = incrementalName + ".FinalizeFit"
	defer scigoErrors.Recover(&err, op)

	if !c.state.IsFitted() {
		return scigoErrors.NewInsufficientDataError(op, 1, 0)
	}
	if !c.state.NeedsFinalizeFlag() {
		return nil
	}

	res, err := c.cfg.finalizePartial(op, c.state.GetDType(), c.partial)
	if err != nil {
		c.cfg.logger.Error("finalize failed", err, log.OperationKey, log.OperationFinalizeFit)
		return err
	}

	c.result = res
	c.state.MarkFinalized()
	c.cfg.logger.Info("finalized",
		log.OperationKey, log.OperationFinalizeFit,
		log.SamplesKey, c.partial.NRows,
		log.FeaturesKey, c.partial.NFeatures,
	)
	return nil
}

// ensureFinalized returns NotFittedError before any batch and otherwise
// performs an implicit FinalizeFit.
func (c *IncrementalEmpiricalCovariance) ensureFinalized(method string) error {
	if err := c.state.RequireFitted(incrementalName, method); err != nil {
		return err
	}
	return c.FinalizeFit()
}

// Covariance returns a copy of the estimated covariance matrix.
func (c *IncrementalEmpiricalCovariance) Covariance() (*mat.Dense, error) {
	if err := c.ensureFinalized("Covariance"); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(c.result.covariance), nil
}

// Location returns a copy of the estimated per-feature means. It is zero
// when the data is assumed centered.
func (c *IncrementalEmpiricalCovariance) Location() ([]float64, error) {
	if err := c.ensureFinalized("Location"); err != nil {
		return nil, err
	}
	return append([]float64(nil), c.result.location...), nil
}

// Precision returns the pseudo-inverse of the covariance matrix.
func (c *IncrementalEmpiricalCovariance) Precision() (*mat.Dense, error) {
	if err := c.ensureFinalized("Precision"); err != nil {
		return nil, err
	}
	return pseudoInverse(c.result.covariance)
}

// Mahalanobis returns the squared Mahalanobis distance of every row of X
// to the estimated location.
func (c *IncrementalEmpiricalCovariance) Mahalanobis(X any) ([]float64, error) {
	if err := c.ensureFinalized("Mahalanobis"); err != nil {
		return nil, err
	}
	return mahalanobis(incrementalName+".Mahalanobis", X, c.result)
}

// NeedsFinalize reports whether batches were accepted since the last
// finalize.
func (c *IncrementalEmpiricalCovariance) NeedsFinalize() bool {
	return c.state.NeedsFinalizeFlag()
}

// NFeaturesIn returns the feature count fixed by the first batch.
func (c *IncrementalEmpiricalCovariance) NFeaturesIn() int {
	nf, _ := c.state.GetDimensions()
	return nf
}

// NSamplesSeen returns the number of rows accumulated so far.
func (c *IncrementalEmpiricalCovariance) NSamplesSeen() int {
	_, ns := c.state.GetDimensions()
	return ns
}

// DType returns the precision fixed by the first batch.
func (c *IncrementalEmpiricalCovariance) DType() table.DType {
	return c.state.GetDType()
}

// Partial returns a copy of the current partial result.
func (c *IncrementalEmpiricalCovariance) Partial() *backend.CovariancePartial {
	return c.partial.Clone()
}

// Reset discards all accumulated data.
func (c *IncrementalEmpiricalCovariance) Reset() {
	c.state.Reset()
	c.partial = nil
	c.result = nil
}

// Snapshot finalizes into the returned snapshot without touching the live
// estimator, which keeps its dirty flag.
func (c *IncrementalEmpiricalCovariance) Snapshot() (*model.Snapshot, error) {
	const op = incrementalName + ".Snapshot"

	st := c.state.GetState()
	snap := &model.Snapshot{
		ModelType: incrementalName,
		Version:   model.SnapshotVersion,
		Params:    c.cfg.snapshotParams(),
		State:     st,
	}
	snap.State.NeedsFinalize = false
	if !st.Fitted {
		return snap, nil
	}

	res := c.result
	if st.NeedsFinalize {
		var err error
		if res, err = c.cfg.finalizePartial(op, c.state.GetDType(), c.partial); err != nil {
			return nil, err
		}
	}
	snap.Covariance = c.partial.Clone()
	snap.Attributes = res.attributes()

	c.cfg.logger.Debug("snapshot", log.OperationKey, log.OperationSnapshot, log.SamplesKey, st.NSamples)
	return snap, nil
}

// Restore replaces the estimator state with s. The backend and logger of
// the receiver are kept.
func (c *IncrementalEmpiricalCovariance) Restore(s *model.Snapshot) error {
	if err := s.Validate(incrementalName); err != nil {
		return err
	}
	if s.State.Fitted && s.Covariance == nil {
		return scigoErrors.NewValueError("Restore", "fitted snapshot has no partial result")
	}
	res, err := estimateFromAttributes(s)
	if err != nil {
		return err
	}
	if err := c.state.SetState(s.State); err != nil {
		return err
	}
	c.cfg.applySnapshotParams(s.Params)
	c.partial = s.Covariance.Clone()
	c.result = res
	return nil
}
