package basicstats

import (
	"time"

	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/model"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

const incrementalName = "IncrementalBasicStatistics"

// IncrementalBasicStatistics accumulates statistics over batches. Its
// result after a single batch equals BasicStatistics.Fit on that batch.
type IncrementalBasicStatistics struct {
	cfg     config
	state   *model.StateManager
	method  backend.Method
	partial *backend.BasicStatisticsPartial
	result  *Result
}

var (
	_ model.IncrementalEstimator = (*IncrementalBasicStatistics)(nil)
	_ model.Snapshotter          = (*IncrementalBasicStatistics)(nil)
)

// NewIncrementalBasicStatistics creates an empty estimator.
func NewIncrementalBasicStatistics(opts ...Option) *IncrementalBasicStatistics {
	return &IncrementalBasicStatistics{
		cfg:   newConfig(incrementalName, opts),
		state: model.NewStateManager(),
	}
}

// PartialFit accumulates one batch. sampleWeight may be nil.
func (b *IncrementalBasicStatistics) PartialFit(data, sampleWeight any) (err error) {
	const op = incrementalName + ".PartialFit"
	defer scigoErrors.Recover(&err, op)

	if b.cfg.err != nil {
		return b.cfg.err
	}
	if b.cfg.backend == nil {
		return scigoErrors.NewConfigurationError("backend", "no backend available", nil)
	}

	x, w, err := validateBatch(op, data, sampleWeight, b.state)
	if err != nil {
		return err
	}

	start := time.Now()
	method := backend.MethodFor(x)
	next, err := b.cfg.backend.BasicStatistics().PartialCompute(b.cfg.params(x.DType(), method), b.partial, x, w)
	if err != nil {
		return err
	}

	if !b.state.IsFitted() {
		b.method = method
	}
	b.partial = next
	b.state.Accept(x.Cols(), x.Rows(), x.DType())

	b.cfg.logger.Debug("partial fit",
		log.OperationKey, log.OperationPartialFit,
		log.MethodKey, method.String(),
		log.BatchSizeKey, x.Rows(),
		log.SamplesKey, next.NRows,
		log.FeaturesKey, x.Cols(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// FinalizeFit computes the statistics from the accumulated partial result.
// It is a no-op when nothing changed since the last call.
func (b *IncrementalBasicStatistics) FinalizeFit() (err error) {
	const op = incrementalName + ".FinalizeFit"
	defer scigoErrors.Recover(&err, op)

	if !b.state.IsFitted() {
		return scigoErrors.NewInsufficientDataError(op, 1, 0)
	}
	if !b.state.NeedsFinalizeFlag() {
		return nil
	}

	res, err := b.finalize(op)
	if err != nil {
		b.cfg.logger.Error("finalize failed", err, log.OperationKey, log.OperationFinalizeFit)
		return err
	}
	b.result = res
	b.state.MarkFinalized()
	b.cfg.logger.Info("finalized", log.OperationKey, log.OperationFinalizeFit, log.SamplesKey, b.partial.NRows)
	return nil
}

func (b *IncrementalBasicStatistics) finalize(op string) (*Result, error) {
	res, err := b.cfg.backend.BasicStatistics().FinalizeCompute(b.cfg.params(b.state.GetDType(), b.method), b.partial)
	if err != nil {
		return nil, err
	}
	return resultFromBackend(op, res, b.cfg.resultOptions)
}

func (b *IncrementalBasicStatistics) ensureFinalized(method string) error {
	if err := b.state.RequireFitted(incrementalName, method); err != nil {
		return err
	}
	return b.FinalizeFit()
}

// Result returns a copy of the statistics, finalizing first when needed.
func (b *IncrementalBasicStatistics) Result() (*Result, error) {
	if err := b.ensureFinalized("Result"); err != nil {
		return nil, err
	}
	return b.result.Clone(), nil
}

// Get returns statistic opt, one value per feature.
func (b *IncrementalBasicStatistics) Get(opt ResultOption) ([]float64, error) {
	if err := b.ensureFinalized("Get"); err != nil {
		return nil, err
	}
	return b.result.Get(opt)
}

// Scalar returns statistic opt when the data has a single feature.
func (b *IncrementalBasicStatistics) Scalar(opt ResultOption) (float64, error) {
	if err := b.ensureFinalized("Scalar"); err != nil {
		return 0, err
	}
	return scalar(incrementalName+".Scalar", b.result, b.NFeaturesIn() == 1, opt)
}

// Method returns the kernel chosen by the first batch.
func (b *IncrementalBasicStatistics) Method() backend.Method {
	return b.method
}

// NeedsFinalize reports whether batches were accepted since the last
// finalize.
func (b *IncrementalBasicStatistics) NeedsFinalize() bool {
	return b.state.NeedsFinalizeFlag()
}

// NFeaturesIn returns the feature count fixed by the first batch.
func (b *IncrementalBasicStatistics) NFeaturesIn() int {
	nf, _ := b.state.GetDimensions()
	return nf
}

// Partial returns a copy of the current partial result.
func (b *IncrementalBasicStatistics) Partial() *backend.BasicStatisticsPartial {
	return b.partial.Clone()
}

// Reset discards all accumulated data.
func (b *IncrementalBasicStatistics) Reset() {
	b.state.Reset()
	b.method = backend.MethodByDefault
	b.partial = nil
	b.result = nil
}

// Snapshot finalizes into the returned snapshot without touching the live
// estimator.
func (b *IncrementalBasicStatistics) Snapshot() (*model.Snapshot, error) {
	const op = incrementalName + ".Snapshot"

	st := b.state.GetState()
	snap := &model.Snapshot{
		ModelType: incrementalName,
		Version:   model.SnapshotVersion,
		Params: model.SnapshotParams{
			Method:        b.method.String(),
			ResultOptions: b.cfg.resultOptionNames(),
		},
		State: st,
	}
	snap.State.NeedsFinalize = false
	if !st.Fitted {
		return snap, nil
	}

	res := b.result
	if st.NeedsFinalize {
		var err error
		if res, err = b.finalize(op); err != nil {
			return nil, err
		}
	}
	snap.BasicStatistics = b.partial.Clone()
	snap.Attributes = res.attributes()
	return snap, nil
}

// Restore replaces the estimator state with s, including the requested
// statistics.
func (b *IncrementalBasicStatistics) Restore(s *model.Snapshot) error {
	if err := s.Validate(incrementalName); err != nil {
		return err
	}
	opts, err := parseResultOptions(s.Params.ResultOptions)
	if err != nil {
		return err
	}
	method, err := backend.ParseMethod(s.Params.Method)
	if err != nil {
		return err
	}
	if s.State.Fitted && s.BasicStatistics == nil {
		return scigoErrors.NewValueError("Restore", "fitted snapshot has no partial result")
	}
	if err := b.state.SetState(s.State); err != nil {
		return err
	}
	if len(opts) > 0 {
		b.cfg.resultOptions = opts
	}
	b.method = method
	b.partial = s.BasicStatistics.Clone()
	b.result = resultFromAttributes(s.Attributes)
	return nil
}
