// Package basicstats computes per-feature summary statistics (min, max,
// sum, mean, variance and friends) on a compute backend, for dense or CSR
// input with optional sample weights.
package basicstats

import (
	"github.com/YuminosukeSato/scigo-accel/backend"
	_ "github.com/YuminosukeSato/scigo-accel/backend/cpu" // default backend
	"github.com/YuminosukeSato/scigo-accel/core/model"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

const basicStatisticsName = "BasicStatistics"

// BasicStatistics computes statistics of a single batch.
//
// Each row is multiplied by its sample weight before the statistics are
// taken. Variance is normalized by n-1, so a single row yields NaN variance.
type BasicStatistics struct {
	cfg    config
	state  *model.StateManager
	method backend.Method
	oneDim bool
	result *Result
}

// NewBasicStatistics creates an unfitted estimator.
func NewBasicStatistics(opts ...Option) *BasicStatistics {
	return &BasicStatistics{
		cfg:   newConfig(basicStatisticsName, opts),
		state: model.NewStateManager(),
	}
}

// Fit computes the requested statistics of data. sampleWeight may be nil.
func (b *BasicStatistics) Fit(data, sampleWeight any) (err error) {
	const op = basicStatisticsName + ".Fit"
	defer scigoErrors.Recover(&err, op)

	if b.cfg.err != nil {
		return b.cfg.err
	}
	if b.cfg.backend == nil {
		return scigoErrors.NewConfigurationError("backend", "no backend available", nil)
	}

	fresh := model.NewStateManager()
	x, w, err := validateBatch(op, data, sampleWeight, fresh)
	if err != nil {
		return err
	}
	if x.Rows() == 0 {
		return scigoErrors.NewInsufficientDataError(op, 1, 0)
	}

	method := backend.MethodFor(x)
	res, err := b.cfg.backend.BasicStatistics().Compute(b.cfg.params(x.DType(), method), x, w)
	if err != nil {
		return err
	}
	result, err := resultFromBackend(op, res, b.cfg.resultOptions)
	if err != nil {
		return err
	}

	fresh.Accept(x.Cols(), x.Rows(), x.DType())
	fresh.MarkFinalized()
	b.state = fresh
	b.method = method
	b.oneDim = x.OneDim()
	b.result = result

	b.cfg.logger.Info("fit",
		log.OperationKey, log.OperationFit,
		log.BackendKey, b.cfg.backend.Name(),
		log.MethodKey, method.String(),
		log.SamplesKey, x.Rows(),
		log.FeaturesKey, x.Cols(),
	)
	return nil
}

// Result returns a copy of the computed statistics.
func (b *BasicStatistics) Result() (*Result, error) {
	if err := b.state.RequireFitted(basicStatisticsName, "Result"); err != nil {
		return nil, err
	}
	return b.result.Clone(), nil
}

// Get returns statistic opt, one value per feature.
func (b *BasicStatistics) Get(opt ResultOption) ([]float64, error) {
	if err := b.state.RequireFitted(basicStatisticsName, "Get"); err != nil {
		return nil, err
	}
	return b.result.Get(opt)
}

// Scalar returns statistic opt of a 1-D input.
func (b *BasicStatistics) Scalar(opt ResultOption) (float64, error) {
	if err := b.state.RequireFitted(basicStatisticsName, "Scalar"); err != nil {
		return 0, err
	}
	return scalar(basicStatisticsName+".Scalar", b.result, b.oneDim, opt)
}

// Method returns the kernel chosen at fit time.
func (b *BasicStatistics) Method() backend.Method {
	return b.method
}

// NFeaturesIn returns the number of features seen by Fit.
func (b *BasicStatistics) NFeaturesIn() int {
	nf, _ := b.state.GetDimensions()
	return nf
}

// ResultOptions returns the names of the requested statistics.
func (b *BasicStatistics) ResultOptions() []string {
	return b.cfg.resultOptionNames()
}

func scalar(op string, r *Result, oneDim bool, opt ResultOption) (float64, error) {
	if !oneDim {
		return 0, scigoErrors.NewValueError(op, "scalar results are only available for 1-D input")
	}
	v, err := r.Get(opt)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// validateBatch converts data and its weights and checks them against the
// state fixed by earlier batches.
func validateBatch(op string, data, sampleWeight any, state *model.StateManager) (*table.Table, *table.Table, error) {
	x, w, err := table.FromArrayWithWeights(data, sampleWeight)
	if err != nil {
		return nil, nil, err
	}
	if x.Cols() == 0 {
		return nil, nil, scigoErrors.NewValueError(op, "at least one feature is required")
	}
	if err := table.CheckFinite(op, x); err != nil {
		return nil, nil, err
	}
	if w != nil {
		if err := table.CheckFinite(op, w); err != nil {
			return nil, nil, err
		}
	}

	dtype, err := state.Check(op, x.Cols(), x.DType())
	if err != nil {
		return nil, nil, err
	}
	if x.DType() != dtype {
		x = x.AsType(dtype)
		if w != nil {
			w = w.AsType(dtype)
		}
	}
	return x, w, nil
}
