package covariance

import (
	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

type config struct {
	bias           bool
	assumeCentered bool
	method         backend.Method
	backend        backend.Backend
	logger         log.Logger
	err            error
}

// Option configures a covariance estimator.
type Option func(*config)

// WithBias normalizes the covariance by n instead of n-1.
func WithBias(bias bool) Option {
	return func(c *config) {
		c.bias = bias
	}
}

// WithAssumeCentered treats the data as already centered: the location is
// zero and the covariance is the raw second moment.
func WithAssumeCentered(assumeCentered bool) Option {
	return func(c *config) {
		c.assumeCentered = assumeCentered
	}
}

// WithMethod selects the backend computation method. Only "dense" is
// supported.
func WithMethod(method string) Option {
	return func(c *config) {
		m, err := backend.ParseMethod(method)
		if err == nil && m != backend.MethodDense && m != backend.MethodByDefault {
			err = scigoErrors.NewConfigurationError("method", "covariance supports only dense", method)
		}
		if err != nil {
			c.err = err
			return
		}
		c.method = backend.MethodDense
	}
}

// WithBackend overrides the process-wide default backend.
func WithBackend(b backend.Backend) Option {
	return func(c *config) {
		c.backend = b
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(modelName string, opts []Option) config {
	c := config{method: backend.MethodDense}
	for _, opt := range opts {
		opt(&c)
	}
	if c.backend == nil {
		c.backend = backend.Default()
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("covariance")
	}
	c.logger = c.logger.With(log.ModelNameKey, modelName)
	return c
}

func (c *config) params(dtype table.DType) backend.Params {
	return backend.Params{
		FPType:         dtype,
		Method:         c.method,
		Bias:           c.bias,
		AssumeCentered: c.assumeCentered,
	}
}
