package basicstats

import (
	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

type config struct {
	resultOptions []ResultOption
	backend       backend.Backend
	logger        log.Logger
	err           error
}

// Option configures a statistics estimator.
type Option func(*config)

// WithResultOptions selects the statistics to compute. "all" expands to
// every statistic, which is also the default.
func WithResultOptions(options ...string) Option {
	return func(c *config) {
		opts, err := parseResultOptions(options)
		if err != nil {
			c.err = err
			return
		}
		c.resultOptions = opts
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
	c := config{resultOptions: AllResultOptions}
	for _, opt := range opts {
		opt(&c)
	}
	if c.backend == nil {
		c.backend = backend.Default()
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("basicstats")
	}
	c.logger = c.logger.With(log.ModelNameKey, modelName)
	return c
}

func (c *config) params(dtype table.DType, method backend.Method) backend.Params {
	return backend.Params{
		FPType:        dtype,
		Method:        method,
		ResultOptions: joinResultOptions(c.resultOptions),
	}
}

func (c *config) resultOptionNames() []string {
	names := make([]string, len(c.resultOptions))
	for i, o := range c.resultOptions {
		names[i] = o.String()
	}
	return names
}
