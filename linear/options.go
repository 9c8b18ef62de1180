package linear

import (
	"math"

	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	"github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

const defaultRidgeAlpha = 1.0

type config struct {
	fitIntercept bool
	method       backend.Method
	alpha        float64
	alphaSet     bool
	backend      backend.Backend
	logger       log.Logger
	err          error
}

// Option は回帰モデルの設定関数
type Option func(*config)

// WithFitIntercept は切片を推定するかどうかを設定する（デフォルト true）
func WithFitIntercept(fit bool) Option {
	return func(c *config) {
		c.fitIntercept = fit
	}
}

// WithAlgorithm は計算手法を設定する。現在は "norm_eq"（正規方程式）のみ
func WithAlgorithm(algorithm string) Option {
	return func(c *config) {
		m, err := backend.ParseMethod(algorithm)
		if err == nil && m != backend.MethodNormEq && m != backend.MethodByDefault {
			err = errors.NewConfigurationError("algorithm", "linear models support only norm_eq", algorithm)
		}
		if err != nil {
			c.err = err
			return
		}
		c.method = backend.MethodNormEq
	}
}

// WithAlpha はRidgeの正則化強度を設定する。正の有限値でなければならない
func WithAlpha(alpha float64) Option {
	return func(c *config) {
		c.alpha = alpha
		c.alphaSet = true
	}
}

// WithBackend はプロセス全体のデフォルトバックエンドを上書きする
func WithBackend(b backend.Backend) Option {
	return func(c *config) {
		c.backend = b
	}
}

// WithLogger はロガーを設定する
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(modelName string, ridge bool, opts []Option) config {
	c := config{fitIntercept: true, method: backend.MethodNormEq}
	if ridge {
		c.alpha = defaultRidgeAlpha
	}
	for _, opt := range opts {
		opt(&c)
	}

	switch {
	case c.err != nil:
	case !ridge && c.alphaSet:
		c.err = errors.NewConfigurationError("alpha", "only ridge models are regularized", c.alpha)
	case ridge && (!(c.alpha > 0) || math.IsInf(c.alpha, 1)):
		c.err = errors.NewConfigurationError("alpha", "must be a positive finite number", c.alpha)
	}

	if c.backend == nil {
		c.backend = backend.Default()
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("linear")
	}
	c.logger = c.logger.With(log.ModelNameKey, modelName)
	return c
}

func (c *config) params(dtype table.DType) backend.Params {
	return backend.Params{
		FPType:       dtype,
		Method:       c.method,
		FitIntercept: c.fitIntercept,
		Alpha:        c.alpha,
	}
}

// hyperparameters は登録済みの上書き値を返す
func hyperparameters() backend.Hyperparameters {
	return backend.GetHyperparameters("linear_regression", "train")
}
