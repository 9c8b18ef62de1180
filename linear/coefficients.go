package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/model"
	"github.com/YuminosukeSato/scigo-accel/core/parallel"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	"github.com/YuminosukeSato/scigo-accel/metrics"
	"github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// 予測を並列化する行数の閾値
const parallelThreshold = 1000

// coefficients は確定済みの回帰係数
type coefficients struct {
	coef      *mat.Dense // n_targets × n_features
	intercept []float64  // n_targets
}

// unpack はバックエンドのパック済み係数（列0が切片）を係数と切片に分離する
func unpack(res *backend.RegressionResult) *coefficients {
	p, t := res.NFeatures, res.NTargets
	c := &coefficients{
		coef:      mat.NewDense(t, p, nil),
		intercept: make([]float64, t),
	}
	for target := 0; target < t; target++ {
		row := res.PackedCoefficients[target*(p+1) : (target+1)*(p+1)]
		c.intercept[target] = row[0]
		c.coef.SetRow(target, row[1:])
	}
	return c
}

func (c *coefficients) nFeatures() int {
	_, p := c.coef.Dims()
	return p
}

// predict は y = X·coefᵀ + intercept を計算する
func (c *coefficients) predict(op string, X any) (*mat.Dense, error) {
	x, err := table.FromArray(X)
	if err != nil {
		return nil, err
	}
	p := c.nFeatures()
	if x.Cols() != p {
		return nil, errors.NewShapeError(op, p, x.Cols(), 1)
	}

	n, t := x.Rows(), len(c.intercept)
	if n == 0 {
		return &mat.Dense{}, nil
	}
	out := mat.NewDense(n, t, nil)
	parallel.ParallelizeWithThreshold(n, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			row := x.RawRow(i)
			for target := 0; target < t; target++ {
				pred := c.intercept[target]
				for j, v := range row {
					pred += v * c.coef.At(target, j)
				}
				out.Set(i, target, pred)
			}
		}
	})
	return out, nil
}

// score は決定係数 R² を返す（複数ターゲットの場合は平均）
func (c *coefficients) score(op string, X, y any) (float64, error) {
	yPred, err := c.predict(op, X)
	if err != nil {
		return 0, err
	}
	yt, err := table.FromArray(y)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(table.ToDense(yt), yPred)
}

func (c *coefficients) attributes() map[string][]float64 {
	return map[string][]float64{
		"coef":      append([]float64(nil), c.coef.RawMatrix().Data...),
		"intercept": append([]float64(nil), c.intercept...),
	}
}

// coefficientsFromSnapshot は確定済みの係数をスナップショットから復元する
func coefficientsFromSnapshot(s *model.Snapshot) (*coefficients, error) {
	intercept, ok := s.Attributes["intercept"]
	if !ok {
		if s.State.Fitted {
			return nil, errors.NewValueError("Restore", "fitted snapshot has no coefficients")
		}
		return nil, nil
	}
	t := len(intercept)
	p := s.State.NFeatures
	coef := s.Attributes["coef"]
	if t == 0 || p == 0 || len(coef) != t*p {
		return nil, errors.NewShapeError("Restore", t*p, len(coef), -1)
	}
	return &coefficients{
		coef:      mat.NewDense(t, p, append([]float64(nil), coef...)),
		intercept: append([]float64(nil), intercept...),
	}, nil
}
