// Package preprocessing はバッチ単位で学習できる特徴量スケーラーを提供する
//
// 統計量は basicstats.IncrementalBasicStatistics でバックエンド上に蓄積される。
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-accel/basicstats"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	"github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

// 定数特徴量とみなす範囲の閾値
const constantTolerance = 1e-8

// scaler は統計量の蓄積と変換の共通部分
type scaler struct {
	name  string
	stats *basicstats.IncrementalBasicStatistics
}

func newScaler(name string, options ...string) scaler {
	return scaler{
		name:  name,
		stats: basicstats.NewIncrementalBasicStatistics(basicstats.WithResultOptions(options...)),
	}
}

func (s *scaler) partialFit(X any) error {
	return s.stats.PartialFit(X, nil)
}

func (s *scaler) get(method string, opt basicstats.ResultOption) ([]float64, error) {
	if s.stats.NFeaturesIn() == 0 {
		return nil, errors.NewNotFittedError(s.name, method)
	}
	return s.stats.Get(opt)
}

// apply は各要素に f(値, 列) を適用した新しい行列を返す
func (s *scaler) apply(method string, X any, f func(v float64, j int) float64) (*mat.Dense, error) {
	if s.stats.NFeaturesIn() == 0 {
		return nil, errors.NewNotFittedError(s.name, method)
	}
	x, err := table.FromArray(X)
	if err != nil {
		return nil, err
	}
	if x.Cols() != s.stats.NFeaturesIn() {
		return nil, errors.NewShapeError(s.name+"."+method, s.stats.NFeaturesIn(), x.Cols(), 1)
	}
	if x.Rows() == 0 {
		return &mat.Dense{}, nil
	}

	out := table.ToDense(x)
	out.Apply(func(_, j int, v float64) float64 { return f(v, j) }, out)
	return out, nil
}

// StandardScaler はデータを平均0、標準偏差1に変換する
// 標準偏差は n で正規化する（母標準偏差）
type StandardScaler struct {
	scaler
	withMean bool
	withStd  bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	for _, batch := range batches {
//	    err := scaler.PartialFit(batch)
//	}
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		scaler:   newScaler("StandardScaler", "mean", "sum_squares_centered"),
		withMean: withMean,
		withStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は蓄積をやり直して X の統計量を計算する
func (s *StandardScaler) Fit(X any) error {
	s.stats.Reset()
	return s.partialFit(X)
}

// PartialFit は1バッチ分の統計量を蓄積する
func (s *StandardScaler) PartialFit(X any) error {
	return s.partialFit(X)
}

// Mean は各特徴量の平均値を返す
func (s *StandardScaler) Mean() ([]float64, error) {
	return s.get("Mean", basicstats.Mean)
}

// Scale は各特徴量の標準偏差を返す。定数特徴量は1
func (s *StandardScaler) Scale() ([]float64, error) {
	ssc, err := s.get("Scale", basicstats.SumSquaresCentered)
	if err != nil {
		return nil, err
	}
	n := float64(s.stats.Partial().NRows)
	scale := make([]float64, len(ssc))
	for j, v := range ssc {
		scale[j] = math.Sqrt(v / n)
		if scale[j] < constantTolerance {
			scale[j] = 1
		}
	}
	return scale, nil
}

func (s *StandardScaler) params(method string) (mean, scale []float64, err error) {
	if mean, err = s.get(method, basicstats.Mean); err != nil {
		return nil, nil, err
	}
	if scale, err = s.Scale(); err != nil {
		return nil, nil, err
	}
	if !s.withMean {
		mean = make([]float64, len(mean))
	}
	if !s.withStd {
		for j := range scale {
			scale[j] = 1
		}
	}
	return mean, scale, nil
}

// Transform は学習済みの統計量でデータを標準化する
func (s *StandardScaler) Transform(X any) (*mat.Dense, error) {
	mean, scale, err := s.params("Transform")
	if err != nil {
		return nil, err
	}
	return s.apply("Transform", X, func(v float64, j int) float64 {
		return (v - mean[j]) / scale[j]
	})
}

// FitTransform は学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X any) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X any) (*mat.Dense, error) {
	mean, scale, err := s.params("InverseTransform")
	if err != nil {
		return nil, err
	}
	return s.apply("InverseTransform", X, func(v float64, j int) float64 {
		return v*scale[j] + mean[j]
	})
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if s.stats.NFeaturesIn() == 0 {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.withMean, s.withStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.withMean, s.withStd, s.stats.NFeaturesIn())
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	scaler
	featureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{-1, 1})
//	XScaled, err := scaler.FitTransform(X)
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		scaler:       newScaler("MinMaxScaler", "min", "max"),
		featureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0, 1})
}

// Fit は蓄積をやり直して X の最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X any) error {
	if m.featureRange[0] >= m.featureRange[1] {
		return errors.NewConfigurationError("feature_range", "minimum must be smaller than maximum", m.featureRange)
	}
	m.stats.Reset()
	return m.partialFit(X)
}

// PartialFit は1バッチ分の最小値・最大値を蓄積する
func (m *MinMaxScaler) PartialFit(X any) error {
	if m.featureRange[0] >= m.featureRange[1] {
		return errors.NewConfigurationError("feature_range", "minimum must be smaller than maximum", m.featureRange)
	}
	return m.partialFit(X)
}

// DataMin は各特徴量の最小値を返す
func (m *MinMaxScaler) DataMin() ([]float64, error) {
	return m.get("DataMin", basicstats.Min)
}

// DataMax は各特徴量の最大値を返す
func (m *MinMaxScaler) DataMax() ([]float64, error) {
	return m.get("DataMax", basicstats.Max)
}

// params は x' = x*scale + min の係数を返す
func (m *MinMaxScaler) params(method string) (scale, offset []float64, err error) {
	lo, err := m.get(method, basicstats.Min)
	if err != nil {
		return nil, nil, err
	}
	hi, err := m.get(method, basicstats.Max)
	if err != nil {
		return nil, nil, err
	}

	width := m.featureRange[1] - m.featureRange[0]
	scale = make([]float64, len(lo))
	offset = make([]float64, len(lo))
	for j := range lo {
		dataRange := hi[j] - lo[j]
		if math.Abs(dataRange) < constantTolerance {
			// 定数特徴量の場合、スケールを1に設定
			dataRange = 1
		}
		scale[j] = width / dataRange
		offset[j] = m.featureRange[0] - lo[j]*scale[j]
	}
	return scale, offset, nil
}

// Transform は学習済みの範囲でデータをスケーリングする
func (m *MinMaxScaler) Transform(X any) (*mat.Dense, error) {
	scale, offset, err := m.params("Transform")
	if err != nil {
		return nil, err
	}
	return m.apply("Transform", X, func(v float64, j int) float64 {
		return v*scale[j] + offset[j]
	})
}

// FitTransform は学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X any) (*mat.Dense, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X any) (*mat.Dense, error) {
	scale, offset, err := m.params("InverseTransform")
	if err != nil {
		return nil, err
	}
	return m.apply("InverseTransform", X, func(v float64, j int) float64 {
		return (v - offset[j]) / scale[j]
	})
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if m.stats.NFeaturesIn() == 0 {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])", m.featureRange[0], m.featureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.featureRange[0], m.featureRange[1], m.stats.NFeaturesIn())
}
