// Package linear は計算バックエンド上で動作する線形回帰モデルを提供する
//
// 一括学習の LinearRegression / Ridge と、バッチごとに正規方程式を蓄積する
// IncrementalLinearRegression / IncrementalRidge がある。係数はいずれも
// n_targets × n_features の行列として返される。
package linear

import (
	"gonum.org/v1/gonum/mat"

	_ "github.com/YuminosukeSato/scigo-accel/backend/cpu" // デフォルトバックエンド
	"github.com/YuminosukeSato/scigo-accel/core/model"
	"github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

const (
	linearRegressionName = "LinearRegression"
	ridgeName            = "Ridge"
)

// batch は一括学習する回帰モデルの共通実装
type batch struct {
	name   string
	cfg    config
	state  *model.StateManager
	result *coefficients
}

func newBatch(name string, ridge bool, opts []Option) *batch {
	return &batch{
		name:  name,
		cfg:   newConfig(name, ridge, opts),
		state: model.NewStateManager(),
	}
}

// Fit はモデルを訓練データで学習させる
// バックエンドの Train を1回呼び出し、以前の学習結果を置き換える
func (m *batch) Fit(X, y any) (err error) {
	op := m.name + ".Fit"
	defer errors.Recover(&err, op)

	if m.cfg.err != nil {
		return m.cfg.err
	}
	if m.cfg.backend == nil {
		return errors.NewConfigurationError("backend", "no backend available", nil)
	}

	fresh := model.NewStateManager()
	x, yt, err := validateXY(op, X, y, fresh)
	if err != nil {
		return err
	}
	if x.Rows() == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	params := m.cfg.params(x.DType())
	res, err := m.cfg.backend.LinearModel().Train(params, hyperparameters(), x, yt)
	if err != nil {
		m.cfg.logger.Error("fit failed", err, log.OperationKey, log.OperationFit)
		return err
	}

	fresh.Accept(x.Cols(), x.Rows(), x.DType())
	fresh.MarkFinalized()
	m.state = fresh
	m.result = unpack(res)

	m.cfg.logger.Info("fit",
		log.OperationKey, log.OperationFit,
		log.BackendKey, m.cfg.backend.Name(),
		log.SamplesKey, x.Rows(),
		log.FeaturesKey, x.Cols(),
		log.TargetsKey, yt.Cols(),
		log.HyperParamsKey, params.Map(),
	)
	return nil
}

// Coef は係数行列（n_targets × n_features）のコピーを返す
func (m *batch) Coef() (*mat.Dense, error) {
	if err := m.state.RequireFitted(m.name, "Coef"); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(m.result.coef), nil
}

// Intercept はターゲットごとの切片を返す
func (m *batch) Intercept() ([]float64, error) {
	if err := m.state.RequireFitted(m.name, "Intercept"); err != nil {
		return nil, err
	}
	return append([]float64(nil), m.result.intercept...), nil
}

// Predict は入力データに対する予測を行う
func (m *batch) Predict(X any) (*mat.Dense, error) {
	if err := m.state.RequireFitted(m.name, "Predict"); err != nil {
		return nil, err
	}
	return m.result.predict(m.name+".Predict", X)
}

// Score はモデルの決定係数（R²）を計算する
func (m *batch) Score(X, y any) (float64, error) {
	if err := m.state.RequireFitted(m.name, "Score"); err != nil {
		return 0, err
	}
	return m.result.score(m.name+".Score", X, y)
}

// NFeaturesIn は学習時の特徴量数を返す
func (m *batch) NFeaturesIn() int {
	nf, _ := m.state.GetDimensions()
	return nf
}

// GetParams はバックエンドに渡す設定を返す
func (m *batch) GetParams() map[string]interface{} {
	return m.cfg.params(m.state.GetDType()).Map()
}

// Snapshot は学習済みの係数を返す。部分結果は含まないため PartialFit での再開はできない
func (m *batch) Snapshot() (*model.Snapshot, error) {
	snap := &model.Snapshot{
		ModelType: m.name,
		Version:   model.SnapshotVersion,
		Params:    m.cfg.snapshotParams(),
		State:     m.state.GetState(),
	}
	if m.result != nil {
		snap.Attributes = m.result.attributes()
	}
	return snap, nil
}

// Restore はスナップショットから係数を復元する
func (m *batch) Restore(s *model.Snapshot) error {
	if err := s.Validate(m.name); err != nil {
		return err
	}
	res, err := coefficientsFromSnapshot(s)
	if err != nil {
		return err
	}
	if err := m.state.SetState(s.State); err != nil {
		return err
	}
	m.cfg.applySnapshotParams(s.Params)
	m.result = res
	return nil
}

// LinearRegression は正規方程式で解く最小二乗線形回帰
type LinearRegression struct {
	*batch
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	return &LinearRegression{newBatch(linearRegressionName, false, opts)}
}

// Ridge はL2正則化付き線形回帰。(XᵀX + αI')β = Xᵀy を解く（I' は切片を除く）
type Ridge struct {
	*batch
}

// NewRidge は新しいRidgeモデルを作成する（デフォルト alpha=1.0）
func NewRidge(opts ...Option) *Ridge {
	return &Ridge{newBatch(ridgeName, true, opts)}
}

var (
	_ model.LinearModel = (*LinearRegression)(nil)
	_ model.Snapshotter = (*LinearRegression)(nil)
	_ model.LinearModel = (*Ridge)(nil)
	_ model.Snapshotter = (*Ridge)(nil)
)
