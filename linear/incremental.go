package linear

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-accel/backend"
	"github.com/YuminosukeSato/scigo-accel/core/model"
	"github.com/YuminosukeSato/scigo-accel/core/table"
	"github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"github.com/YuminosukeSato/scigo-accel/pkg/log"
)

const (
	incrementalLinearName = "IncrementalLinearRegression"
	incrementalRidgeName  = "IncrementalRidge"
)

// incremental はバッチ単位で正規方程式を蓄積する回帰モデルの共通実装
//
// PartialFit は XᵀX と Xᵀy の部分結果のみを更新し、係数は FinalizeFit
// またはアクセサ呼び出し時に確定する。並行した PartialFit 呼び出しには対応しない。
type incremental struct {
	name    string
	cfg     config
	state   *model.StateManager
	partial *backend.RegressionPartial
	result  *coefficients
}

func newIncremental(name string, ridge bool, opts []Option) *incremental {
	return &incremental{
		name:  name,
		cfg:   newConfig(name, ridge, opts),
		state: model.NewStateManager(),
	}
}

// PartialFit は1バッチ分の X, y を蓄積する
// 検証がすべて通るまで状態は変更されない
func (m *incremental) PartialFit(X, y any) (err error) {
	op := m.name + ".PartialFit"
	defer errors.Recover(&err, op)

	if m.cfg.err != nil {
		return m.cfg.err
	}
	if m.cfg.backend == nil {
		return errors.NewConfigurationError("backend", "no backend available", nil)
	}

	x, yt, err := validateXY(op, X, y, m.state)
	if err != nil {
		return err
	}
	if m.partial != nil && m.partial.NRows > 0 && yt.Cols() != m.partial.NTargets {
		return errors.NewShapeError(op, m.partial.NTargets, yt.Cols(), 1)
	}

	start := time.Now()
	next, err := m.cfg.backend.LinearModel().PartialTrain(m.cfg.params(x.DType()), hyperparameters(), m.partial, x, yt)
	if err != nil {
		return err
	}

	m.partial = next
	m.state.Accept(x.Cols(), x.Rows(), x.DType())

	m.cfg.logger.Debug("partial fit",
		log.OperationKey, log.OperationPartialFit,
		log.BackendKey, m.cfg.backend.Name(),
		log.BatchSizeKey, x.Rows(),
		log.SamplesKey, next.NRows,
		log.FeaturesKey, x.Cols(),
		log.TargetsKey, yt.Cols(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// FinalizeFit は蓄積済みの部分結果から係数を確定する
// 前回から変更がなければ何もしない。失敗時は未確定のまま残る
func (m *incremental) FinalizeFit() (err error) {
	op := m.name + ".FinalizeFit"
	defer errors.Recover(&err, op)

	if !m.state.IsFitted() {
		return errors.NewInsufficientDataError(op, 1, 0)
	}
	if !m.state.NeedsFinalizeFlag() {
		return nil
	}

	res, err := m.finalize()
	if err != nil {
		m.cfg.logger.Error("finalize failed", err, log.OperationKey, log.OperationFinalizeFit)
		return err
	}

	m.result = res
	m.state.MarkFinalized()
	m.cfg.logger.Info("finalized",
		log.OperationKey, log.OperationFinalizeFit,
		log.SamplesKey, m.partial.NRows,
		log.FeaturesKey, m.partial.NFeatures,
		log.RegularizationKey, m.cfg.alpha,
	)
	return nil
}

func (m *incremental) finalize() (*coefficients, error) {
	res, err := m.cfg.backend.LinearModel().FinalizeTrain(m.cfg.params(m.state.GetDType()), hyperparameters(), m.partial)
	if err != nil {
		return nil, err
	}
	return unpack(res), nil
}

func (m *incremental) ensureFinalized(method string) error {
	if err := m.state.RequireFitted(m.name, method); err != nil {
		return err
	}
	return m.FinalizeFit()
}

// Coef は係数行列（n_targets × n_features）のコピーを返す
func (m *incremental) Coef() (*mat.Dense, error) {
	if err := m.ensureFinalized("Coef"); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(m.result.coef), nil
}

// Intercept はターゲットごとの切片を返す。fit_intercept=false なら0
func (m *incremental) Intercept() ([]float64, error) {
	if err := m.ensureFinalized("Intercept"); err != nil {
		return nil, err
	}
	return append([]float64(nil), m.result.intercept...), nil
}

// Predict は入力データに対する予測を行う（n_samples × n_targets）
func (m *incremental) Predict(X any) (*mat.Dense, error) {
	if err := m.ensureFinalized("Predict"); err != nil {
		return nil, err
	}
	return m.result.predict(m.name+".Predict", X)
}

// Score は決定係数（R²）を計算する
func (m *incremental) Score(X, y any) (float64, error) {
	if err := m.ensureFinalized("Score"); err != nil {
		return 0, err
	}
	return m.result.score(m.name+".Score", X, y)
}

// NeedsFinalize は前回の確定後にバッチを受け取ったかを返す
func (m *incremental) NeedsFinalize() bool {
	return m.state.NeedsFinalizeFlag()
}

// NFeaturesIn は最初のバッチで確定した特徴量数を返す
func (m *incremental) NFeaturesIn() int {
	nf, _ := m.state.GetDimensions()
	return nf
}

// NSamplesSeen は蓄積した行数を返す
func (m *incremental) NSamplesSeen() int {
	_, ns := m.state.GetDimensions()
	return ns
}

// DType は最初のバッチで確定した精度を返す
func (m *incremental) DType() table.DType {
	return m.state.GetDType()
}

// Partial は部分結果のコピーを返す
func (m *incremental) Partial() *backend.RegressionPartial {
	return m.partial.Clone()
}

// Reset は蓄積したデータをすべて破棄する
func (m *incremental) Reset() {
	m.state.Reset()
	m.partial = nil
	m.result = nil
}

// Snapshot は確定結果をスナップショットにのみ書き込む
// 推定器自体の未確定フラグは変更しない
func (m *incremental) Snapshot() (*model.Snapshot, error) {
	st := m.state.GetState()
	snap := &model.Snapshot{
		ModelType: m.name,
		Version:   model.SnapshotVersion,
		Params:    m.cfg.snapshotParams(),
		State:     st,
	}
	snap.State.NeedsFinalize = false
	if !st.Fitted {
		return snap, nil
	}

	res := m.result
	if st.NeedsFinalize {
		var err error
		if res, err = m.finalize(); err != nil {
			return nil, err
		}
	}
	snap.Regression = m.partial.Clone()
	snap.Attributes = res.attributes()

	m.cfg.logger.Debug("snapshot", log.OperationKey, log.OperationSnapshot, log.SamplesKey, st.NSamples)
	return snap, nil
}

// Restore はスナップショットから状態を復元する
// レシーバのバックエンドとロガーはそのまま使われる
func (m *incremental) Restore(s *model.Snapshot) error {
	if err := s.Validate(m.name); err != nil {
		return err
	}
	res, err := coefficientsFromSnapshot(s)
	if err != nil {
		return err
	}
	if s.State.Fitted && s.Regression == nil {
		return errors.NewValueError("Restore", "fitted snapshot has no partial result")
	}
	if err := m.state.SetState(s.State); err != nil {
		return err
	}
	m.cfg.applySnapshotParams(s.Params)
	m.partial = s.Regression.Clone()
	m.result = res

	m.cfg.logger.Debug("restored", log.OperationKey, log.OperationRestore, log.SamplesKey, s.State.NSamples)
	return nil
}

// IncrementalLinearRegression はバッチごとに学習する最小二乗線形回帰
//
// 例:
//
//	lr := linear.NewIncrementalLinearRegression()
//	for _, b := range batches {
//	    if err := lr.PartialFit(b.X, b.Y); err != nil {
//	        return err
//	    }
//	}
//	coef, err := lr.Coef()
type IncrementalLinearRegression struct {
	*incremental
}

// NewIncrementalLinearRegression は新しいインクリメンタル線形回帰モデルを作成する
func NewIncrementalLinearRegression(opts ...Option) *IncrementalLinearRegression {
	return &IncrementalLinearRegression{newIncremental(incrementalLinearName, false, opts)}
}

// IncrementalRidge はL2正則化付きのインクリメンタル線形回帰
// 切片は正則化されない
type IncrementalRidge struct {
	*incremental
}

// NewIncrementalRidge は新しいインクリメンタルRidgeモデルを作成する（デフォルト alpha=1.0）
func NewIncrementalRidge(opts ...Option) *IncrementalRidge {
	return &IncrementalRidge{newIncremental(incrementalRidgeName, true, opts)}
}

var (
	_ model.IncrementalEstimator = (*IncrementalLinearRegression)(nil)
	_ model.LinearModel          = (*IncrementalLinearRegression)(nil)
	_ model.Snapshotter          = (*IncrementalLinearRegression)(nil)
	_ model.IncrementalEstimator = (*IncrementalRidge)(nil)
	_ model.LinearModel          = (*IncrementalRidge)(nil)
	_ model.Snapshotter          = (*IncrementalRidge)(nil)
)
