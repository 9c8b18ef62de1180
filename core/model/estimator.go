package model

import "gonum.org/v1/gonum/mat"

// IncrementalEstimator は部分結果を蓄積し、明示的な確定処理で推定値を生成するモデルのインターフェース
type IncrementalEstimator interface {
	// FinalizeFit は蓄積された部分結果から推定値を確定する。未確定の更新がなければ何もしない
	FinalizeFit() error

	// NeedsFinalize は最後の確定以降に新しいバッチを受け取ったかどうかを返す
	NeedsFinalize() bool

	// NFeaturesIn は最初のバッチで固定された特徴量数を返す
	NFeaturesIn() int

	// Reset は蓄積状態と推定値をすべて破棄する
	Reset()
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X any) (*mat.Dense, error)
}

// Regressor は回帰モデルのインターフェース
type Regressor interface {
	Predictor

	// Score はモデルの決定係数（R²）を計算する
	Score(X, y any) (float64, error)
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	Regressor

	// Coef は n_targets x n_features の係数行列を返す
	Coef() (*mat.Dense, error)

	// Intercept は各ターゲットの切片を返す
	Intercept() ([]float64, error)
}
