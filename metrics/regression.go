package metrics

import (
	"math"

	"github.com/YuminosukeSato/scigo-accel/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// residuals は長さを検証し、yTrue - yPred のスライスを返す
func residuals(op string, yTrue, yPred *mat.VecDense) (truth, res []float64, err error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return nil, nil, errors.NewShapeError(op, n, yPred.Len(), 0)
	}

	truth = mat.Col(nil, 0, yTrue)
	res = make([]float64, n)
	floats.SubTo(res, truth, mat.Col(nil, 0, yPred))
	return truth, res, nil
}

// MSE は平均二乗誤差を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	_, res, err := residuals("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Dot(res, res) / float64(len(res)), nil
}

// MSEMatrix は n×1 行列どうしのMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	switch {
	case rTrue == 0 || cTrue == 0:
		return 0, errors.NewValueError("MSEMatrix", "empty matrix")
	case rTrue != rPred || cTrue != cPred:
		return 0, errors.NewShapeError("MSEMatrix", rTrue, rPred, 0)
	case cTrue != 1:
		return 0, errors.NewValueError("MSEMatrix", "must be a column vector (n×1 matrix)")
	}

	return MSE(
		mat.NewVecDense(rTrue, mat.Col(nil, 0, yTrue)),
		mat.NewVecDense(rPred, mat.Col(nil, 0, yPred)),
	)
}

// RMSE は平方根平均二乗誤差を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	_, res, err := residuals("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(res, 1) / float64(len(res)), nil
}

// R2Score は決定係数を計算する。yTrue が定数のときはエラー
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, res, err := residuals("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	centered := append([]float64(nil), truth...)
	floats.AddConst(-stat.Mean(truth, nil), centered)
	tss := floats.Dot(centered, centered)
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}

	return 1 - floats.Dot(res, res)/tss, nil
}

// MAPE は平均絶対パーセンテージ誤差を計算する。yTrue がゼロの要素は除外
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, res, err := residuals("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	valid := 0
	for i, t := range truth {
		if t == 0 {
			continue
		}
		sum += math.Abs(res[i] / t)
		valid++
	}
	if valid == 0 {
		return 0, errors.Newf("MAPE: all yTrue values are zero")
	}

	return sum / float64(valid) * 100, nil
}

// ExplainedVarianceScore は 1 - Var(yTrue - yPred) / Var(yTrue) を返す
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	truth, res, err := residuals("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	_, varTrue := stat.PopMeanVariance(truth, nil)
	if varTrue == 0 {
		return 0, errors.Newf("ExplainedVarianceScore: no variance in yTrue")
	}
	_, varRes := stat.PopMeanVariance(res, nil)

	return 1 - varRes/varTrue, nil
}

// R2ScoreMatrix は複数ターゲットの決定係数を列ごとに計算し、その平均を返す
func R2ScoreMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("R2ScoreMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewShapeError("R2ScoreMatrix", rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return 0, errors.NewShapeError("R2ScoreMatrix", cTrue, cPred, 1)
	}

	var total float64
	for j := 0; j < cTrue; j++ {
		score, err := R2Score(
			mat.NewVecDense(rTrue, mat.Col(nil, j, yTrue)),
			mat.NewVecDense(rPred, mat.Col(nil, j, yPred)),
		)
		if err != nil {
			return 0, errors.Wrapf(err, "R2ScoreMatrix: target %d", j)
		}
		total += score
	}
	return total / float64(cTrue), nil
}
