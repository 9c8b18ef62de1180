package errors

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// maxReportedValues は NumericalInstabilityError に載せる非有限値の上限
const maxReportedValues = 10

func nonFinite(dst []float64, v float64) []float64 {
	if (math.IsNaN(v) || math.IsInf(v, 0)) && len(dst) < maxReportedValues {
		dst = append(dst, v)
	}
	return dst
}

// CheckNumericalStability は finalize 結果に NaN/Inf が含まれていれば
// NumericalInstabilityError を返します。batch はエラーメッセージ用のバッチ番号です。
func CheckNumericalStability(operation string, values []float64, batch int) error {
	var bad []float64
	for _, v := range values {
		bad = nonFinite(bad, v)
	}
	if len(bad) > 0 {
		return NewNumericalInstabilityError(operation, bad, batch)
	}
	return nil
}

// CheckScalar は単一の値を検査します。
func CheckScalar(operation string, value float64, batch int) error {
	return CheckNumericalStability(operation, []float64{value}, batch)
}

// CheckMatrix は行列全体を走査し、非有限値を最大10個まで報告します。
func CheckMatrix(operation string, m mat.Matrix, batch int) error {
	rows, cols := m.Dims()
	var bad []float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			bad = nonFinite(bad, m.At(i, j))
		}
	}
	if len(bad) > 0 {
		return NewNumericalInstabilityError(operation, bad, batch)
	}
	return nil
}
