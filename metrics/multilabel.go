// Package metrics はマルチラベル予測の評価指標を提供します。
//
// すべての関数は (n × L) の行列を受け取ります。正解行列は {0,1} のみを含む必要があります。
// 集合の重なり率（F-score）が定義できない行・列は除外され、除外数は
// errors.UndefinedMetricWarning として一度だけ通知されます。
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// LogLossEpsilon は対数損失の計算で確率をクランプする幅です。
// 0 は ε に、1 は 1-ε に置き換えられます。
const LogLossEpsilon = 1e-15

// LogLoss は全セルに渡る二値クロスエントロピーの平均を計算する
//
//	-1/(nL) Σ y·log(p) + (1-y)·log(1-p)
func LogLoss(yTrue, yProb mat.Matrix) (float64, error) {
	n, L, err := checkPair("LogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		for l := 0; l < L; l++ {
			p := yProb.At(i, l)
			if math.IsNaN(p) {
				return 0, errors.NewValueError("LogLoss", fmt.Sprintf("NaN probability at (%d, %d)", i, l))
			}
			p = errors.ClipValue(p, LogLossEpsilon, 1-LogLossEpsilon)
			if yTrue.At(i, l) == 1 {
				sum += math.Log(p)
			} else {
				sum += math.Log(1 - p)
			}
		}
	}
	return -sum / float64(n*L), nil
}

// ExactMatchRatio はすべてのラベルが一致した観測の割合を計算する
func ExactMatchRatio(yTrue, yPred mat.Matrix) (float64, error) {
	n, L, err := checkPair("ExactMatchRatio", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	matched := 0
	for i := 0; i < n; i++ {
		exact := true
		for l := 0; l < L && exact; l++ {
			exact = yTrue.At(i, l) == yPred.At(i, l)
		}
		if exact {
			matched++
		}
	}
	return float64(matched) / float64(n), nil
}

// HammingLoss は予測と正解が異なるセルの割合を計算する
func HammingLoss(yTrue, yPred mat.Matrix) (float64, error) {
	n, L, err := checkPair("HammingLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	wrong := 0
	for i := 0; i < n; i++ {
		for l := 0; l < L; l++ {
			if yTrue.At(i, l) != yPred.At(i, l) {
				wrong++
			}
		}
	}
	return float64(wrong) / float64(n*L), nil
}

// LabellingFScore は観測ごと（行方向）の |予測∩正解| / |予測∪正解| の平均を計算する。
// 和集合が空の行は除外され、その数を excluded として返す。
func LabellingFScore(yTrue, yPred mat.Matrix) (score float64, excluded int, err error) {
	n, L, err := checkPair("LabellingFScore", yTrue, yPred)
	if err != nil {
		return 0, 0, err
	}
	score, excluded = overlap(n, L, func(i, l int) (float64, float64) {
		return yTrue.At(i, l), yPred.At(i, l)
	})
	if excluded > 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("LabellingFScore",
			"instances with no true and no predicted labels", excluded, score))
	}
	return score, excluded, nil
}

// RetrievalFScore はラベルごと（列方向）の |予測∩正解| / |予測∪正解| の平均を計算する。
// 和集合が空の列は除外され、その数を excluded として返す。
func RetrievalFScore(yTrue, yPred mat.Matrix) (score float64, excluded int, err error) {
	n, L, err := checkPair("RetrievalFScore", yTrue, yPred)
	if err != nil {
		return 0, 0, err
	}
	score, excluded = overlap(L, n, func(l, i int) (float64, float64) {
		return yTrue.At(i, l), yPred.At(i, l)
	})
	if excluded > 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("RetrievalFScore",
			"labels never true and never predicted", excluded, score))
	}
	return score, excluded, nil
}

// overlap は outer 個の集合それぞれについて inner 要素上の重なり率を求め、
// 定義できる集合の平均と除外数を返す。すべて除外された場合のスコアは 0。
func overlap(outer, inner int, at func(o, k int) (truth, pred float64)) (float64, int) {
	var sum float64
	defined := 0
	for o := 0; o < outer; o++ {
		inter, union := 0, 0
		for k := 0; k < inner; k++ {
			t, p := at(o, k)
			if t == 1 || p == 1 {
				union++
				if t == 1 && p == 1 {
					inter++
				}
			}
		}
		if union == 0 {
			continue
		}
		sum += float64(inter) / float64(union)
		defined++
	}
	return errors.SafeDivide(sum, float64(defined)), outer - defined
}

// checkPair は評価関数の共通入力検証を行う
func checkPair(op string, yTrue, yPred mat.Matrix) (n, L int, err error) {
	if yTrue == nil || yPred == nil {
		return 0, 0, errors.NewValueError(op, "nil matrix")
	}
	n, L = yTrue.Dims()
	if n == 0 || L == 0 {
		return 0, 0, errors.NewValueError(op, "empty matrix")
	}
	pn, pL := yPred.Dims()
	if pn != n {
		return 0, 0, errors.NewDimensionError(op, n, pn, 0)
	}
	if pL != L {
		return 0, 0, errors.NewDimensionError(op, L, pL, 1)
	}
	for i := 0; i < n; i++ {
		for l := 0; l < L; l++ {
			if v := yTrue.At(i, l); v != 0 && v != 1 {
				return 0, 0, errors.NewValueError(op, fmt.Sprintf("ground truth must be 0 or 1, got %g at (%d, %d)", v, i, l))
			}
		}
	}
	return n, L, nil
}
