package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// BrierScore は確率予測と正解の平均二乗誤差を全セルに渡って計算する
//
//	1/(nL) Σ (y - p)²
//
// 確率はクランプしない。範囲外の値はそのまま誤差に反映される。
func BrierScore(yTrue, yProb mat.Matrix) (float64, error) {
	n, L, err := checkPair("BrierScore", yTrue, yProb)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		for l := 0; l < L; l++ {
			diff := yTrue.At(i, l) - yProb.At(i, l)
			sum += diff * diff
		}
	}
	return sum / float64(n*L), nil
}
