// Package model defines the read-only view the sampler has of a trained
// ensemble of classifier chains, and the capability used to query it.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// ModelHandle is an opaque reference to one fitted per-label classifier.
// The sampler never inspects it; it is only passed back to the
// ChainStepPredictor.
type ModelHandle interface{}

// ChainStepPredictor returns, for each row of X, the probability that the
// label modelled by handle equals 1.
//
// X holds the original features followed by the L-1 conditioning label
// columns in label-index order (see ChainColumns). params are forwarded
// verbatim from the inference configuration. The returned vector must have
// one entry per row of X.
type ChainStepPredictor interface {
	PredictProba(handle ModelHandle, X mat.Matrix, params map[string]interface{}) (mat.Vector, error)
}

// PredictorFunc adapts an ordinary function to ChainStepPredictor.
type PredictorFunc func(handle ModelHandle, X mat.Matrix, params map[string]interface{}) (mat.Vector, error)

// PredictProba calls f(handle, X, params).
func (f PredictorFunc) PredictProba(handle ModelHandle, X mat.Matrix, params map[string]interface{}) (mat.Vector, error) {
	return f(handle, X, params)
}

// ProbaPredictor is implemented by binary classifiers that report class
// probabilities as an (n × 2) matrix whose second column is P(y=1).
type ProbaPredictor interface {
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}
