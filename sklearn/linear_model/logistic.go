// Package linear_model provides a binary logistic regression that can serve
// as the per-label classifier of a classifier chain, and the adapter that
// exposes such classifiers to the Gibbs sampler.
package linear_model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pugs/core/model"
	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// LogisticRegression is a binary logistic regression fitted by full-batch
// gradient descent with an optional L2 penalty. Labels must be 0 or 1.
//
// A fitted model is read-only and may be queried from several goroutines.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // "l2" or "none"
	C            float64 // Inverse regularization strength
	fitIntercept bool
	maxIter      int
	tol          float64

	// Model parameters
	coef      *mat.VecDense
	intercept float64
	nIter     int
}

var (
	_ model.Fitter         = (*LogisticRegression)(nil)
	_ model.ProbaPredictor = (*LogisticRegression)(nil)
)

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates an unfitted classifier with sklearn-like
// defaults: l2 penalty, C=1, intercept, 100 iterations, tol 1e-4.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

func (lr *LogisticRegression) validateParams() error {
	switch lr.penalty {
	case "l2", "none":
	default:
		return errors.NewValidationError("penalty", `must be "l2" or "none"`, lr.penalty)
	}
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", lr.maxIter)
	}
	if lr.tol < 0 {
		return errors.NewValidationError("tol", "must be non-negative", lr.tol)
	}
	return nil
}

// Fit trains the model. y is an (n × 1) column of 0/1 labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validateParams(); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewValueError("LogisticRegression.Fit", "empty feature matrix")
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}

	target := mat.NewVecDense(nSamples, nil)
	for i := 0; i < nSamples; i++ {
		switch v := y.At(i, 0); v {
		case 0, 1:
			target.SetVec(i, v)
		default:
			return errors.NewValueError("LogisticRegression.Fit", fmt.Sprintf("labels must be 0 or 1, got %g", v))
		}
	}

	weights := mat.NewVecDense(nFeatures, nil)
	var intercept float64
	// 目的関数は C*Σloss + ||w||²/2。勾配はサンプル平均なので罰則も 1/(C*n) に揃える
	lambda := 0.0
	if lr.penalty == "l2" {
		lambda = 1.0 / (lr.C * float64(nSamples))
	}

	z := mat.NewVecDense(nSamples, nil)
	residual := mat.NewVecDense(nSamples, nil)
	grad := mat.NewVecDense(nFeatures, nil)
	const baseLearningRate = 1.0

	lr.nIter = 0
	for iter := 0; iter < lr.maxIter; iter++ {
		// residual = sigmoid(Xw + b) - y
		z.MulVec(X, weights)
		for i := 0; i < nSamples; i++ {
			residual.SetVec(i, sigmoid(z.AtVec(i)+intercept)-target.AtVec(i))
		}

		grad.MulVec(X.T(), residual)
		grad.ScaleVec(1/float64(nSamples), grad)
		if lambda > 0 {
			grad.AddScaledVec(grad, lambda, weights)
		}
		gradIntercept := floats.Sum(residual.RawVector().Data) / float64(nSamples)

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		weights.AddScaledVec(weights, -learningRate, grad)
		if lr.fitIntercept {
			intercept -= learningRate * gradIntercept
		}
		lr.nIter = iter + 1

		maxGrad := math.Max(math.Abs(gradIntercept), mat.Norm(grad, math.Inf(1)))
		if maxGrad < lr.tol {
			break
		}
	}

	lr.coef = weights
	lr.intercept = intercept
	lr.state.SetFitted(nFeatures)
	return nil
}

// DecisionFunction returns Xw + b for each row.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.VecDense, error) {
	_, nFeatures := X.Dims()
	if err := lr.state.RequireFitted("LogisticRegression.DecisionFunction", nFeatures); err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	z := mat.NewVecDense(nSamples, nil)
	z.MulVec(X, lr.coef)
	for i := 0; i < nSamples; i++ {
		z.SetVec(i, z.AtVec(i)+lr.intercept)
	}
	return z, nil
}

// PredictProba returns an (n × 2) matrix of class probabilities; column 1
// is P(y=1).
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	z, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := z.Len()
	probas := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		p := sigmoid(z.AtVec(i))
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Predict returns an (n × 1) column of 0/1 class labels.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	z, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := z.Len()
	predictions := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if z.AtVec(i) >= 0 {
			predictions.Set(i, 0, 1)
		}
	}
	return predictions, nil
}

// Score returns the mean accuracy on the given data.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	nSamples, _ := X.Dims()
	if rows, _ := y.Dims(); rows != nSamples {
		return 0, errors.NewDimensionError("LogisticRegression.Score", nSamples, rows, 0)
	}
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// Coef returns a copy of the learned coefficients, or nil before Fit.
func (lr *LogisticRegression) Coef() []float64 {
	if lr.coef == nil {
		return nil
	}
	return append([]float64(nil), lr.coef.RawVector().Data...)
}

// Intercept returns the learned intercept.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept
}

// NIter returns the number of gradient steps taken by the last Fit.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter
}

// IsFitted returns whether the model has been fitted
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters. Numbers decoded from JSON arrive
// as float64 and are accepted for integer parameters.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			lr.penalty, ok = value.(string)
		case "C":
			lr.C, ok = value.(float64)
		case "fit_intercept":
			lr.fitIntercept, ok = value.(bool)
		case "max_iter":
			switch v := value.(type) {
			case int:
				lr.maxIter, ok = v, true
			case float64:
				lr.maxIter, ok = int(v), true
			}
		case "tol":
			lr.tol, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return lr.validateParams()
}

// ExportWeights はモデルの重みをエクスポート
func (lr *LogisticRegression) ExportWeights() (*model.ModelWeights, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewModelError("LogisticRegression.ExportWeights", "model is not fitted", nil)
	}
	return &model.ModelWeights{
		ModelType:       "LogisticRegression",
		Version:         model.WeightsVersion,
		Coefficients:    lr.Coef(),
		Intercept:       lr.intercept,
		IsFitted:        true,
		Hyperparameters: lr.GetParams(),
	}, nil
}

// ImportWeights はモデルの重みをインポート
func (lr *LogisticRegression) ImportWeights(weights *model.ModelWeights) error {
	if weights == nil {
		return errors.NewValueError("LogisticRegression.ImportWeights", "weights cannot be nil")
	}
	if err := weights.Validate(); err != nil {
		return err
	}
	if weights.ModelType != "LogisticRegression" {
		return errors.NewValidationError("model_type", "expected LogisticRegression", weights.ModelType)
	}
	if !weights.IsFitted {
		return errors.NewModelError("LogisticRegression.ImportWeights", "weights come from an unfitted model", nil)
	}
	if err := lr.SetParams(weights.Hyperparameters); err != nil {
		return err
	}
	lr.coef = mat.NewVecDense(len(weights.Coefficients), append([]float64(nil), weights.Coefficients...))
	lr.intercept = weights.Intercept
	lr.state.SetFitted(len(weights.Coefficients))
	return nil
}

// String returns the string representation of the model
func (lr *LogisticRegression) String() string {
	if !lr.state.IsFitted() {
		return fmt.Sprintf("LogisticRegression(penalty=%s, C=%g, fit_intercept=%t)", lr.penalty, lr.C, lr.fitIntercept)
	}
	return fmt.Sprintf("LogisticRegression(penalty=%s, C=%g, n_features=%d, fitted=true)", lr.penalty, lr.C, lr.state.NFeatures())
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
