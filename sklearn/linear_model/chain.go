package linear_model

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pugs/core/model"
	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// ProbaColumnParam is the predict parameter naming the column of a
// classifier's PredictProba output that holds P(y=1). It defaults to the
// last column.
const ProbaColumnParam = "proba_column"

// ChainPredictor adapts any model.ProbaPredictor (a fitted
// *LogisticRegression, for instance) to model.ChainStepPredictor.
type ChainPredictor struct{}

var _ model.ChainStepPredictor = ChainPredictor{}

// PredictProba implements model.ChainStepPredictor.
func (ChainPredictor) PredictProba(handle model.ModelHandle, X mat.Matrix, params map[string]interface{}) (mat.Vector, error) {
	clf, ok := handle.(model.ProbaPredictor)
	if !ok {
		return nil, errors.NewValidationError("handle", "must implement PredictProba(mat.Matrix)", fmt.Sprintf("%T", handle))
	}
	probas, err := clf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, cols := probas.Dims()
	col := cols - 1
	if v, ok := params[ProbaColumnParam]; ok {
		switch c := v.(type) {
		case int:
			col = c
		case float64:
			col = int(c)
		default:
			return nil, errors.NewValidationError(ProbaColumnParam, "must be an integer", v)
		}
	}
	if col < 0 || col >= cols {
		return nil, errors.NewValidationError(ProbaColumnParam, fmt.Sprintf("must be in [0, %d)", cols), col)
	}
	return mat.NewVecDense(n, mat.Col(nil, col, probas)), nil
}

// FitChain fits one classifier per label. The classifier of label l is
// trained on [X | Y without column l], the same layout the sampler builds
// from its conditioning values.
func FitChain(X, Y mat.Matrix, opts ...LogisticRegressionOption) (model.Chain, error) {
	n, p := X.Dims()
	yRows, L := Y.Dims()
	if yRows != n {
		return nil, errors.NewDimensionError("FitChain", n, yRows, 0)
	}
	if L == 0 {
		return nil, errors.NewValueError("FitChain", "no labels")
	}

	chain := make(model.Chain, L)
	for l := 0; l < L; l++ {
		inputs := mat.NewDense(n, p+L-1, nil)
		inputs.Slice(0, n, 0, p).(*mat.Dense).Copy(X)
		col := p
		for j := 0; j < L; j++ {
			if j == l {
				continue
			}
			for i := 0; i < n; i++ {
				inputs.Set(i, col, Y.At(i, j))
			}
			col++
		}
		target := mat.NewDense(n, 1, mat.Col(nil, l, Y))

		clf := NewLogisticRegression(opts...)
		if err := clf.Fit(inputs, target); err != nil {
			return nil, errors.Wrapf(err, "fit label %d", l)
		}
		chain[l] = clf
	}
	return chain, nil
}

// FitEnsemble fits members chains, each on a bootstrap resample of the rows
// of (X, Y) drawn from a PCG source seeded with seed.
func FitEnsemble(X, Y mat.Matrix, members int, seed uint64, opts ...LogisticRegressionOption) (*model.Ensemble, error) {
	if members < 1 {
		return nil, errors.NewValidationError("members", "must be at least 1", members)
	}
	n, p := X.Dims()
	_, L := Y.Dims()
	rng := rand.New(rand.NewPCG(seed, 0))

	ens := &model.Ensemble{Members: make([]model.Chain, members)}
	for k := range ens.Members {
		xs := mat.NewDense(n, p, nil)
		ys := mat.NewDense(n, L, nil)
		for i := 0; i < n; i++ {
			src := rng.IntN(n)
			xs.SetRow(i, mat.Row(nil, src, X))
			ys.SetRow(i, mat.Row(nil, src, Y))
		}
		chain, err := FitChain(xs, ys, opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "member %d", k)
		}
		ens.Members[k] = chain
	}
	return ens, nil
}

// SaveEnsemble writes the weights of every classifier of ens as JSON:
// one array per member, one entry per label.
func SaveEnsemble(w io.Writer, ens *model.Ensemble) error {
	out := make([][]*model.ModelWeights, ens.Size())
	for k, chain := range ens.Members {
		out[k] = make([]*model.ModelWeights, len(chain))
		for l, h := range chain {
			clf, ok := h.(*LogisticRegression)
			if !ok {
				return errors.NewValidationError("handle", "only *LogisticRegression can be saved", fmt.Sprintf("%T", h))
			}
			weights, err := clf.ExportWeights()
			if err != nil {
				return errors.Wrapf(err, "member %d, label %d", k, l)
			}
			out[k][l] = weights
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(err, "encode ensemble")
	}
	return nil
}

// LoadEnsemble reads an ensemble written by SaveEnsemble.
func LoadEnsemble(r io.Reader) (*model.Ensemble, error) {
	var in [][]*model.ModelWeights
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, errors.Wrap(err, "decode ensemble")
	}
	ens := &model.Ensemble{Members: make([]model.Chain, len(in))}
	for k, member := range in {
		chain := make(model.Chain, len(member))
		for l, weights := range member {
			clf := NewLogisticRegression()
			if err := clf.ImportWeights(weights); err != nil {
				return nil, errors.Wrapf(err, "member %d, label %d", k, l)
			}
			chain[l] = clf
		}
		ens.Members[k] = chain
	}
	return ens, nil
}
