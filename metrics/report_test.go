package metrics

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pugs/core/model"
	"github.com/YuminosukeSato/pugs/core/tensor"
	"github.com/YuminosukeSato/pugs/ensemble"
	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// constantResult returns a result whose every member always samples the
// given per-label value.
func constantResult(t *testing.T, rows [][]uint8, iters, members int) *ensemble.Result {
	t.Helper()
	n, L := len(rows), len(rows[0])
	s, err := tensor.NewBinary(n, L, iters, members)
	require.NoError(t, err)
	labels := make(model.LabelSet, L)
	for l := range labels {
		labels[l] = string(rune('a' + l))
	}
	for i, row := range rows {
		for l, v := range row {
			for it := 0; it < iters; it++ {
				for k := 0; k < members; k++ {
					s.Set(v, i, l, it, k)
				}
			}
		}
	}
	return &ensemble.Result{RunID: uuid.New(), Labels: labels, Samples: s, Thin: 1}
}

func TestEvaluatePerfect(t *testing.T) {
	captureWarnings(t)
	rows := [][]uint8{{1, 0}, {0, 1}, {1, 1}}
	res := constantResult(t, rows, 4, 3)
	yTrue := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1})

	r, err := Evaluate(res, yTrue)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.ExactMatchRatio)
	assert.Equal(t, 1.0, r.LabellingFScore)
	assert.Equal(t, 1.0, r.RetrievalFScore)
	assert.Equal(t, 0.0, r.HammingLoss)
	assert.Equal(t, 0.0, r.BrierScore)
	assert.InDelta(t, 0.0, r.LogLoss, 1e-12)
	assert.Zero(t, r.ExcludedInstances)
	assert.Zero(t, r.ExcludedLabels)
	assert.Contains(t, r.String(), "exact match 1.0000")
}

func TestEvaluateReportsExclusions(t *testing.T) {
	warnings := captureWarnings(t)
	res := constantResult(t, [][]uint8{{1, 0}, {0, 0}}, 2, 1)
	yTrue := mat.NewDense(2, 2, []float64{1, 0, 0, 0})

	r, err := Evaluate(res, yTrue)
	require.NoError(t, err)
	assert.Equal(t, 1, r.ExcludedInstances)
	assert.Equal(t, 1, r.ExcludedLabels)
	assert.Len(t, *warnings, 2)
}

func TestEvaluateErrors(t *testing.T) {
	res := constantResult(t, [][]uint8{{1, 0}}, 2, 2)

	_, err := Evaluate(nil, mat.NewDense(1, 2, nil))
	assert.True(t, errors.Is(err, errors.ErrNilResult))

	_, err = Evaluate(res, mat.NewDense(2, 2, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 0, dimErr.Axis)

	_, err = Evaluate(res, mat.NewDense(1, 3, nil))
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 1, dimErr.Axis)

	_, err = Evaluate(&ensemble.Result{}, mat.NewDense(1, 2, nil))
	assert.Error(t, err)
}

func TestReportMarshalZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r := &Report{LogLoss: 0.25, ExactMatchRatio: 0.5, ExcludedLabels: 2}

	logger.Info().EmbedObject(r).Msg("evaluation")

	out := buf.String()
	assert.Contains(t, out, `"log_loss":0.25`)
	assert.Contains(t, out, `"exact_match_ratio":0.5`)
	assert.Contains(t, out, `"excluded_labels":2`)
}
