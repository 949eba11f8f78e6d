package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "gibbs.Step",
			kind:    "predictor failed",
			err:     fmt.Errorf("test error"),
			wantMsg: "pugs: gibbs.Step: predictor failed: test error",
		},
		{
			name:    "without original error",
			op:      "ensemble.Run",
			kind:    "aborted",
			err:     nil,
			wantMsg: "pugs: ensemble.Run: aborted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			assert.True(t, strings.Contains(formatted, "errors_test.go"), "stack trace should reference the test file")

			var modelErr *ModelError
			require.True(t, As(err, &modelErr))
			if tt.err != nil {
				assert.True(t, Is(err, tt.err))
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("metrics.HammingLoss", 4, 3, 1)

	want := "pugs: metrics.HammingLoss: dimension mismatch on axis 1 (columns). Expected 4, got 3"
	assert.Equal(t, want, err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 4, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("thin", "must be at least 1", 0)

	assert.Equal(t, "pugs: validation failed for parameter 'thin': must be at least 1 (got: 0)", err.Error())

	var valErr *ValidationError
	require.True(t, As(err, &valErr))
	assert.Equal(t, "thin", valErr.ParamName)
}

func TestNewInputShapeError(t *testing.T) {
	err := NewInputShapeError("aggregate.Aggregate", []int{-1, -1, -1, -1}, []int{2, 3, 4})

	var shapeErr *InputShapeError
	require.True(t, As(err, &shapeErr))
	assert.Contains(t, err.Error(), "[2 3 4]")
}

func TestCheckVector(t *testing.T) {
	ok := vec{0.1, 0.9}
	assert.NoError(t, CheckVector("test", ok, 1))

	bad := vec{0.1, nan(), 0.3}
	err := CheckVector("test", bad, 7)
	require.Error(t, err)

	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Equal(t, 7, numErr.Iteration)
	assert.Len(t, numErr.Values, 1)
}

func TestClipValue(t *testing.T) {
	assert.Equal(t, 0.0, ClipValue(-0.2, 0, 1))
	assert.Equal(t, 1.0, ClipValue(1.3, 0, 1))
	assert.Equal(t, 0.4, ClipValue(0.4, 0, 1))
}

func TestSafeDivide(t *testing.T) {
	assert.Equal(t, 0.0, SafeDivide(3, 0))
	assert.Equal(t, 0.0, SafeDivide(0, 0))
	assert.Equal(t, 1.5, SafeDivide(3, 2))
}

func TestWarnUsesHandler(t *testing.T) {
	var got []error
	prev := SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(prev)

	Warn(NewUndefinedMetricWarning("LabellingFScore", "empty label union", 2, 0.5))

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "excluded 2 entries")
}

func TestWarnPrefersZerolog(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)
	SetZerologWarnFunc(func(w error) {
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			logger.Warn().EmbedObject(m).Msg(w.Error())
			return
		}
		logger.Warn().Msg(w.Error())
	})
	defer SetZerologWarnFunc(nil)

	Warn(NewProbabilityClampWarning(1, 3, -0.1, 1.2))

	assert.Contains(t, buf.String(), `"type":"ProbabilityClampWarning"`)
	assert.Contains(t, buf.String(), `"clamped":3`)
}

type vec []float64

func (v vec) AtVec(i int) float64 { return v[i] }
func (v vec) Len() int            { return len(v) }

func nan() float64 {
	var zero float64
	return zero / zero
}
