package gibbs

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pugs/core/model"
	"github.com/YuminosukeSato/pugs/core/tensor"
	"github.com/YuminosukeSato/pugs/pkg/errors"
	"github.com/YuminosukeSato/pugs/pkg/log"
)

// constant returns the same probability for every row.
func constant(p float64) model.ModelHandle { return p }

// copyColumn uses conditioning column k (after the features) as the probability.
type copyColumn struct{ col int }

func stubPredictor(nFeatures int) model.PredictorFunc {
	return func(handle model.ModelHandle, X mat.Matrix, _ map[string]interface{}) (mat.Vector, error) {
		n, _ := X.Dims()
		out := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			switch h := handle.(type) {
			case float64:
				out.SetVec(i, h)
			case copyColumn:
				out.SetVec(i, X.At(i, nFeatures+h.col))
			default:
				return nil, fmt.Errorf("unknown handle %T", handle)
			}
		}
		return out, nil
	}
}

func features(n, p int) *mat.Dense {
	X := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			X.Set(i, j, float64(i+j))
		}
	}
	return X
}

func TestSamplerDeterministicWithSeed(t *testing.T) {
	X := features(20, 2)
	chain := model.Chain{constant(0.3), constant(0.7), constant(0.5)}

	run := func() *tensor.Binary {
		s, err := NewSampler(stubPredictor(2), chain, WithSeed(42, 0))
		require.NoError(t, err)
		traj, err := s.Run(context.Background(), X, 15)
		require.NoError(t, err)
		return traj
	}

	a, b := run(), run()
	assert.Equal(t, []int{20, 3, 15}, a.Shape())
	assert.True(t, a.Equal(b), "same seed must give the same trajectory")

	s, err := NewSampler(stubPredictor(2), chain, WithSeed(42, 1))
	require.NoError(t, err)
	c, err := s.Run(context.Background(), X, 15)
	require.NoError(t, err)
	assert.False(t, a.Equal(c), "a different stream should diverge")
}

func TestSamplerUsesFreshestValues(t *testing.T) {
	const n = 64
	X := features(n, 1)
	// Label 0 is always 1; label 1 copies label 0 (its only conditioning column).
	chain := model.Chain{constant(1), copyColumn{col: 0}}

	t.Run("label 0 swept first", func(t *testing.T) {
		s, err := NewSampler(stubPredictor(1), chain, WithSeed(7, 0))
		require.NoError(t, err)
		traj, err := s.Run(context.Background(), X, 3)
		require.NoError(t, err)

		for i := 0; i < n; i++ {
			for iter := 1; iter < 3; iter++ {
				assert.Equal(t, uint8(1), traj.At(i, 0, iter))
				assert.Equal(t, uint8(1), traj.At(i, 1, iter), "label 1 must read label 0 from the same sweep")
			}
		}
	})

	t.Run("label 1 swept first", func(t *testing.T) {
		s, err := NewSampler(stubPredictor(1), chain, WithSeed(7, 0), WithOrder([]int{1, 0}))
		require.NoError(t, err)
		traj, err := s.Run(context.Background(), X, 3)
		require.NoError(t, err)

		for i := 0; i < n; i++ {
			assert.Equal(t, traj.At(i, 0, 0), traj.At(i, 1, 1), "label 1 must read label 0 from the previous sweep")
			assert.Equal(t, uint8(1), traj.At(i, 1, 2))
		}
	})
}

func TestConditioningLayout(t *testing.T) {
	traj, err := tensor.NewBinary(1, 3, 2)
	require.NoError(t, err)
	// iteration 0: labels (0,1,0); iteration 1: labels (1,0,1)
	traj.Set(1, 0, 1, 0)
	traj.Set(1, 0, 0, 1)
	traj.Set(1, 0, 2, 1)

	identity := []int{0, 1, 2}

	// Resampling label 1 at iteration 1: label 0 is fresh (1), label 2 is stale (0).
	c := Conditioning(traj, identity, 1, 1)
	assert.Equal(t, []float64{1, 0}, mat.Row(nil, 0, c))

	// Resampling label 0: both others are stale -> iteration 0 values (1, 0).
	c = Conditioning(traj, identity, 1, 0)
	assert.Equal(t, []float64{1, 0}, mat.Row(nil, 0, c))

	// Resampling label 2: both others fresh -> iteration 1 values (1, 0).
	c = Conditioning(traj, identity, 1, 2)
	assert.Equal(t, []float64{1, 0}, mat.Row(nil, 0, c))

	// Reversed order: resampling label 0 last, both others are fresh.
	reversedPos := []int{2, 1, 0}
	c = Conditioning(traj, reversedPos, 1, 0)
	assert.Equal(t, []float64{0, 1}, mat.Row(nil, 0, c))
}

func TestSamplerAugmentedShapeAndParams(t *testing.T) {
	X := features(5, 3)
	var seen []int
	var gotParams map[string]interface{}
	pred := model.PredictorFunc(func(_ model.ModelHandle, A mat.Matrix, params map[string]interface{}) (mat.Vector, error) {
		r, c := A.Dims()
		seen = append(seen, c)
		gotParams = params
		assert.Equal(t, 5, r)
		assert.Equal(t, 4.0, A.At(2, 2), "original features come first")
		return mat.NewVecDense(r, nil), nil
	})

	params := map[string]interface{}{"threshold": 0.4}
	s, err := NewSampler(pred, model.Chain{nil, nil, nil, nil}, WithSeed(1, 1), WithParams(params))
	require.NoError(t, err)
	_, err = s.Run(context.Background(), X, 2)
	require.NoError(t, err)

	require.Len(t, seen, 4)
	for _, c := range seen {
		assert.Equal(t, 3+3, c)
	}
	assert.Equal(t, params, gotParams)
}

func TestSamplerSingleLabel(t *testing.T) {
	s, err := NewSampler(stubPredictor(2), model.Chain{constant(1)}, WithSeed(3, 3))
	require.NoError(t, err)
	traj, err := s.Run(context.Background(), features(4, 2), 3)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.Equal(t, uint8(1), traj.At(i, 0, 2))
	}
}

func TestSamplerPredictorFailures(t *testing.T) {
	boom := fmt.Errorf("model store unavailable")

	tests := []struct {
		name  string
		pred  model.PredictorFunc
		check func(t *testing.T, err error)
	}{
		{
			name: "predictor error propagates",
			pred: func(model.ModelHandle, mat.Matrix, map[string]interface{}) (mat.Vector, error) {
				return nil, boom
			},
			check: func(t *testing.T, err error) {
				var modelErr *errors.ModelError
				assert.True(t, errors.As(err, &modelErr))
				assert.True(t, errors.Is(err, boom))
			},
		},
		{
			name: "wrong output length",
			pred: func(model.ModelHandle, mat.Matrix, map[string]interface{}) (mat.Vector, error) {
				return mat.NewVecDense(2, nil), nil
			},
			check: func(t *testing.T, err error) {
				var dimErr *errors.DimensionError
				assert.True(t, errors.As(err, &dimErr))
			},
		},
		{
			name: "NaN output",
			pred: func(_ model.ModelHandle, X mat.Matrix, _ map[string]interface{}) (mat.Vector, error) {
				n, _ := X.Dims()
				v := mat.NewVecDense(n, nil)
				v.SetVec(0, math.NaN())
				return v, nil
			},
			check: func(t *testing.T, err error) {
				var numErr *errors.NumericalInstabilityError
				assert.True(t, errors.As(err, &numErr))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSampler(tt.pred, model.Chain{nil, nil}, WithSeed(1, 2))
			require.NoError(t, err)
			traj, err := s.Run(context.Background(), features(3, 1), 4)
			require.Error(t, err)
			assert.Nil(t, traj)
			tt.check(t, err)
		})
	}
}

func TestSamplerClampsOutOfRange(t *testing.T) {
	var warnings []error
	prev := errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(prev)

	s, err := NewSampler(stubPredictor(1), model.Chain{constant(1.5), constant(-0.25)}, WithSeed(9, 9), WithMember(3))
	require.NoError(t, err)
	traj, err := s.Run(context.Background(), features(4, 1), 3)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		assert.Equal(t, uint8(1), traj.At(i, 0, 2))
		assert.Equal(t, uint8(0), traj.At(i, 1, 2))
	}
	assert.Equal(t, 2*2*4, s.Clamped())

	require.Len(t, warnings, 1)
	var clampWarn *errors.ProbabilityClampWarning
	require.True(t, errors.As(warnings[0], &clampWarn))
	assert.Equal(t, 3, clampWarn.Member)
	assert.Equal(t, -0.25, clampWarn.Min)
	assert.Equal(t, 1.5, clampWarn.Max)
}

func TestSamplerProgress(t *testing.T) {
	var events []ProgressEvent
	testLogger, _ := log.NewTestLogger(log.LevelInfo)

	s, err := NewSampler(stubPredictor(1), model.Chain{constant(0.5)},
		WithSeed(1, 1),
		WithMember(2),
		WithProgress(ProgressFunc(func(ev ProgressEvent) { events = append(events, ev) })),
		WithLogger(testLogger),
	)
	require.NoError(t, err)
	_, err = s.Run(context.Background(), features(2, 1), 5)
	require.NoError(t, err)

	require.Len(t, events, 5)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Iteration)
		assert.Equal(t, 5, ev.Total)
		assert.Equal(t, 2, ev.Member)
	}
	assert.Equal(t, 1.0, events[4].Fraction)
}

func TestLogProgress(t *testing.T) {
	testLogger, _ := log.NewTestLogger(log.LevelInfo)
	p := LogProgress(testLogger, 2)
	for i := 1; i <= 5; i++ {
		p.Report(ProgressEvent{Member: 0, Iteration: i, Total: 5, Fraction: float64(i) / 5})
	}
	// iterations 2, 4 and the final 5
	assert.Len(t, testLogger.EntriesWithMessage("gibbs sweep completed"), 3)
}

func TestNewSamplerValidation(t *testing.T) {
	_, err := NewSampler(nil, model.Chain{nil})
	assert.Error(t, err)

	_, err = NewSampler(stubPredictor(1), model.Chain{})
	assert.Error(t, err)

	_, err = NewSampler(stubPredictor(1), model.Chain{nil, nil}, WithOrder([]int{0, 0}))
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))

	_, err = NewSampler(stubPredictor(1), model.Chain{nil, nil}, WithOrder([]int{1}))
	assert.Error(t, err)
}

func TestSamplerRunValidation(t *testing.T) {
	s, err := NewSampler(stubPredictor(1), model.Chain{constant(0.5)}, WithSeed(1, 1))
	require.NoError(t, err)

	_, err = s.Run(context.Background(), features(2, 1), 0)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx, features(2, 1), 3)
	assert.True(t, errors.Is(err, context.Canceled))

	traj, err := tensor.NewBinary(2, 1, 3)
	require.NoError(t, err)
	assert.Error(t, s.Step(features(2, 1), traj, 0, 0), "iteration 0 is the seed and cannot be stepped")
	assert.Error(t, s.Step(features(2, 1), traj, 1, 1), "label out of range")
	assert.Error(t, s.Step(features(3, 1), traj, 1, 0), "row mismatch")
}
