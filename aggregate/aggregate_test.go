package aggregate

import (
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/pugs/core/model"
	"github.com/YuminosukeSato/pugs/core/tensor"
	"github.com/YuminosukeSato/pugs/ensemble"
	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// fromMembers builds a one-instance tensor from member → label → iterations.
func fromMembers(t *testing.T, members [][][]uint8) *tensor.Binary {
	t.Helper()
	m, L, iters := len(members), len(members[0]), len(members[0][0])
	s, err := tensor.NewBinary(1, L, iters, m)
	require.NoError(t, err)
	for k, labels := range members {
		for l, traj := range labels {
			for it, v := range traj {
				s.Set(v, 0, l, it, k)
			}
		}
	}
	return s
}

func filled(t *testing.T, v uint8, shape ...int) *tensor.Binary {
	t.Helper()
	s, err := tensor.NewBinary(shape...)
	require.NoError(t, err)
	for i := 0; i < shape[0]; i++ {
		for l := 0; l < shape[1]; l++ {
			for it := 0; it < shape[2]; it++ {
				for k := 0; k < shape[3]; k++ {
					s.Set(v, i, l, it, k)
				}
			}
		}
	}
	return s
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeClass, false},
		{"class", ModeClass, false},
		{"probability", ModeProbability, false},
		{"proba", "", true},
		{"Class", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			var valErr *errors.ValidationError
			assert.True(t, errors.As(err, &valErr), "input %q", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestAggregateTwoStageVote(t *testing.T) {
	samples := fromMembers(t, [][][]uint8{
		{{1, 1, 0}, {0, 0, 0}}, // member A
		{{1, 0, 1}, {1, 1, 1}}, // member B
	})
	labels := model.LabelSet{"l1", "l2"}

	class, err := Aggregate(samples, labels, ModeClass)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, class.Values.RawRowView(0), "a 1-1 member split is a tie and resolves to 0")
	assert.Equal(t, ModeClass, class.Mode)

	proba, err := Aggregate(samples, labels, ModeProbability)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, proba.Values.At(0, 0), 1e-12)
	assert.InDelta(t, 0.5, proba.Values.At(0, 1), 1e-12)
	assert.Equal(t, []float64{0.5}, proba.Column("l2"))
	assert.Nil(t, proba.Column("missing"))
}

func TestAggregateMemberTieResolvesToZero(t *testing.T) {
	// Each member has an even number of iterations split evenly.
	samples := fromMembers(t, [][][]uint8{
		{{1, 0, 1, 0}},
		{{1, 1, 1, 1}},
		{{1, 1, 1, 1}},
	})
	pred, err := Aggregate(samples, model.LabelSet{"only"}, ModeClass)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred.Values.At(0, 0), "two of three members vote 1")

	samples = fromMembers(t, [][][]uint8{
		{{1, 0, 1, 0}},
		{{1, 0, 0, 1}},
		{{1, 1, 1, 1}},
	})
	pred, err = Aggregate(samples, model.LabelSet{"only"}, ModeClass)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.Values.At(0, 0), "members at exactly one half vote 0")
}

func TestAggregateExtremes(t *testing.T) {
	labels := model.LabelSet{"a", "b", "c"}
	for _, mode := range []Mode{ModeClass, ModeProbability} {
		ones, err := Aggregate(filled(t, 1, 4, 3, 5, 2), labels, mode)
		require.NoError(t, err)
		zeros, err := Aggregate(filled(t, 0, 4, 3, 5, 2), labels, mode)
		require.NoError(t, err)
		for i := 0; i < 4; i++ {
			for l := 0; l < 3; l++ {
				assert.Equal(t, 1.0, ones.Values.At(i, l))
				assert.Equal(t, 0.0, zeros.Values.At(i, l))
			}
		}
	}
}

func TestAggregateIsPureAndIdempotent(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	// Large enough to take the parallel path.
	samples, err := tensor.NewBinary(parallelThreshold+10, 3, 7, 4)
	require.NoError(t, err)
	for i := 0; i < samples.Dim(0); i++ {
		for l := 0; l < 3; l++ {
			for it := 0; it < 7; it++ {
				for k := 0; k < 4; k++ {
					samples.Set(uint8(rng.IntN(2)), i, l, it, k)
				}
			}
		}
	}
	before := samples.Clone()
	labels := model.LabelSet{"a", "b", "c"}

	for _, mode := range []Mode{ModeClass, ModeProbability} {
		first, err := Aggregate(samples, labels, mode)
		require.NoError(t, err)
		second, err := Aggregate(samples, labels, mode)
		require.NoError(t, err)
		assert.Equal(t, first.Values.RawMatrix().Data, second.Values.RawMatrix().Data)

		rows, cols := first.Values.Dims()
		for i := 0; i < rows; i++ {
			for l := 0; l < cols; l++ {
				v := first.Values.At(i, l)
				assert.True(t, v >= 0 && v <= 1)
				if mode == ModeClass {
					assert.True(t, v == 0 || v == 1)
				}
			}
		}
	}
	assert.True(t, before.Equal(samples), "aggregation must not modify the samples")
}

func TestAggregateErrors(t *testing.T) {
	labels := model.LabelSet{"a", "b"}

	_, err := Aggregate(nil, labels, ModeClass)
	assert.Error(t, err)

	rank3, err := tensor.NewBinary(2, 2, 3)
	require.NoError(t, err)
	_, err = Aggregate(rank3, labels, ModeClass)
	var shapeErr *errors.InputShapeError
	assert.True(t, errors.As(err, &shapeErr))

	samples := filled(t, 1, 2, 2, 3, 1)
	_, err = Aggregate(samples, model.LabelSet{"a"}, ModeClass)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = Aggregate(samples, labels, Mode("median"))
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestResult(t *testing.T) {
	res := &ensemble.Result{
		RunID:   uuid.New(),
		Labels:  model.LabelSet{"l1", "l2"},
		Samples: fromMembers(t, [][][]uint8{{{1, 1, 0}, {0, 0, 0}}, {{1, 0, 1}, {1, 1, 1}}}),
	}

	pred, err := Result(res, "")
	require.NoError(t, err)
	assert.Equal(t, ModeClass, pred.Mode)
	assert.Equal(t, res.Labels, pred.Labels)
	assert.Contains(t, pred.String(), "l1\tl2")

	_, err = Result(res, "bogus")
	assert.Error(t, err)

	_, err = Result(nil, "class")
	assert.True(t, errors.Is(err, errors.ErrNilResult))
}
