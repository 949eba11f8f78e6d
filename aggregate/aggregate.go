// Package aggregate reduces the sample tensor of an inference run to one
// value per (instance, label): a class decision by two-stage majority vote or
// a marginal probability by two-stage averaging.
//
// Both modes first summarise every member on its own (over its retained
// iterations) and only then combine members, so each member carries equal
// weight regardless of how its chain mixed.
package aggregate

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/pugs/core/model"
	"github.com/YuminosukeSato/pugs/core/parallel"
	"github.com/YuminosukeSato/pugs/core/tensor"
	"github.com/YuminosukeSato/pugs/ensemble"
	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// Mode selects the aggregation rule.
type Mode string

const (
	// ModeClass yields 0/1 decisions.
	ModeClass Mode = "class"
	// ModeProbability yields marginal probabilities in [0, 1].
	ModeProbability Mode = "probability"
)

// parallelThreshold is the instance count above which rows are aggregated
// on several goroutines.
const parallelThreshold = 256

// ParseMode maps a mode name to a Mode. The empty string selects ModeClass.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeClass:
		return ModeClass, nil
	case ModeProbability:
		return ModeProbability, nil
	default:
		return "", errors.NewValidationError("mode", `must be "class" or "probability"`, s)
	}
}

// Prediction holds one aggregated value per instance and label.
type Prediction struct {
	Labels model.LabelSet
	Mode   Mode
	// Values is (n × L), columns in label order.
	Values *mat.Dense
}

// Column returns the values of the named label, or nil if the label is
// unknown.
func (p *Prediction) Column(name string) []float64 {
	l := p.Labels.Index(name)
	if l < 0 {
		return nil
	}
	return mat.Col(nil, l, p.Values)
}

// Aggregate reduces an (n × L × iterations × members) sample tensor.
//
// Class: a member votes 1 for a cell when its share of ones across
// iterations is strictly above 0.5; the cell is 1 when the share of members
// voting 1 is strictly above 0.5. Exact ties resolve to 0.
//
// Probability: the mean over iterations per member, then the mean of those
// per-member means.
//
// samples is only read.
func Aggregate(samples *tensor.Binary, labels model.LabelSet, mode Mode) (*Prediction, error) {
	if samples == nil {
		return nil, errors.NewValueError("aggregate.Aggregate", "nil sample tensor")
	}
	if samples.Rank() != 4 {
		return nil, errors.NewInputShapeError("aggregate.Aggregate", []int{-1, labels.Len(), -1, -1}, samples.Shape())
	}
	if mode != ModeClass && mode != ModeProbability {
		return nil, errors.NewValidationError("mode", `must be "class" or "probability"`, string(mode))
	}
	n, L, iters, m := samples.Dim(0), samples.Dim(1), samples.Dim(2), samples.Dim(3)
	if labels.Len() != L {
		return nil, errors.NewDimensionError("aggregate.Aggregate", L, labels.Len(), 1)
	}

	values := mat.NewDense(n, L, nil)
	reduce := classCell
	if mode == ModeProbability {
		reduce = probabilityCell
	}

	// Rows are disjoint, so goroutines never touch the same cell of values.
	parallel.ParallelizeWithThreshold(n, parallelThreshold, func(start, end int) {
		perMember := make([]float64, m)
		for i := start; i < end; i++ {
			for l := 0; l < L; l++ {
				values.Set(i, l, reduce(samples, i, l, iters, m, perMember))
			}
		}
	})

	return &Prediction{
		Labels: append(model.LabelSet(nil), labels...),
		Mode:   mode,
		Values: values,
	}, nil
}

func classCell(samples *tensor.Binary, i, l, iters, m int, _ []float64) float64 {
	votes := 0
	for k := 0; k < m; k++ {
		// ones/iters > 0.5 without floating point.
		if 2*samples.CountOnes(2, i, l, 0, k) > iters {
			votes++
		}
	}
	if 2*votes > m {
		return 1
	}
	return 0
}

func probabilityCell(samples *tensor.Binary, i, l, iters, m int, perMember []float64) float64 {
	for k := 0; k < m; k++ {
		perMember[k] = float64(samples.CountOnes(2, i, l, 0, k)) / float64(iters)
	}
	return stat.Mean(perMember, nil)
}

// Result aggregates an inference result. mode is parsed with ParseMode.
func Result(res *ensemble.Result, mode string) (*Prediction, error) {
	if res == nil {
		return nil, errors.WithStack(errors.ErrNilResult)
	}
	md, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	pred, err := Aggregate(res.Samples, res.Labels, md)
	if err != nil {
		return nil, errors.Wrapf(err, "aggregate run %s", res.RunID)
	}
	return pred, nil
}

// String renders the prediction as a small table, one row per instance.
func (p *Prediction) String() string {
	var b strings.Builder
	n, L := p.Values.Dims()
	fmt.Fprintf(&b, "%s prediction (%d × %d)\n", p.Mode, n, L)
	b.WriteString(strings.Join(p.Labels, "\t"))
	b.WriteByte('\n')
	for i := 0; i < n; i++ {
		for l := 0; l < L; l++ {
			if l > 0 {
				b.WriteByte('\t')
			}
			fmt.Fprintf(&b, "%.4g", p.Values.At(i, l))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
