// Package diagnostics offers mixing checks for sampled chains: running means
// of a cell across retained iterations, trace plots and cross-member
// agreement. None of them influences inference.
package diagnostics

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/pugs/core/tensor"
	"github.com/YuminosukeSato/pugs/ensemble"
	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// RunningMean returns the cumulative mean of one (instance, label, member)
// cell over the retained iterations: out[t] is the share of ones among
// iterations 0..t. A well-mixed chain settles to a flat line.
func RunningMean(samples *tensor.Binary, instance, label, member int) ([]float64, error) {
	if err := checkSamples("RunningMean", samples); err != nil {
		return nil, err
	}
	if err := checkIndex("instance", instance, samples.Dim(0)); err != nil {
		return nil, err
	}
	if err := checkIndex("label", label, samples.Dim(1)); err != nil {
		return nil, err
	}
	if err := checkIndex("member", member, samples.Dim(3)); err != nil {
		return nil, err
	}

	iters := samples.Dim(2)
	draws := make([]float64, iters)
	for t := range draws {
		draws[t] = float64(samples.At(instance, label, t, member))
	}
	out := floats.CumSum(make([]float64, iters), draws)
	for t := range out {
		out[t] /= float64(t + 1)
	}
	return out, nil
}

// MemberAgreement returns the fraction of (instance, label) cells on which
// every member reaches the same class decision (share of ones strictly above
// one half). A single-member ensemble always agrees.
func MemberAgreement(samples *tensor.Binary) (float64, error) {
	if err := checkSamples("MemberAgreement", samples); err != nil {
		return 0, err
	}
	n, L, iters, m := samples.Dim(0), samples.Dim(1), samples.Dim(2), samples.Dim(3)

	agree := 0
	for i := 0; i < n; i++ {
		for l := 0; l < L; l++ {
			votes := 0
			for k := 0; k < m; k++ {
				if 2*samples.CountOnes(2, i, l, 0, k) > iters {
					votes++
				}
			}
			if votes == 0 || votes == m {
				agree++
			}
		}
	}
	return float64(agree) / float64(n*L), nil
}

// TracePlot draws the running mean of one (instance, label) cell for every
// member of res and writes it to w as PNG.
func TracePlot(res *ensemble.Result, instance, label int, w io.Writer) error {
	if res == nil {
		return errors.WithStack(errors.ErrNilResult)
	}
	if err := checkSamples("TracePlot", res.Samples); err != nil {
		return err
	}
	if err := checkIndex("label", label, res.Labels.Len()); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("instance %d, label %q", instance, res.Labels[label])
	p.X.Label.Text = "retained iteration"
	p.Y.Label.Text = "running mean"
	p.Y.Min, p.Y.Max = 0, 1

	for k := 0; k < res.Samples.Dim(3); k++ {
		means, err := RunningMean(res.Samples, instance, label, k)
		if err != nil {
			return err
		}
		pts := make(plotter.XYs, len(means))
		for t, v := range means {
			pts[t].X = float64(t + 1)
			pts[t].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrap(err, "diagnostics: build trace line")
		}
		line.Color = plotutil.Color(k)
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("member %d", k), line)
	}

	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return errors.Wrap(err, "diagnostics: render trace plot")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "diagnostics: write trace plot")
	}
	return nil
}

func checkSamples(op string, samples *tensor.Binary) error {
	if samples == nil {
		return errors.NewValueError(op, "nil sample tensor")
	}
	if samples.Rank() != 4 {
		return errors.NewInputShapeError(op, []int{-1, -1, -1, -1}, samples.Shape())
	}
	return nil
}

func checkIndex(name string, idx, size int) error {
	if idx < 0 || idx >= size {
		return errors.NewValidationError(name, fmt.Sprintf("must be in [0, %d)", size), idx)
	}
	return nil
}
