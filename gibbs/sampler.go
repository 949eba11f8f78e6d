// Package gibbs implements the per-member sampler: a sequential Gibbs-style
// sweep over the labels of one classifier chain, where every label is
// resampled from its classifier conditioned on the freshest available values
// of all other labels.
package gibbs

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/pugs/core/model"
	"github.com/YuminosukeSato/pugs/core/tensor"
	"github.com/YuminosukeSato/pugs/pkg/errors"
	"github.com/YuminosukeSato/pugs/pkg/log"
)

// Sampler runs one member's chain. A Sampler owns its random source and its
// trajectory for the duration of Run and must not be shared between
// goroutines.
type Sampler struct {
	predictor model.ChainStepPredictor
	handles   model.Chain
	order     []int
	pos       []int
	params    map[string]interface{}
	member    int
	src       rand.Source
	progress  ProgressReporter
	logger    log.Logger

	clamped    int
	clampedMin float64
	clampedMax float64
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithOrder sets the sweep order, a permutation of 0..L-1.
func WithOrder(order []int) Option {
	return func(s *Sampler) {
		s.order = append([]int(nil), order...)
	}
}

// WithParams sets the passthrough parameters handed to the predictor.
func WithParams(params map[string]interface{}) Option {
	return func(s *Sampler) {
		s.params = params
	}
}

// WithSource sets the random source used for every Bernoulli draw.
func WithSource(src rand.Source) Option {
	return func(s *Sampler) {
		s.src = src
	}
}

// WithSeed seeds a PCG source with (seed, stream).
func WithSeed(seed, stream uint64) Option {
	return func(s *Sampler) {
		s.src = rand.NewPCG(seed, stream)
	}
}

// WithMember tags progress events and log records with the member index.
func WithMember(member int) Option {
	return func(s *Sampler) {
		s.member = member
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(s *Sampler) {
		if p != nil {
			s.progress = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSampler creates a sampler for one chain. Without WithSource/WithSeed the
// sampler draws from a randomly seeded PCG source.
func NewSampler(predictor model.ChainStepPredictor, handles model.Chain, opts ...Option) (*Sampler, error) {
	if predictor == nil {
		return nil, errors.NewValidationError("predictor", "a ChainStepPredictor is required", nil)
	}
	if len(handles) == 0 {
		return nil, errors.NewValidationError("handles", "chain must hold at least one label model", 0)
	}

	s := &Sampler{
		predictor: predictor,
		handles:   handles,
		progress:  NopProgress{},
		logger:    log.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	L := len(handles)
	if s.order == nil {
		s.order = make([]int, L)
		for l := range s.order {
			s.order[l] = l
		}
	}
	pos, err := positions(s.order, L)
	if err != nil {
		return nil, err
	}
	s.pos = pos
	if s.src == nil {
		s.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	s.logger = s.logger.With(log.ComponentKey, "gibbs", log.MemberKey, s.member)
	return s, nil
}

// positions inverts a sweep order after checking it is a permutation.
func positions(order []int, L int) ([]int, error) {
	if len(order) != L {
		return nil, errors.NewValidationError("order", fmt.Sprintf("must list all %d labels", L), order)
	}
	pos := make([]int, L)
	for i := range pos {
		pos[i] = -1
	}
	for p, l := range order {
		if l < 0 || l >= L || pos[l] != -1 {
			return nil, errors.NewValidationError("order", "must be a permutation of label indices", order)
		}
		pos[l] = p
	}
	return pos, nil
}

// Run samples a trajectory of length total for every instance of X and every
// label, returning an (n × L × total) tensor. Iteration 0 is drawn from
// Bernoulli(0.5) without consulting any model; every later iteration is one
// sweep of Step over the labels in sweep order.
//
// ctx is checked between sweeps so that an aborted ensemble stops early; a
// cancelled Run returns no trajectory.
func (s *Sampler) Run(ctx context.Context, X mat.Matrix, total int) (*tensor.Binary, error) {
	n, _ := X.Dims()
	if n == 0 {
		return nil, errors.NewModelError("gibbs.Run", "empty feature matrix", errors.ErrEmptyData)
	}
	if total < 1 {
		return nil, errors.NewValidationError("total", "trajectory length must be at least 1", total)
	}

	L := len(s.handles)
	traj, err := tensor.NewBinary(n, L, total)
	if err != nil {
		return nil, err
	}
	s.clamped, s.clampedMin, s.clampedMax = 0, math.Inf(1), math.Inf(-1)

	start := time.Now()
	seed := distuv.Bernoulli{P: 0.5, Src: s.src}
	for i := 0; i < n; i++ {
		for l := 0; l < L; l++ {
			traj.Set(uint8(seed.Rand()), i, l, 0)
		}
	}
	s.report(1, total, start)

	for iter := 1; iter < total; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "gibbs: member %d aborted at iteration %d", s.member, iter)
		}
		for _, l := range s.order {
			if err := s.Step(X, traj, iter, l); err != nil {
				return nil, err
			}
		}
		s.report(iter+1, total, start)
	}

	if s.clamped > 0 {
		w := errors.NewProbabilityClampWarning(s.member, s.clamped, s.clampedMin, s.clampedMax)
		s.logger.Warn(w.Error(), log.ExcludedKey, s.clamped)
		errors.Warn(w)
	}
	return traj, nil
}

// Step resamples label l at iteration iter in place: it reads the
// conditioning cells described by Conditioning, asks the predictor for
// P(label l = 1) per instance and writes one fresh Bernoulli draw per
// instance to traj[·, l, iter]. No other cell is written.
//
// Predictor outputs that are NaN or infinite are fatal; finite outputs
// outside [0, 1] are clamped and counted.
func (s *Sampler) Step(X mat.Matrix, traj *tensor.Binary, iter, l int) error {
	if traj.Rank() != 3 {
		return errors.NewInputShapeError("gibbs.Step", []int{-1, len(s.handles), -1}, traj.Shape())
	}
	n, L, total := traj.Dim(0), traj.Dim(1), traj.Dim(2)
	if iter < 1 || iter >= total {
		return errors.NewValidationError("iter", fmt.Sprintf("must be in [1, %d)", total), iter)
	}
	if l < 0 || l >= L || L != len(s.handles) {
		return errors.NewValidationError("label", fmt.Sprintf("must be in [0, %d)", len(s.handles)), l)
	}
	if rows, _ := X.Dims(); rows != n {
		return errors.NewDimensionError("gibbs.Step", n, rows, 0)
	}

	augmented := Augment(X, Conditioning(traj, s.pos, iter, l))
	proba, err := s.predictor.PredictProba(s.handles[l], augmented, s.params)
	if err != nil {
		return errors.NewModelError("gibbs.Step",
			fmt.Sprintf("predictor failed for member %d, label %d, iteration %d", s.member, l, iter), err)
	}
	if proba == nil || proba.Len() != n {
		got := 0
		if proba != nil {
			got = proba.Len()
		}
		return errors.NewModelError("gibbs.Step",
			fmt.Sprintf("predictor output for label %d", l), errors.NewDimensionError("PredictProba", n, got, 0))
	}
	if err := errors.CheckVector("gibbs.Step", proba, iter); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		p := s.clamp(proba.AtVec(i))
		traj.Set(uint8(distuv.Bernoulli{P: p, Src: s.src}.Rand()), i, l, iter)
	}
	return nil
}

func (s *Sampler) clamp(p float64) float64 {
	if p >= 0 && p <= 1 {
		return p
	}
	s.clamped++
	s.clampedMin = math.Min(s.clampedMin, p)
	s.clampedMax = math.Max(s.clampedMax, p)
	return errors.ClipValue(p, 0, 1)
}

func (s *Sampler) report(done, total int, start time.Time) {
	ev := ProgressEvent{
		Member:    s.member,
		Iteration: done,
		Total:     total,
		Elapsed:   time.Since(start),
		Fraction:  float64(done) / float64(total),
	}
	s.progress.Report(ev)
	s.logger.Debug("sweep completed", log.IterationKey, done, log.TotalIterationsKey, total)
}

// Clamped returns how many predictor outputs the last Run clamped into [0, 1].
func (s *Sampler) Clamped() int {
	return s.clamped
}
