// Package ensemble runs one Gibbs chain per ensemble member and stacks the
// retained samples into a single tensor.
package ensemble

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pugs/core/model"
	"github.com/YuminosukeSato/pugs/core/parallel"
	"github.com/YuminosukeSato/pugs/core/tensor"
	"github.com/YuminosukeSato/pugs/gibbs"
	"github.com/YuminosukeSato/pugs/pkg/errors"
	"github.com/YuminosukeSato/pugs/pkg/log"
)

// Runner executes inference over an ensemble with a fixed configuration.
// A Runner holds no per-call state and may be reused.
type Runner struct {
	predictor model.ChainStepPredictor
	cfg       Config
}

// NewRunner creates a Runner. Options are applied on top of DefaultConfig and
// the result is validated.
func NewRunner(predictor model.ChainStepPredictor, opts ...Option) (*Runner, error) {
	if predictor == nil {
		return nil, errors.NewValidationError("predictor", "a ChainStepPredictor is required", nil)
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Progress == nil {
		cfg.Progress = gibbs.NopProgress{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NopLogger{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{predictor: predictor, cfg: cfg}, nil
}

// Config returns a copy of the runner's configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

// Run samples every member of ens over the rows of X and returns the stacked
// result. Members are independent: each gets its own sampler, random stream
// and trajectory, and X and ens are only read. The call is atomic: if any
// member fails, the remaining members are cancelled and no result is
// returned.
func (r *Runner) Run(ctx context.Context, ens *model.Ensemble, labels model.LabelSet, X mat.Matrix) (*Result, error) {
	if err := labels.Validate(); err != nil {
		return nil, err
	}
	if err := ens.Validate(labels.Len()); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewModelError("ensemble.Run", "nil feature matrix", errors.ErrEmptyData)
	}
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError("ensemble.Run", "empty feature matrix", errors.ErrEmptyData)
	}

	cfg := r.cfg
	total := cfg.TotalIterations()
	retained, err := RetainedIndices(cfg.BurnIn, cfg.Thin, cfg.NIters, total)
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	logger := cfg.Logger.With(log.ComponentKey, "ensemble", log.OperationKey, log.OperationRun, log.RunIDKey, runID.String())
	progress := cfg.Progress
	if cfg.Silent {
		progress = gibbs.NopProgress{}
	}

	m := ens.Size()
	samplers := make([]*gibbs.Sampler, m)
	for k, chain := range ens.Members {
		s, err := gibbs.NewSampler(r.predictor, chain,
			gibbs.WithSeed(cfg.Seed, uint64(k)),
			gibbs.WithMember(k),
			gibbs.WithParams(cfg.PredictParams),
			gibbs.WithProgress(progress),
			gibbs.WithLogger(logger),
			withOrder(cfg.LabelOrder),
		)
		if err != nil {
			return nil, err
		}
		samplers[k] = s
	}

	logger.Info("sampling started",
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.LabelsKey, labels.Len(),
		log.MembersKey, m,
		log.TotalIterationsKey, total,
		log.BurnInKey, cfg.BurnIn,
		log.ThinKey, cfg.Thin,
		log.RetainedKey, cfg.NIters,
		log.WorkersKey, cfg.Workers,
		log.RandomSeedKey, cfg.Seed,
	)
	start := time.Now()

	trajectories := make([]*tensor.Binary, m)
	err = parallel.ForEach(ctx, m, cfg.Workers, func(ctx context.Context, k int) error {
		traj, err := samplers[k].Run(ctx, X, total)
		if err != nil {
			return err
		}
		trajectories[k] = traj
		return nil
	})
	if err != nil {
		logger.Error("sampling failed", err, log.ErrorCodeKey, errorCode(err))
		return nil, err
	}

	samples, err := stack(trajectories, retained)
	if err != nil {
		return nil, err
	}

	logger.Info("sampling finished", log.DurationMsKey, time.Since(start).Milliseconds())
	return &Result{
		RunID:    runID,
		Labels:   append(model.LabelSet(nil), labels...),
		Samples:  samples,
		BurnIn:   cfg.BurnIn,
		Thin:     cfg.Thin,
		Seed:     cfg.Seed,
		Retained: retained,
	}, nil
}

func withOrder(order []int) gibbs.Option {
	if len(order) == 0 {
		return func(*gibbs.Sampler) {}
	}
	return gibbs.WithOrder(order)
}

// errorCode classifies a sampling failure for structured logs.
func errorCode(err error) string {
	var dimErr *errors.DimensionError
	var valErr *errors.ValidationError
	switch {
	case errors.As(err, &dimErr):
		return log.ErrorDimensionMismatch
	case errors.As(err, &valErr):
		return log.ErrorInvalidParameter
	default:
		return log.ErrorPredictorFailure
	}
}
