// Package pugs provides approximate multi-label inference over ensembles of
// classifier chains.
//
// A classifier chain predicts each label from the features and the other
// labels. pugs does not require the labels to be known at prediction time:
// it resamples every label in turn from its classifier, conditioned on the
// freshest values of the others (a Gibbs-style sweep), and keeps the draws.
// Every member of an ensemble runs its own chain, the samples are stacked
// into one (instance × label × iteration × member) tensor, and that tensor is
// reduced to class decisions or marginal probabilities.
//
// # Quick Start
//
//	ens, err := linear_model.FitEnsemble(XTrain, YTrain, 5, 2024)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	runner, err := ensemble.NewRunner(linear_model.ChainPredictor{},
//	    ensemble.WithNIters(100),
//	    ensemble.WithBurnIn(50),
//	    ensemble.WithWorkers(4),
//	    ensemble.WithSeed(2024),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := runner.Run(ctx, ens, model.LabelSet{"a", "b", "c"}, XTest)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pred, err := aggregate.Result(res, "probability")
//	report, err := metrics.Evaluate(res, YTest)
//
// # Packages
//
//   - core/model: ensemble, label set and the ChainStepPredictor capability
//   - core/tensor: the binary sample tensor
//   - core/parallel: data-parallel loops and a cancelling worker pool
//   - gibbs: the per-member sampler
//   - ensemble: configuration, burn-in/thinning and the runner
//   - aggregate: class and probability aggregation
//   - metrics: log loss, exact match, F-scores and Hamming loss
//   - diagnostics: running means, trace plots and member agreement
//   - sklearn/linear_model: logistic chains usable as per-label classifiers
//   - preprocessing: feature standardization
//   - pkg/errors, pkg/log: error types, warnings and structured logging
//
// Any classifier can be plugged in by implementing model.ChainStepPredictor,
// or model.ProbaPredictor together with linear_model.ChainPredictor.
//
// # Reproducibility
//
// Member k draws from a PCG stream seeded with (Seed, k). Results for a fixed
// seed are bit-identical regardless of the worker count.
package pugs
