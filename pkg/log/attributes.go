// Package log defines standard attribute keys for sampling, aggregation and
// scoring operations.
//
// Keys follow a hierarchical naming convention (e.g. "sampler.iteration",
// "data.samples") so that log output from concurrent ensemble members can be
// filtered and grouped.
package log

// Operation context
const (
	// ComponentKey identifies which package is emitting the record.
	// Examples: "gibbs", "ensemble", "aggregate", "metrics"
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// RunIDKey carries the identifier of one inference call.
	RunIDKey = "run.id"
)

// Data shape
const (
	// SamplesKey is the number of instances (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of original feature columns.
	FeaturesKey = "data.features"

	// LabelsKey is the number of target labels.
	LabelsKey = "data.labels"

	// MembersKey is the number of ensemble members.
	MembersKey = "data.members"
)

// Sampler state
const (
	// MemberKey identifies the ensemble member a record belongs to.
	MemberKey = "sampler.member"

	// IterationKey is the current sweep index within a member's trajectory.
	IterationKey = "sampler.iteration"

	// TotalIterationsKey is the trajectory length including burn-in.
	TotalIterationsKey = "sampler.total_iterations"

	// LabelKey is the label being resampled.
	LabelKey = "sampler.label"

	// BurnInKey, ThinKey and RetainedKey describe the slicing policy.
	BurnInKey   = "sampler.burn_in"
	ThinKey     = "sampler.thin"
	RetainedKey = "sampler.retained"

	// FractionKey is the share of the trajectory completed, in [0, 1].
	FractionKey = "sampler.fraction"

	// WorkersKey is the worker pool size used for the ensemble.
	WorkersKey = "sampler.workers"

	// RandomSeedKey records the seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Performance and results
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// ElapsedKey records elapsed wall time as a duration string.
	ElapsedKey = "perf.elapsed"

	// LossKey records the logarithmic loss.
	LossKey = "metrics.log_loss"

	// ExcludedKey is the number of rows or columns excluded from a metric.
	ExcludedKey = "metrics.excluded"
)

// Error context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Standard attribute values.
const (
	OperationSample    = "sample"
	OperationRun       = "run"
	OperationAggregate = "aggregate"
	OperationEvaluate  = "evaluate"

	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInvalidParameter  = "INVALID_PARAMETER"
	ErrorPredictorFailure  = "PREDICTOR_FAILURE"
)
