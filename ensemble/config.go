package ensemble

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/pugs/gibbs"
	"github.com/YuminosukeSato/pugs/pkg/errors"
	"github.com/YuminosukeSato/pugs/pkg/log"
)

// Config holds the inference parameters of one Run.
type Config struct {
	// NIters is the number of samples retained per member.
	NIters int `yaml:"n_iters"`
	// BurnIn is the number of leading sweeps discarded.
	BurnIn int `yaml:"burn_in"`
	// Thin keeps every Thin-th sweep after burn-in.
	Thin int `yaml:"thin"`
	// Workers bounds the number of members sampled concurrently.
	// 1 (the default) samples members one after another.
	Workers int `yaml:"workers"`
	// Seed drives every Bernoulli draw; member k uses stream k.
	Seed uint64 `yaml:"seed"`
	// LabelOrder is the sweep order, a permutation of label indices.
	// Empty means label-index order.
	LabelOrder []int `yaml:"label_order"`
	// PredictParams are forwarded verbatim to the predictor.
	PredictParams map[string]interface{} `yaml:"predict_params"`
	// Silent suppresses progress reporting.
	Silent bool `yaml:"silent"`

	Progress gibbs.ProgressReporter `yaml:"-"`
	Logger   log.Logger             `yaml:"-"`
}

// DefaultConfig returns the defaults: 100 retained samples, no burn-in, no
// thinning, sequential members.
func DefaultConfig() Config {
	return Config{
		NIters:   100,
		BurnIn:   0,
		Thin:     1,
		Workers:  1,
		Progress: gibbs.NopProgress{},
		Logger:   log.NopLogger{},
	}
}

// Validate reports the first violated parameter constraint.
func (c Config) Validate() error {
	if c.NIters < 1 {
		return errors.NewValidationError("n_iters", "must be at least 1", c.NIters)
	}
	if c.BurnIn < 0 {
		return errors.NewValidationError("burn_in", "must be non-negative", c.BurnIn)
	}
	if c.Thin < 1 {
		return errors.NewValidationError("thin", "must be at least 1", c.Thin)
	}
	if c.Workers < 1 {
		return errors.NewValidationError("workers", "must be at least 1", c.Workers)
	}
	return nil
}

// TotalIterations is the trajectory length each member samples:
// BurnIn + (NIters-1)*Thin + 1, i.e. BurnIn + NIters when Thin is 1.
func (c Config) TotalIterations() int {
	return c.BurnIn + (c.NIters-1)*c.Thin + 1
}

// Option configures a Runner.
type Option func(*Config)

// WithNIters sets the number of retained samples per member.
func WithNIters(n int) Option {
	return func(c *Config) {
		c.NIters = n
	}
}

// WithBurnIn sets the number of discarded leading sweeps.
func WithBurnIn(n int) Option {
	return func(c *Config) {
		c.BurnIn = n
	}
}

// WithThin sets the thinning interval.
func WithThin(n int) Option {
	return func(c *Config) {
		c.Thin = n
	}
}

// WithWorkers sets the maximum number of members sampled concurrently.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithSeed sets the base random seed.
func WithSeed(seed uint64) Option {
	return func(c *Config) {
		c.Seed = seed
	}
}

// WithLabelOrder sets the sweep order.
func WithLabelOrder(order []int) Option {
	return func(c *Config) {
		c.LabelOrder = append([]int(nil), order...)
	}
}

// WithPredictParams sets the passthrough predictor parameters.
func WithPredictParams(params map[string]interface{}) Option {
	return func(c *Config) {
		c.PredictParams = params
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p gibbs.ProgressReporter) Option {
	return func(c *Config) {
		c.Progress = p
	}
}

// WithSilent disables progress reporting.
func WithSilent(silent bool) Option {
	return func(c *Config) {
		c.Silent = silent
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithConfig replaces every parameter with cfg (e.g. one read by LoadConfig).
// Options listed after it still apply on top.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// LoadConfig reads a YAML document on top of DefaultConfig. Unknown keys are
// rejected and the result is validated.
//
//	n_iters: 500
//	burn_in: 100
//	thin: 2
//	workers: 4
//	seed: 2024
//	label_order: [2, 0, 1]
//	predict_params:
//	  temperature: 1.0
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "ensemble: decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML config from path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, fmt.Sprintf("ensemble: open config %s", path))
	}
	defer f.Close()
	return LoadConfig(f)
}
