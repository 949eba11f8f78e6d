package gibbs

import (
	"time"

	"github.com/YuminosukeSato/pugs/pkg/log"
)

// ProgressEvent describes one completed sweep of one member's chain.
type ProgressEvent struct {
	Member    int
	Iteration int // 1-based; iteration 1 is the random initialisation
	Total     int
	Elapsed   time.Duration
	Fraction  float64
}

// ProgressReporter observes sampling progress. Implementations must not
// block for long and must be safe for concurrent use when the ensemble runs
// members on several workers. Reporting never influences sampled values.
type ProgressReporter interface {
	Report(ev ProgressEvent)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(ev ProgressEvent)

// Report calls f(ev).
func (f ProgressFunc) Report(ev ProgressEvent) { f(ev) }

// NopProgress discards progress events.
type NopProgress struct{}

// Report does nothing.
func (NopProgress) Report(ProgressEvent) {}

type logProgress struct {
	logger log.Logger
	every  int
}

// LogProgress reports every n-th iteration (and the last one) at info level.
// n < 1 is treated as 1.
func LogProgress(logger log.Logger, n int) ProgressReporter {
	if n < 1 {
		n = 1
	}
	return &logProgress{logger: logger, every: n}
}

func (p *logProgress) Report(ev ProgressEvent) {
	if ev.Iteration%p.every != 0 && ev.Iteration != ev.Total {
		return
	}
	p.logger.Info("gibbs sweep completed",
		log.MemberKey, ev.Member,
		log.IterationKey, ev.Iteration,
		log.TotalIterationsKey, ev.Total,
		log.FractionKey, ev.Fraction,
		log.ElapsedKey, ev.Elapsed.String(),
	)
}
