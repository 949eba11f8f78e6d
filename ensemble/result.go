package ensemble

import (
	"github.com/google/uuid"

	"github.com/YuminosukeSato/pugs/core/model"
	"github.com/YuminosukeSato/pugs/core/tensor"
)

// Result is the outcome of one inference call: the label names and the
// (instance × label × iteration × member) sample tensor. It is never
// modified after Run returns.
type Result struct {
	RunID   uuid.UUID
	Labels  model.LabelSet
	Samples *tensor.Binary

	BurnIn   int
	Thin     int
	Seed     uint64
	Retained []int // 0-based trajectory indices kept per member
}

// Dims returns (instances, labels, iterations, members).
func (r *Result) Dims() (n, L, iters, m int) {
	s := r.Samples
	return s.Dim(0), s.Dim(1), s.Dim(2), s.Dim(3)
}
