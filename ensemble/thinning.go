package ensemble

import (
	"fmt"

	"github.com/YuminosukeSato/pugs/core/tensor"
	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// RetainedIndices returns the 0-based trajectory indices kept after burn-in
// and thinning: burnIn, burnIn+thin, burnIn+2*thin, ... below total. In the
// 1-based numbering where the random initialisation is iteration 1 these are
// burnIn+1, burnIn+1+thin, ...
//
// It fails unless exactly nIters indices are available, so a trajectory that
// is too short (or too long) for the requested policy is never truncated or
// recycled silently.
func RetainedIndices(burnIn, thin, nIters, total int) ([]int, error) {
	if burnIn < 0 {
		return nil, errors.NewValidationError("burn_in", "must be non-negative", burnIn)
	}
	if thin < 1 {
		return nil, errors.NewValidationError("thin", "must be at least 1", thin)
	}
	if nIters < 1 {
		return nil, errors.NewValidationError("n_iters", "must be at least 1", nIters)
	}

	var idx []int
	for t := burnIn; t < total; t += thin {
		idx = append(idx, t)
	}
	if len(idx) != nIters {
		return nil, errors.NewValidationError("n_iters",
			fmt.Sprintf("trajectory of length %d with burn_in=%d and thin=%d yields %d samples", total, burnIn, thin, len(idx)),
			nIters)
	}
	return idx, nil
}

// stack copies the retained iterations of every member trajectory into one
// (n × L × len(retained) × m) tensor. Indices are copied one by one; the
// trajectories are never reinterpreted as a flat buffer.
func stack(trajectories []*tensor.Binary, retained []int) (*tensor.Binary, error) {
	if len(trajectories) == 0 {
		return nil, errors.NewValueError("ensemble.stack", "no trajectories")
	}
	n, L := trajectories[0].Dim(0), trajectories[0].Dim(1)
	out, err := tensor.NewBinary(n, L, len(retained), len(trajectories))
	if err != nil {
		return nil, err
	}
	for k, traj := range trajectories {
		if traj.Dim(0) != n || traj.Dim(1) != L {
			return nil, errors.NewInputShapeError("ensemble.stack", []int{n, L, -1}, traj.Shape())
		}
		for i := 0; i < n; i++ {
			for l := 0; l < L; l++ {
				for t, src := range retained {
					out.Set(traj.At(i, l, src), i, l, t, k)
				}
			}
		}
	}
	return out, nil
}
