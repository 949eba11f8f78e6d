package gibbs

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pugs/core/tensor"
)

// Augment returns [X | C]: the original features followed by the
// conditioning columns. A nil C (single-label chains) yields a copy of X.
func Augment(X mat.Matrix, C *mat.Dense) *mat.Dense {
	if C == nil {
		return mat.DenseCopyOf(X)
	}
	n, p := X.Dims()
	_, c := C.Dims()
	out := mat.NewDense(n, p+c, nil)
	out.Slice(0, n, 0, p).(*mat.Dense).Copy(X)
	out.Slice(0, n, p, p+c).(*mat.Dense).Copy(C)
	return out
}

// Conditioning returns the (n × L-1) matrix of label values used to resample
// label l at iteration iter. Column k holds label j, the k-th label other
// than l in label-index order. Labels whose position in order precedes l's
// were already resampled during this sweep and are read at iter; the rest
// are read at iter-1.
//
// pos maps a label index to its position in the sweep order. With a single
// label there is nothing to condition on and Conditioning returns nil.
func Conditioning(traj *tensor.Binary, pos []int, iter, l int) *mat.Dense {
	n, L := traj.Dim(0), traj.Dim(1)
	if L == 1 {
		return nil
	}
	c := mat.NewDense(n, L-1, nil)
	writeConditioning(c, traj, pos, iter, l)
	return c
}

func writeConditioning(dst *mat.Dense, traj *tensor.Binary, pos []int, iter, l int) {
	n, L := traj.Dim(0), traj.Dim(1)
	col := 0
	for j := 0; j < L; j++ {
		if j == l {
			continue
		}
		src := iter - 1
		if pos[j] < pos[l] {
			src = iter
		}
		for i := 0; i < n; i++ {
			dst.Set(i, col, float64(traj.At(i, j, src)))
		}
		col++
	}
}
