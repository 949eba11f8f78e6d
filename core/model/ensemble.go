package model

import (
	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// Chain is one ensemble member: one handle per label, in label-index order.
type Chain []ModelHandle

// Ensemble is an ordered collection of classifier chains. It is owned by the
// caller and only read during inference.
type Ensemble struct {
	Members []Chain
}

// NewEnsemble builds an Ensemble from member chains.
func NewEnsemble(members ...Chain) *Ensemble {
	return &Ensemble{Members: members}
}

// Size returns the number of members.
func (e *Ensemble) Size() int {
	if e == nil {
		return 0
	}
	return len(e.Members)
}

// Validate checks that the ensemble is non-empty and every member holds
// exactly nLabels handles.
func (e *Ensemble) Validate(nLabels int) error {
	if e.Size() == 0 {
		return errors.NewModelError("Ensemble.Validate", "empty ensemble", errors.ErrEmptyData)
	}
	for i, chain := range e.Members {
		if len(chain) != nLabels {
			return errors.Wrapf(errors.NewDimensionError("Ensemble.Validate", nLabels, len(chain), 1),
				"member %d", i)
		}
	}
	return nil
}

// LabelSet is the ordered list of label names carried from training to every
// downstream result.
type LabelSet []string

// Len returns the number of labels.
func (s LabelSet) Len() int { return len(s) }

// Index returns the position of name, or -1.
func (s LabelSet) Index(name string) int {
	for i, n := range s {
		if n == name {
			return i
		}
	}
	return -1
}

// Validate rejects empty sets, empty names and duplicates.
func (s LabelSet) Validate() error {
	if len(s) == 0 {
		return errors.NewValidationError("labels", "at least one label is required", 0)
	}
	seen := make(map[string]struct{}, len(s))
	for _, n := range s {
		if n == "" {
			return errors.NewValidationError("labels", "label names must be non-empty", n)
		}
		if _, dup := seen[n]; dup {
			return errors.NewValidationError("labels", "duplicate label name", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// ChainColumns returns the column names of the augmented matrix passed to the
// predictor for label l: the feature names followed by every other label name
// in label-index order.
func ChainColumns(features []string, labels LabelSet, l int) []string {
	cols := make([]string, 0, len(features)+len(labels)-1)
	cols = append(cols, features...)
	for j, name := range labels {
		if j != l {
			cols = append(cols, name)
		}
	}
	return cols
}
