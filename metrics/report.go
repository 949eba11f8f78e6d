package metrics

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/pugs/aggregate"
	"github.com/YuminosukeSato/pugs/ensemble"
	"github.com/YuminosukeSato/pugs/pkg/errors"
)

// Report は推論結果を正解と比較した評価指標の集まりです。
type Report struct {
	LogLoss         float64 // 確率集約から
	ExactMatchRatio float64 // 以下はクラス集約から
	LabellingFScore float64
	RetrievalFScore float64
	HammingLoss     float64
	BrierScore      float64 // 確率集約から

	// ExcludedInstances は LabellingFScore から除外された観測数
	ExcludedInstances int
	// ExcludedLabels は RetrievalFScore から除外されたラベル数
	ExcludedLabels int
}

// Evaluate は推論結果を確率モードとクラスモードの両方で集約し、正解行列 yTrue と比較する。
// yTrue の形状は (n × L) で結果と一致する必要がある。
func Evaluate(res *ensemble.Result, yTrue mat.Matrix) (*Report, error) {
	if res == nil {
		return nil, errors.WithStack(errors.ErrNilResult)
	}
	if res.Samples == nil || res.Samples.Rank() != 4 {
		return nil, errors.NewValueError("Evaluate", "result does not hold a 4-dimensional sample tensor")
	}
	if yTrue == nil {
		return nil, errors.NewValueError("Evaluate", "nil ground truth")
	}
	n, L := res.Samples.Dim(0), res.Samples.Dim(1)
	if r, c := yTrue.Dims(); r != n {
		return nil, errors.NewDimensionError("Evaluate", n, r, 0)
	} else if c != L {
		return nil, errors.NewDimensionError("Evaluate", L, c, 1)
	}

	proba, err := aggregate.Aggregate(res.Samples, res.Labels, aggregate.ModeProbability)
	if err != nil {
		return nil, err
	}
	class, err := aggregate.Aggregate(res.Samples, res.Labels, aggregate.ModeClass)
	if err != nil {
		return nil, err
	}

	r := &Report{}
	if r.LogLoss, err = LogLoss(yTrue, proba.Values); err != nil {
		return nil, err
	}
	if r.BrierScore, err = BrierScore(yTrue, proba.Values); err != nil {
		return nil, err
	}
	if r.ExactMatchRatio, err = ExactMatchRatio(yTrue, class.Values); err != nil {
		return nil, err
	}
	if r.LabellingFScore, r.ExcludedInstances, err = LabellingFScore(yTrue, class.Values); err != nil {
		return nil, err
	}
	if r.RetrievalFScore, r.ExcludedLabels, err = RetrievalFScore(yTrue, class.Values); err != nil {
		return nil, err
	}
	if r.HammingLoss, err = HammingLoss(yTrue, class.Values); err != nil {
		return nil, err
	}
	return r, nil
}

// MarshalZerologObject はzerologのイベントに評価指標を追加します。
func (r *Report) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("log_loss", r.LogLoss).
		Float64("exact_match_ratio", r.ExactMatchRatio).
		Float64("labelling_f_score", r.LabellingFScore).
		Float64("retrieval_f_score", r.RetrievalFScore).
		Float64("hamming_loss", r.HammingLoss).
		Float64("brier_score", r.BrierScore).
		Int("excluded_instances", r.ExcludedInstances).
		Int("excluded_labels", r.ExcludedLabels)
}

func (r *Report) String() string {
	return fmt.Sprintf("log loss %.4f, exact match %.4f, labelling F %.4f, retrieval F %.4f, hamming loss %.4f, brier %.4f",
		r.LogLoss, r.ExactMatchRatio, r.LabellingFScore, r.RetrievalFScore, r.HammingLoss, r.BrierScore)
}
