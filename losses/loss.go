package losses

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

const (
	DefaultAlpha = 5.0
	DefaultBeta  = 10.0
)

// Reduction collapses an unreduced loss tensor to a scalar.
type Reduction uint8

const (
	ReductionMean Reduction = iota
	ReductionSum
)

func (r Reduction) String() string {
	switch r {
	case ReductionMean:
		return "mean"
	case ReductionSum:
		return "sum"
	default:
		return fmt.Sprintf("Reduction(%d)", uint8(r))
	}
}

func ParseReduction(s string) (Reduction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean", "":
		return ReductionMean, nil
	case "sum":
		return ReductionSum, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownReduction, s)
	}
}

// Reduce returns the mean or sum of every element of t. The mean of an empty
// tensor is 0.
func Reduce(t tensor.Tensor, r Reduction) (float64, error) {
	data, err := float64s(t)
	if err != nil {
		return 0, fmt.Errorf("reduce: %w", err)
	}
	switch r {
	case ReductionSum:
		return floats.Sum(data), nil
	case ReductionMean:
		if len(data) == 0 {
			return 0, nil
		}
		return floats.Sum(data) / float64(len(data)), nil
	default:
		return 0, fmt.Errorf("reduce: %w: %v", ErrUnknownReduction, r)
	}
}

// Weights configures ComputeLoss. Start from DefaultWeights: the zero value
// has a zero NegativeRatio, which keeps no negatives, and a zero Sigma, which
// SmoothL1 rejects.
type Weights struct {
	Alpha              float64
	Beta               float64
	NegativeRatio      float64
	Sigma              float64
	ThresholdReduction Reduction
}

func DefaultWeights() Weights {
	return Weights{
		Alpha:              DefaultAlpha,
		Beta:               DefaultBeta,
		NegativeRatio:      DefaultNegativeRatio,
		Sigma:              DefaultSigma,
		ThresholdReduction: ReductionMean,
	}
}

// Total combines the three component losses.
func (w Weights) Total(binarize, threshold, threshBinary float64) float64 {
	return w.Alpha*binarize + w.Beta*threshold + threshBinary
}

// Inputs holds the model outputs and their ground truth, all [batch, height, width, 1].
type Inputs struct {
	BinarizeMap  tensor.Tensor // logits
	ThresholdMap tensor.Tensor
	ThreshBinary tensor.Tensor
	GTScore      tensor.Tensor
	GTThresh     tensor.Tensor
	GTScoreMask  tensor.Tensor
	GTThreshMask tensor.Tensor
}

type Breakdown struct {
	Binarize     float64
	Threshold    float64
	ThreshBinary float64
	Total        float64
}

// ComputeLoss returns Alpha*BalanceBCE + Beta*SmoothL1 + Dice, with the
// smooth-L1 map reduced by w.ThresholdReduction.
func ComputeLoss(in Inputs, w Weights) (Breakdown, error) {
	var b Breakdown
	var err error

	b.Binarize, err = BalanceBCE(in.GTScore, in.BinarizeMap, in.GTScoreMask, WithNegativeRatio(w.NegativeRatio))
	if err != nil {
		return Breakdown{}, fmt.Errorf("binarize loss: %w", err)
	}

	thresholdMap, err := SmoothL1(in.ThresholdMap, in.GTThresh, in.GTThreshMask, w.Sigma)
	if err != nil {
		return Breakdown{}, fmt.Errorf("threshold loss: %w", err)
	}
	b.Threshold, err = Reduce(thresholdMap, w.ThresholdReduction)
	if err != nil {
		return Breakdown{}, fmt.Errorf("threshold loss: %w", err)
	}

	b.ThreshBinary, err = Dice(in.GTScore, in.ThreshBinary, in.GTScoreMask)
	if err != nil {
		return Breakdown{}, fmt.Errorf("thresh binary loss: %w", err)
	}

	b.Total = w.Total(b.Binarize, b.Threshold, b.ThreshBinary)
	return b, nil
}
