package losses

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

const (
	DefaultNegativeRatio  = 3.0
	DefaultBalanceEpsilon = 1e-6
)

type balanceOptions struct {
	negativeRatio float64
	eps           float64
}

type BalanceOption func(*balanceOptions)

// WithNegativeRatio caps the mined negatives at ratio times the positives.
func WithNegativeRatio(ratio float64) BalanceOption {
	return func(o *balanceOptions) { o.negativeRatio = ratio }
}

// WithEpsilon sets the normalizer smoothing. It must be positive so an
// all-zero mask still yields 0.
func WithEpsilon(eps float64) BalanceOption {
	return func(o *balanceOptions) { o.eps = eps }
}

// BalanceBCE returns the sigmoid cross-entropy of the logits pred against gt
// over mask, keeping every positive pixel and only the hardest negatives.
// At most floor(positives*ratio) negatives are kept.
func BalanceBCE(gt, pred, mask tensor.Tensor, opts ...BalanceOption) (float64, error) {
	o := balanceOptions{negativeRatio: DefaultNegativeRatio, eps: DefaultBalanceEpsilon}
	for _, opt := range opts {
		opt(&o)
	}
	if math.IsNaN(o.negativeRatio) || math.IsInf(o.negativeRatio, 0) || o.negativeRatio < 0 {
		return 0, fmt.Errorf("balance bce: %w: negative ratio %v", ErrInvalidOption, o.negativeRatio)
	}
	if !(o.eps > 0) || math.IsInf(o.eps, 0) {
		return 0, fmt.Errorf("balance bce: %w: epsilon %v", ErrInvalidOption, o.eps)
	}
	if err := checkShapes(gt, pred, mask); err != nil {
		return 0, fmt.Errorf("balance bce: %w", err)
	}

	positive, err := mul(gt, mask)
	if err != nil {
		return 0, fmt.Errorf("balance bce: %w", err)
	}
	background, err := complement(gt)
	if err != nil {
		return 0, fmt.Errorf("balance bce: %w", err)
	}
	negative, err := mul(background, mask)
	if err != nil {
		return 0, fmt.Errorf("balance bce: %w", err)
	}

	positiveCount, err := sum(positive)
	if err != nil {
		return 0, fmt.Errorf("balance bce: %w", err)
	}
	negativeAvailable, err := sum(negative)
	if err != nil {
		return 0, fmt.Errorf("balance bce: %w", err)
	}
	negativeCount := int(math.Min(negativeAvailable, math.Floor(positiveCount*o.negativeRatio)))
	if negativeCount < 0 {
		negativeCount = 0
	}

	crossEntropy, err := sigmoidCrossEntropy(gt, pred)
	if err != nil {
		return 0, fmt.Errorf("balance bce: %w", err)
	}
	positiveLoss, err := mul(crossEntropy, positive)
	if err != nil {
		return 0, fmt.Errorf("balance bce: %w", err)
	}
	negativeLoss, err := mul(crossEntropy, negative)
	if err != nil {
		return 0, fmt.Errorf("balance bce: %w", err)
	}

	positiveSum, err := sum(positiveLoss)
	if err != nil {
		return 0, fmt.Errorf("balance bce: %w", err)
	}
	negatives, err := float64s(negativeLoss)
	if err != nil {
		return 0, fmt.Errorf("balance bce: %w", err)
	}
	hardSum := floats.Sum(topK(negatives, negativeCount))

	return (positiveSum + hardSum) / (positiveCount + float64(negativeCount) + o.eps), nil
}

func sigmoidCrossEntropy(labels, logits tensor.Tensor) (*tensor.Dense, error) {
	z, err := float64s(labels)
	if err != nil {
		return nil, err
	}
	x, err := float64s(logits)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i := range x {
		out[i] = SigmoidCrossEntropyWithLogits(z[i], x[i])
	}
	return fromSlice(logits.Shape(), out), nil
}

// topK returns the k largest values of s in descending order. s is not modified.
func topK(s []float64, k int) []float64 {
	if k <= 0 {
		return nil
	}
	if k > len(s) {
		k = len(s)
	}
	sorted := make([]float64, len(s))
	copy(sorted, s)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return sorted[:k]
}
