package losses

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// logitClamp keeps Inverse finite for probabilities of exactly 0 or 1.
const logitClamp = 1e-7

type Sigmoid struct{}

func (s Sigmoid) Activate(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func (s Sigmoid) Derivative(x float64) float64 {
	sigmoid := s.Activate(x)
	return sigmoid * (1 - sigmoid)
}

// Inverse maps a probability back to a logit.
func (s Sigmoid) Inverse(p float64) float64 {
	p = math.Min(math.Max(p, logitClamp), 1-logitClamp)
	return math.Log(p / (1 - p))
}

// SigmoidCrossEntropyWithLogits returns -z*log(sigmoid(x)) - (1-z)*log(1-sigmoid(x))
// computed as max(x, 0) - x*z + log(1 + exp(-|x|)).
func SigmoidCrossEntropyWithLogits(label, logit float64) float64 {
	return math.Max(logit, 0) - logit*label + math.Log1p(math.Exp(-math.Abs(logit)))
}

// SoftmaxCrossEntropyWithLogits returns -sum(labels * logSoftmax(logits)) for one row.
func SoftmaxCrossEntropyWithLogits(labels, logits []float64) float64 {
	lse := floats.LogSumExp(logits)
	var loss float64
	for i, z := range labels {
		loss -= z * (logits[i] - lse)
	}
	return loss
}
