package losses

import (
	"fmt"

	"gorgonia.org/tensor"
)

const diceEpsilon = 1e-5

// Dice returns the soft dice loss 1 - 2|A∩B|/(|A|+|B|) of yTrue and yPred
// restricted to mask. The result lies in [0, 1] and is reported to the
// package Recorder as DiceMetric.
func Dice(yTrue, yPred, mask tensor.Tensor) (float64, error) {
	if err := checkShapes(yTrue, yPred, mask); err != nil {
		return 0, fmt.Errorf("dice: %w", err)
	}

	trueMasked, err := mul(yTrue, mask)
	if err != nil {
		return 0, fmt.Errorf("dice: %w", err)
	}
	predMasked, err := mul(yPred, mask)
	if err != nil {
		return 0, fmt.Errorf("dice: %w", err)
	}
	overlap, err := mul(trueMasked, yPred)
	if err != nil {
		return 0, fmt.Errorf("dice: %w", err)
	}

	intersection, err := sum(overlap)
	if err != nil {
		return 0, fmt.Errorf("dice: %w", err)
	}
	trueSum, err := sum(trueMasked)
	if err != nil {
		return 0, fmt.Errorf("dice: %w", err)
	}
	predSum, err := sum(predMasked)
	if err != nil {
		return 0, fmt.Errorf("dice: %w", err)
	}

	union := trueSum + predSum + diceEpsilon
	loss := 1 - 2*intersection/union
	record(DiceMetric, loss)
	return loss, nil
}
