package losses

import (
	"fmt"
	"math"

	"gorgonia.org/tensor"
)

const DefaultSigma = 1.0

// SmoothL1 returns the elementwise smooth-L1 loss of pred*mask against gt:
// 0.5*sigma²*diff² where |diff| < 1/sigma², |diff| - 0.5/sigma² elsewhere.
// The result has the shape of pred and is not reduced.
func SmoothL1(pred, gt, mask tensor.Tensor, sigma float64) (*tensor.Dense, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("smooth l1: %w: %v", ErrInvalidSigma, sigma)
	}
	if err := checkShapes(pred, gt, mask); err != nil {
		return nil, fmt.Errorf("smooth l1: %w", err)
	}
	sigma2 := sigma * sigma
	breakpoint := 1 / sigma2

	masked, err := mul(pred, mask)
	if err != nil {
		return nil, fmt.Errorf("smooth l1: %w", err)
	}
	diff, err := tensor.Sub(masked, gt)
	if err != nil {
		return nil, fmt.Errorf("smooth l1: sub: %w", err)
	}
	absDiff, err := tensor.Abs(diff)
	if err != nil {
		return nil, fmt.Errorf("smooth l1: abs: %w", err)
	}

	inner, err := tensor.Lt(absDiff, breakpoint, tensor.AsSameType())
	if err != nil {
		return nil, fmt.Errorf("smooth l1: lt: %w", err)
	}
	outer, err := tensor.Gte(absDiff, breakpoint, tensor.AsSameType())
	if err != nil {
		return nil, fmt.Errorf("smooth l1: gte: %w", err)
	}

	squared, err := tensor.Square(diff)
	if err != nil {
		return nil, fmt.Errorf("smooth l1: square: %w", err)
	}
	quadratic, err := tensor.Mul(squared, sigma2/2)
	if err != nil {
		return nil, fmt.Errorf("smooth l1: %w", err)
	}
	if quadratic, err = mul(quadratic, inner); err != nil {
		return nil, fmt.Errorf("smooth l1: %w", err)
	}

	linear, err := tensor.Sub(absDiff, 0.5/sigma2)
	if err != nil {
		return nil, fmt.Errorf("smooth l1: sub: %w", err)
	}
	if linear, err = mul(linear, outer); err != nil {
		return nil, fmt.Errorf("smooth l1: %w", err)
	}

	loss, err := tensor.Add(quadratic, linear)
	if err != nil {
		return nil, fmt.Errorf("smooth l1: add: %w", err)
	}
	dense, ok := loss.(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("smooth l1: %w: result is %T", ErrDtype, loss)
	}
	return dense, nil
}
