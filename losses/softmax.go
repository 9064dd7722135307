package losses

import (
	"fmt"

	"gorgonia.org/tensor"
)

// SoftmaxCrossEntropy returns the mean softmax cross-entropy of the logits
// yPred against the one-hot yTrue, both shaped [..., classes]. mask is shaped
// [..., 1] or [...]. Masked-out pixels are rewritten to class 0 on both sides,
// so their contribution does not depend on their values.
func SoftmaxCrossEntropy(yTrue, yPred, mask tensor.Tensor) (float64, error) {
	if err := checkShapes(yTrue, yPred); err != nil {
		return 0, fmt.Errorf("softmax cross entropy: %w", err)
	}
	shape := yTrue.Shape()
	axis := shape.Dims() - 1
	if axis < 0 || shape[axis] == 0 {
		return 0, fmt.Errorf("softmax cross entropy: %w", ErrNoChannels)
	}
	classes := shape[axis]

	pixelMask, err := channelMask(mask, shape)
	if err != nil {
		return 0, fmt.Errorf("softmax cross entropy: %w", err)
	}
	reMask, err := complement(pixelMask)
	if err != nil {
		return 0, fmt.Errorf("softmax cross entropy: %w", err)
	}

	addParts := make([]tensor.Tensor, 0, classes-1)
	maskParts := make([]tensor.Tensor, 0, classes-1)
	for i := 1; i < classes; i++ {
		addParts = append(addParts, tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(pixelMask.Shape().Clone()...)))
		maskParts = append(maskParts, pixelMask)
	}
	addMask, err := concat(axis, reMask, addParts)
	if err != nil {
		return 0, fmt.Errorf("softmax cross entropy: %w", err)
	}
	fullMask, err := concat(axis, pixelMask, maskParts)
	if err != nil {
		return 0, fmt.Errorf("softmax cross entropy: %w", err)
	}

	labels, err := maskedPlus(yTrue, fullMask, addMask)
	if err != nil {
		return 0, fmt.Errorf("softmax cross entropy: %w", err)
	}
	logits, err := maskedPlus(yPred, fullMask, addMask)
	if err != nil {
		return 0, fmt.Errorf("softmax cross entropy: %w", err)
	}

	rows := len(labels) / classes
	if rows == 0 {
		return 0, nil
	}
	var total float64
	for r := 0; r < rows; r++ {
		lo, hi := r*classes, (r+1)*classes
		total += SoftmaxCrossEntropyWithLogits(labels[lo:hi], logits[lo:hi])
	}
	return total / float64(rows), nil
}

// channelMask returns mask reshaped to shape with the channel axis set to 1.
func channelMask(mask tensor.Tensor, shape tensor.Shape) (tensor.Tensor, error) {
	want := shape.Clone()
	want[len(want)-1] = 1
	spatial := tensor.Shape(want[:len(want)-1])
	if !mask.Shape().Eq(want) && !mask.Shape().Eq(spatial) {
		return nil, fmt.Errorf("%w: mask %v for %v", ErrShapeMismatch, mask.Shape(), shape)
	}
	m, ok := mask.Clone().(tensor.Tensor)
	if !ok {
		return nil, fmt.Errorf("%w: cannot clone %T", ErrDtype, mask)
	}
	if err := m.Reshape(want...); err != nil {
		return nil, fmt.Errorf("reshape mask: %w", err)
	}
	return m, nil
}

func concat(axis int, first tensor.Tensor, rest []tensor.Tensor) (tensor.Tensor, error) {
	if len(rest) == 0 {
		return first, nil
	}
	out, err := tensor.Concat(axis, first, rest...)
	if err != nil {
		return nil, fmt.Errorf("concat: %w", err)
	}
	return out, nil
}

// maskedPlus returns the flat data of t*mask + add.
func maskedPlus(t, mask, add tensor.Tensor) ([]float64, error) {
	masked, err := mul(t, mask)
	if err != nil {
		return nil, err
	}
	out, err := tensor.Add(masked, add)
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	return float64s(out)
}
