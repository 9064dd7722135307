package losses

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"
)

// float64s returns the flat backing data of t.
func float64s(t tensor.Tensor) ([]float64, error) {
	if t.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("%w: %v, want float64", ErrDtype, t.Dtype())
	}
	switch d := t.Data().(type) {
	case []float64:
		if len(d) != t.Shape().TotalSize() {
			return nil, fmt.Errorf("%w: backing has %d elements for shape %v", ErrShapeMismatch, len(d), t.Shape())
		}
		return d, nil
	case float64:
		return []float64{d}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected backing %T", ErrDtype, d)
	}
}

func checkShapes(first tensor.Tensor, rest ...tensor.Tensor) error {
	for _, t := range rest {
		if !first.Shape().Eq(t.Shape()) {
			return fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, first.Shape(), t.Shape())
		}
	}
	return nil
}

func sum(t tensor.Tensor) (float64, error) {
	data, err := float64s(t)
	if err != nil {
		return 0, err
	}
	return floats.Sum(data), nil
}

func mul(a, b tensor.Tensor) (tensor.Tensor, error) {
	out, err := tensor.Mul(a, b)
	if err != nil {
		return nil, fmt.Errorf("mul: %w", err)
	}
	return out, nil
}

// complement returns 1 - t.
func complement(t tensor.Tensor) (tensor.Tensor, error) {
	ones := tensor.Ones(tensor.Float64, t.Shape().Clone()...)
	out, err := tensor.Sub(ones, t)
	if err != nil {
		return nil, fmt.Errorf("complement: %w", err)
	}
	return out, nil
}

func fromSlice(shape tensor.Shape, data []float64) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape.Clone()...), tensor.WithBacking(data))
}
