package losses

import (
	"gorgonia.org/tensor"
)

func dense(shape []int, data ...float64) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
}

func filled(shape []int, v float64) *tensor.Dense {
	size := 1
	for _, d := range shape {
		size *= d
	}
	data := make([]float64, size)
	for i := range data {
		data[i] = v
	}
	return dense(shape, data...)
}

type captureRecorder struct {
	names  []string
	values []float64
}

func (c *captureRecorder) Scalar(name string, value float64) {
	c.names = append(c.names, name)
	c.values = append(c.values, value)
}
