package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"gorgonia.org/tensor"
)

var errSizeMismatch = errors.New("map size mismatch")

// loadMap reads a grayscale PNG into a [1, H, W, 1] tensor scaled to [0, 1].
func loadMap(filePath string) (*tensor.Dense, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filePath, err)
	}

	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	norm := make([]float64, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			norm[y*w+x] = float64(g.Y) / math.MaxUint16
		}
	}
	return tensor.New(tensor.WithShape(1, h, w, 1), tensor.WithBacking(norm)), nil
}

// loadMaps loads every path and checks they share one size.
func loadMaps(paths ...string) ([]*tensor.Dense, error) {
	maps := make([]*tensor.Dense, 0, len(paths))
	for _, p := range paths {
		m, err := loadMap(p)
		if err != nil {
			return nil, err
		}
		if len(maps) > 0 && !maps[0].Shape().Eq(m.Shape()) {
			return nil, fmt.Errorf("%w: %s is %v, %s is %v", errSizeMismatch, paths[0], maps[0].Shape(), p, m.Shape())
		}
		maps = append(maps, m)
	}
	return maps, nil
}

// toLogits converts a probability map into logits in place.
func toLogits(t *tensor.Dense, s interface{ Inverse(float64) float64 }) {
	data := t.Data().([]float64)
	for i, p := range data {
		data[i] = s.Inverse(p)
	}
}

// saveMap writes the first image of a [N, H, W, 1] tensor as a grayscale PNG,
// dividing by scale and clamping to [0, 1].
func saveMap(t *tensor.Dense, scale float64, filePath string) error {
	shape := t.Shape()
	if shape.Dims() != 4 || shape[3] != 1 {
		return fmt.Errorf("saving %s: want [N, H, W, 1], got %v", filePath, shape)
	}
	if scale <= 0 {
		scale = 1
	}
	h, w := shape[1], shape[2]
	data := t.Data().([]float64)

	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := math.Min(math.Max(data[y*w+x]/scale, 0), 1)
			img.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(v * math.MaxUint16))})
		}
	}

	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", filePath, err)
	}
	return file.Close()
}
