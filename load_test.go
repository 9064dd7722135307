package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func grid(h, w int, values ...float64) *tensor.Dense {
	return tensor.New(tensor.WithShape(1, h, w, 1), tensor.WithBacking(values))
}

func writeMap(t *testing.T, dir, name string, h, w int, values ...float64) string {
	t.Helper()
	path := filepath.Join(dir, name+".png")
	require.NoError(t, saveMap(grid(h, w, values...), 1, path))
	return path
}

func TestSaveLoadMapRoundTrip(t *testing.T) {
	path := writeMap(t, t.TempDir(), "map", 2, 3, 0, 0.25, 0.5, 0.75, 1, 0.1)

	m, err := loadMap(path)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 3, 1}, m.Shape())
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 0.75, 1, 0.1}, m.Data().([]float64), 1e-4)
}

func TestSaveMapScalesAndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaled.png")
	require.NoError(t, saveMap(grid(1, 3, -1, 2, 8), 4, path))

	m, err := loadMap(path)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, m.Data().([]float64), 1e-4)
}

func TestSaveMapRejectsMultiChannel(t *testing.T) {
	m := tensor.New(tensor.WithShape(1, 1, 1, 2), tensor.WithBacking([]float64{0, 1}))
	assert.Error(t, saveMap(m, 1, filepath.Join(t.TempDir(), "bad.png")))
}

func TestLoadMapsSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	a := writeMap(t, dir, "a", 1, 2, 0, 1)
	b := writeMap(t, dir, "b", 2, 1, 0, 1)

	_, err := loadMaps(a, b)
	assert.ErrorIs(t, err, errSizeMismatch)
}

func TestLoadMapMissingFile(t *testing.T) {
	_, err := loadMap(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
