package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"dbloss/losses"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

const (
	appName  = "dbloss"
	fileName = "config.toml"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Train TrainConfig `toml:"train"`
}

type TrainConfig struct {
	LossAlpha          float64 `toml:"loss_alpha"`
	LossBeta           float64 `toml:"loss_beta"`
	NegativeRatio      float64 `toml:"negative_ratio"`
	Sigma              float64 `toml:"sigma"`
	ThresholdReduction string  `toml:"threshold_reduction"` // "mean" or "sum"
}

func NewDefaultConfig() *Config {
	w := losses.DefaultWeights()
	return &Config{
		Train: TrainConfig{
			LossAlpha:          w.Alpha,
			LossBeta:           w.Beta,
			NegativeRatio:      w.NegativeRatio,
			Sigma:              w.Sigma,
			ThresholdReduction: w.ThresholdReduction.String(),
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/dbloss/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, fileName)
}

// LoadConfigFromFile decodes path over the defaults. A missing file yields
// the defaults.
func LoadConfigFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	meta, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}
	if _, err := config.Train.Weights(); err != nil {
		return nil, err
	}

	return config, nil
}

// Weights validates the training section and converts it for losses.ComputeLoss.
func (c TrainConfig) Weights() (losses.Weights, error) {
	reduction, err := losses.ParseReduction(c.ThresholdReduction)
	if err != nil {
		return losses.Weights{}, fmt.Errorf("%w: threshold_reduction: %w", ErrInvalidConfig, err)
	}
	if !finite(c.Sigma) || c.Sigma <= 0 {
		return losses.Weights{}, fmt.Errorf("%w: sigma must be positive, got %v", ErrInvalidConfig, c.Sigma)
	}
	if !finite(c.NegativeRatio) || c.NegativeRatio < 0 {
		return losses.Weights{}, fmt.Errorf("%w: negative_ratio must not be negative, got %v", ErrInvalidConfig, c.NegativeRatio)
	}
	for key, v := range map[string]float64{"loss_alpha": c.LossAlpha, "loss_beta": c.LossBeta} {
		if !finite(v) || v < 0 {
			return losses.Weights{}, fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidConfig, key, v)
		}
	}
	return losses.Weights{
		Alpha:              c.LossAlpha,
		Beta:               c.LossBeta,
		NegativeRatio:      c.NegativeRatio,
		Sigma:              c.Sigma,
		ThresholdReduction: reduction,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Encode returns c as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode TOML config: %w", err)
	}
	return buf.Bytes(), nil
}
