package losses

import (
	"log/slog"
	"sync"
)

// DiceMetric is the name Dice reports its value under.
const DiceMetric = "classification_dice_loss"

// Recorder receives scalar values for monitoring. It has no effect on the
// computed losses.
type Recorder interface {
	Scalar(name string, value float64)
}

// SlogRecorder writes scalars to a slog logger at debug level.
type SlogRecorder struct {
	Logger *slog.Logger
}

func (r SlogRecorder) Scalar(name string, value float64) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("scalar", "name", name, "value", value)
}

type NopRecorder struct{}

func (NopRecorder) Scalar(string, float64) {}

var (
	recorderMu sync.RWMutex
	recorder   Recorder = SlogRecorder{}
)

// SetRecorder replaces the package recorder and returns the previous one.
// A nil r installs NopRecorder.
func SetRecorder(r Recorder) Recorder {
	if r == nil {
		r = NopRecorder{}
	}
	recorderMu.Lock()
	defer recorderMu.Unlock()
	prev := recorder
	recorder = r
	return prev
}

func record(name string, value float64) {
	recorderMu.RLock()
	r := recorder
	recorderMu.RUnlock()
	r.Scalar(name, value)
}
