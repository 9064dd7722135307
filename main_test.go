package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"dbloss/losses"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEvalMaps(t *testing.T, dir string) []string {
	t.Helper()
	return []string{
		"--binarize", writeMap(t, dir, "binarize", 2, 2, 0.9, 0.2, 0.1, 0.6),
		"--threshold", writeMap(t, dir, "threshold", 2, 2, 0.5, 0.3, 0.3, 0.7),
		"--thresh-binary", writeMap(t, dir, "thresh_binary", 2, 2, 0.9, 0.1, 0.2, 0.6),
		"--gt-score", writeMap(t, dir, "gt_score", 2, 2, 1, 0, 0, 1),
		"--gt-thresh", writeMap(t, dir, "gt_thresh", 2, 2, 0.5, 0.3, 0.4, 0.2),
		"--score-mask", writeMap(t, dir, "score_mask", 2, 2, 1, 1, 1, 1),
		"--thresh-mask", writeMap(t, dir, "thresh_mask", 2, 2, 1, 1, 1, 0),
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { losses.SetRecorder(nil) })
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEvalCommand(t *testing.T) {
	dir := t.TempDir()
	residual := filepath.Join(dir, "residual.png")
	args := append([]string{"eval", "--config", filepath.Join(dir, "none.toml"), "--residual", residual}, writeEvalMaps(t, dir)...)

	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "loss breakdown")
	assert.Contains(t, out, "binarize (balanced bce)")
	assert.Contains(t, out, "total")

	info, err := os.Stat(residual)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestEvalCommandUsesConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[train]\nloss_alpha = 0.0\nthreshold_reduction = \"sum\"\n"), 0o644))

	out, err := execute(t, append([]string{"eval", "--config", cfg}, writeEvalMaps(t, dir)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "x 0\n")
	assert.Contains(t, out, "(sum)")
}

func TestEvalCommandRequiresMaps(t *testing.T) {
	_, err := execute(t, "eval", "--config", filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err)
}

func TestEvalCommandBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[train]\nsigma = -2.0\n"), 0o644))

	_, err := execute(t, append([]string{"eval", "--config", cfg}, writeEvalMaps(t, dir)...)...)
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config", "--config", filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Contains(t, out, "[train]")
	assert.Contains(t, out, "loss_beta = 10.0")
	assert.Contains(t, out, `threshold_reduction = "mean"`)
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil))) })

	var buf bytes.Buffer
	logger := initLogger(&buf, "DEBUG")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Empty(t, buf.String())

	buf.Reset()
	logger = initLogger(&buf, "loud")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.Contains(t, buf.String(), "unknown log level")
}
