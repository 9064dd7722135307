package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"dbloss/config"
	"dbloss/losses"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

var Version = "0.1.0"

type mapFlags struct {
	binarize     string
	threshold    string
	threshBinary string
	gtScore      string
	gtThresh     string
	scoreMask    string
	threshMask   string
	residual     string
}

func (f *mapFlags) paths() []string {
	return []string{f.binarize, f.threshold, f.threshBinary, f.gtScore, f.gtThresh, f.scoreMask, f.threshMask}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

func runEval(out io.Writer, configPath string, f *mapFlags) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	weights, err := cfg.Train.Weights()
	if err != nil {
		return err
	}

	maps, err := loadMaps(f.paths()...)
	if err != nil {
		return err
	}
	// PNG maps hold probabilities; the balanced cross-entropy expects logits.
	toLogits(maps[0], losses.Sigmoid{})

	in := losses.Inputs{
		BinarizeMap:  maps[0],
		ThresholdMap: maps[1],
		ThreshBinary: maps[2],
		GTScore:      maps[3],
		GTThresh:     maps[4],
		GTScoreMask:  maps[5],
		GTThreshMask: maps[6],
	}
	slog.Debug("computing loss", "shape", fmt.Sprint(maps[0].Shape()), "alpha", weights.Alpha, "beta", weights.Beta)

	b, err := losses.ComputeLoss(in, weights)
	if err != nil {
		return err
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintln(out, "loss breakdown")
	fmt.Fprintf(out, "  binarize (balanced bce)  %.6f  x %g\n", b.Binarize, weights.Alpha)
	fmt.Fprintf(out, "  threshold (smooth l1)    %.6f  x %g (%s)\n", b.Threshold, weights.Beta, weights.ThresholdReduction)
	fmt.Fprintf(out, "  thresh binary (dice)     %.6f\n", b.ThreshBinary)
	header.Fprintf(out, "  total                    %.6f\n", b.Total)

	if f.residual == "" {
		return nil
	}
	residual, err := losses.SmoothL1(in.ThresholdMap, in.GTThresh, in.GTThreshMask, weights.Sigma)
	if err != nil {
		return err
	}
	scale := floats.Max(residual.Data().([]float64))
	if err := saveMap(residual, scale, f.residual); err != nil {
		return err
	}
	slog.Info("wrote threshold residual", "path", f.residual, "max", scale)
	return nil
}

func runConfig(out io.Writer, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:           "dbloss",
		Short:         "Evaluate text detection losses on score and threshold maps",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := initLogger(cmd.ErrOrStderr(), logLevel)
			losses.SetRecorder(losses.SlogRecorder{Logger: logger})
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to TOML config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	f := &mapFlags{}
	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "Compute the combined loss from PNG maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd.OutOrStdout(), configPath, f)
		},
	}
	flags := evalCmd.Flags()
	flags.StringVar(&f.binarize, "binarize", "", "Predicted probability map")
	flags.StringVar(&f.threshold, "threshold", "", "Predicted threshold map")
	flags.StringVar(&f.threshBinary, "thresh-binary", "", "Predicted approximate binary map")
	flags.StringVar(&f.gtScore, "gt-score", "", "Ground truth score map")
	flags.StringVar(&f.gtThresh, "gt-thresh", "", "Ground truth threshold map")
	flags.StringVar(&f.scoreMask, "score-mask", "", "Training mask for the score maps")
	flags.StringVar(&f.threshMask, "thresh-mask", "", "Training mask for the threshold map")
	flags.StringVar(&f.residual, "residual", "", "Write the per-pixel smooth L1 map to this PNG")
	for _, name := range []string{"binarize", "threshold", "thresh-binary", "gt-score", "gt-thresh", "score-mask", "thresh-mask"} {
		_ = evalCmd.MarkFlagRequired(name)
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd.OutOrStdout(), configPath)
		},
	}

	rootCmd.AddCommand(evalCmd, configCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
