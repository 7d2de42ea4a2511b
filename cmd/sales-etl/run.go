package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/David-Botos/sales-etl/pkg/pipeline"
)

var (
	runSource    string
	runInput     string
	runCount     int
	runOutputDir string
	runLoader    string
)

// runCmd is the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the full pipeline once",
	Long: `Run the pipeline once: extract, clean, model, verify, stage and trigger the loader.

The run is all or nothing. A summary is printed either way and the command
exits non-zero on failure.`,
	Example: `  $ sales-etl run
  $ sales-etl run --count 1000 --loader postgres
  $ sales-etl run --source file --input raw.csv --output-dir out --loader none`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runSource, "source", "", "extraction source: mockaroo, file or snowflake")
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "CSV file for the file source")
	runCmd.Flags().IntVarP(&runCount, "count", "n", 0, "rows to request from the data API")
	runCmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "stage to this directory instead of S3")
	runCmd.Flags().StringVar(&runLoader, "loader", "", "downstream loader: lambda, postgres or none")

	// Silence usage to avoid showing help on every error
	runCmd.SilenceUsage = true
}

// applyRunFlags overrides environment settings with the flags that were set
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = runSource
	}
	if flags.Changed("input") {
		cfg.SourceFile = runInput
		if !flags.Changed("source") {
			cfg.Source = config.SourceFile
		}
	}
	if flags.Changed("count") {
		cfg.Mockaroo.RowCount = runCount
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = runOutputDir
	}
	if flags.Changed("loader") {
		cfg.Loader.Mode = runLoader
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Finalize(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Configuration loaded", zap.Any("config", cfg.Redacted()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, closeAll, err := pipeline.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeAll(); err != nil {
			logger.Warn("Failed to close connections", zap.Error(err))
		}
	}()

	result := p.Run(ctx)
	fmt.Fprint(cmd.OutOrStdout(), result.Summary())
	if !result.Success {
		return fmt.Errorf("run %s failed: %w", result.RunID, result.Err)
	}
	return nil
}
