package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/David-Botos/sales-etl/pkg/extract"
	"github.com/David-Botos/sales-etl/pkg/pipeline"
	"github.com/David-Botos/sales-etl/pkg/storage"
)

var (
	cleanInput     string
	cleanOutputDir string
	cleanLogLevel  string
)

// cleanCmd is the offline clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "clean and model a local CSV without touching the network",
	Long: `Clean and model a raw sales CSV and write the customers, products, stores,
sales and raw archive files under the output directory, using the same layout
as the staging bucket. No loader is triggered.`,
	Example: `  $ sales-etl clean --input raw.csv --output-dir out`,
	Args:    cobra.NoArgs,
	RunE:    runClean,
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanInput, "input", "i", "", "raw sales CSV")
	cleanCmd.Flags().StringVarP(&cleanOutputDir, "output-dir", "o", "out", "directory to write the tables to")
	cleanCmd.Flags().StringVar(&cleanLogLevel, "log-level", "info", "log level")
	_ = cleanCmd.MarkFlagRequired("input")

	cleanCmd.SilenceUsage = true
}

func runClean(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cleanLogLevel, "console")
	if err != nil {
		return err
	}
	defer logger.Sync()

	p, err := pipeline.New(pipeline.Components{
		Source: extract.NewFileSource(cleanInput, logger),
		Store:  storage.NewLocalStore(cleanOutputDir, logger),
	}, pipeline.Settings{}, logger)
	if err != nil {
		return err
	}

	result := p.Run(context.Background())
	fmt.Fprint(cmd.OutOrStdout(), result.Summary())
	if !result.Success {
		return fmt.Errorf("clean failed: %w", result.Err)
	}
	return nil
}
