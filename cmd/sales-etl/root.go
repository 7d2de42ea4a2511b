package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// rootCmd is the root command
var rootCmd = &cobra.Command{
	Use:     "sales-etl",
	Short:   "Extract, clean, model and stage sales transactions",
	Version: version,
	Long: `sales-etl pulls raw sales transactions, repairs missing values, splits them
into customers, products, stores and sales tables, stages the tables plus the raw
archive in object storage and triggers the downstream loader.

Configuration is read from the environment and an optional .env file.`,
	Example: `  # Full run against the data API, staging to S3 and invoking the loader
  $ sales-etl run

  # Run from a local file, staging to a directory and skipping the loader
  $ sales-etl run --source file --input raw.csv --output-dir out --loader none

  # Clean a file offline
  $ sales-etl clean --input raw.csv --output-dir out`,
	SilenceErrors: true,
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), formatVersion())
	},
}

// Execute executes the root command
func Execute() error {
	rootCmd.SetVersionTemplate(formatVersion() + "\n")
	return rootCmd.Execute()
}

func init() {
	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)
}

func formatVersion() string {
	return fmt.Sprintf("sales-etl version %s", version)
}
