package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/sales-etl/pkg/config"
)

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger("loud", "json")
	assert.Error(t, err)

	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}

func TestApplyRunFlags(t *testing.T) {
	cfg := &config.Config{Source: config.SourceMockaroo, Loader: config.LoaderConfig{Mode: config.LoaderLambda}}
	require.NoError(t, runCmd.Flags().Parse([]string{"--input", "raw.csv", "--loader", "none", "-o", "out"}))
	applyRunFlags(runCmd, cfg)

	assert.Equal(t, config.SourceFile, cfg.Source)
	assert.Equal(t, "raw.csv", cfg.SourceFile)
	assert.Equal(t, config.LoaderNone, cfg.Loader.Mode)
	assert.Equal(t, "out", cfg.OutputDir)
}

func TestCleanCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "raw.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"transaction_id,day_of_week,product_name,product_category,price,quantity_sold,total_sale,store_location,customer_name\n"+
			"1,Monday,Widget,Tools,10.5,2,21,Pretoria,Debby\n"+
			"2,,Widget,Tools,,1,,Pretoria,Alan\n"), 0o644))
	out := filepath.Join(dir, "out")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"clean", "--input", input, "--output-dir", out, "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, stdout.String(), "succeeded")
	sales, err := os.ReadFile(filepath.Join(out, "transformed_data", "sales.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(sales), "2,Monday,2,1,1,1,10.5,10.5")
}
