// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/triad/internal/normalize"
	"github.com/meshintel/triad/pkg/types"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [files...]",
	Short: "Normalize source files into three-field records",
	Long: `Normalize classifies the rows of delimited source files into fixed
three-field records and writes one records YAML file per source under
records/normalized/. With --batch it processes every .csv and .txt file
in the sources directory, skipping sources unchanged since their last
run. A row no rule accepts fails its whole file.`,
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().Bool("batch", false, "process all sources in the sources directory")
	normalizeCmd.Flags().Bool("json", false, "print records for a single file to stdout instead of writing YAML")
	normalizeCmd.Flags().String("sources-dir", "sources", "directory scanned for source files")
	normalizeCmd.Flags().String("records-dir", "records", "base directory for normalized output")
	normalizeCmd.Flags().Bool("crlf", false, "strip trailing carriage returns from rows before classification")

	viper.BindPFlag("normalize.sources_dir", normalizeCmd.Flags().Lookup("sources-dir"))
	viper.BindPFlag("normalize.records_dir", normalizeCmd.Flags().Lookup("records-dir"))
	viper.BindPFlag("normalize.crlf", normalizeCmd.Flags().Lookup("crlf"))

	rootCmd.AddCommand(normalizeCmd)
}

func normalizeConfig() types.NormalizeConfig {
	return types.NormalizeConfig{
		SourcesDir: viper.GetString("normalize.sources_dir"),
		RecordsDir: viper.GetString("normalize.records_dir"),
		StripCR:    viper.GetBool("normalize.crlf"),
	}
}

func runNormalize(cmd *cobra.Command, args []string) error {
	batch, _ := cmd.Flags().GetBool("batch")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg := normalizeConfig()

	if batch {
		if len(args) > 0 {
			return fmt.Errorf("--batch does not take file arguments")
		}
		summary, err := normalize.All(context.Background(), cfg, os.Stdout)
		if err != nil {
			return err
		}
		if summary.HasFailures() {
			return fmt.Errorf("%d source(s) failed normalization", summary.Failed)
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("provide one or more source files, or --batch for the sources directory")
	}

	if jsonOutput {
		if len(args) != 1 {
			return fmt.Errorf("--json takes exactly one source file")
		}
		result, err := normalize.File(args[0], cfg)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Records)
	}

	var failed int
	for _, path := range args {
		result, err := normalize.File(path, cfg)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: %v\n", path, err)
			failed++
			continue
		}
		if err := normalize.WriteResult(cfg, result); err != nil {
			fmt.Fprintf(os.Stdout, "failed  %s: write error: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(os.Stdout, "normalized %s (%d records, %d skipped rows)\n",
			result.SourceID, len(result.Records), result.Skipped)
	}

	if failed > 0 {
		return fmt.Errorf("%d source(s) failed normalization", failed)
	}
	return nil
}
