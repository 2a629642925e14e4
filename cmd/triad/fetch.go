// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/triad/internal/fetch"
	"github.com/meshintel/triad/internal/secrets"
	"github.com/meshintel/triad/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch URL...",
	Short: "Download remote delimited sources",
	Long: `Fetch downloads delimited source files from http(s) URLs into the
sources directory, where normalize --batch picks them up. Existing
sources are skipped. Rate-limited or transiently failing downloads are
retried with backoff. A fetch-token secret, when present, is sent as a
bearer Authorization header.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Duration("timeout", 60*time.Second, "HTTP request timeout")
	fetchCmd.Flags().Duration("delay", 1*time.Second, "delay between consecutive downloads")
	fetchCmd.Flags().Int("max-retries", 0, "retry attempts for transient failures (0 = default)")
	fetchCmd.Flags().String("sources-dir", "sources", "directory downloaded sources are written to")
	fetchCmd.Flags().String("user-agent", "triad/0.1", "User-Agent header for downloads")

	viper.BindPFlag("fetch.timeout", fetchCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("fetch.delay", fetchCmd.Flags().Lookup("delay"))
	viper.BindPFlag("fetch.max_retries", fetchCmd.Flags().Lookup("max-retries"))
	viper.BindPFlag("fetch.sources_dir", fetchCmd.Flags().Lookup("sources-dir"))
	viper.BindPFlag("fetch.user_agent", fetchCmd.Flags().Lookup("user-agent"))

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more source URLs")
	}

	cfg := types.FetchConfig{
		Timeout:       viper.GetDuration("fetch.timeout"),
		UserAgent:     viper.GetString("fetch.user_agent"),
		MaxRetries:    viper.GetInt("fetch.max_retries"),
		DownloadDelay: viper.GetDuration("fetch.delay"),
		SourcesDir:    viper.GetString("fetch.sources_dir"),
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	token := loadedSecrets[secrets.FetchToken]

	result := fetch.FetchBatch(context.Background(), client, args, cfg, token, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d download(s) failed", result.Failed)
	}
	return nil
}
