// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads remote delimited sources into the sources
// directory.
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/meshintel/triad/pkg/types"
)

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the total number of URLs processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any downloads failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Fetch downloads one source URL into cfg.SourcesDir and returns the
// derived source ID. If the source file already exists the download is
// skipped. A non-empty token is sent as a bearer Authorization header.
func Fetch(ctx context.Context, client *http.Client, rawURL string, cfg types.FetchConfig, token string, w io.Writer) (sourceID string, skipped bool, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false, fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false, fmt.Errorf("unsupported URL scheme %q: only http and https", u.Scheme)
	}

	name := sourceFileName(u)
	sourceID = strings.TrimSuffix(name, filepath.Ext(name))
	destPath := filepath.Join(cfg.SourcesDir, name)

	if _, err := os.Stat(destPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", sourceID)
		return sourceID, true, nil
	}

	if err := os.MkdirAll(cfg.SourcesDir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating sources directory: %w", err)
	}

	fmt.Fprintf(w, "downloading: %s\n", sourceID)

	if err := downloadFile(ctx, client, rawURL, destPath, cfg, token); err != nil {
		return "", false, fmt.Errorf("downloading %s: %w", sourceID, err)
	}

	return sourceID, false, nil
}

// FetchBatch processes multiple URLs, printing per-URL status and
// returning a summary. It continues after individual failures and
// applies a delay between consecutive downloads.
func FetchBatch(ctx context.Context, client *http.Client, urls []string, cfg types.FetchConfig, token string, w io.Writer) BatchResult {
	var result BatchResult
	for i, rawURL := range urls {
		if i > 0 && cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(cfg.DownloadDelay):
			}
		}
		_, wasSkipped, err := Fetch(ctx, client, rawURL, cfg, token, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", rawURL, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// sourceFileName derives the on-disk name from the URL path base. URLs
// without a usable base name, or with an extension the normalizer
// would not pick up, fall back to a hash-named .csv file.
func sourceFileName(u *url.URL) string {
	base := path.Base(u.Path)
	ext := path.Ext(base)
	if base != "" && base != "." && base != "/" && (ext == ".csv" || ext == ".txt") {
		return base
	}
	h := sha256.Sum256([]byte(u.String()))
	return fmt.Sprintf("%x", h)[:12] + ".csv"
}

// downloadFile fetches url to destPath using a temporary file so a
// partial download never appears as a source.
func downloadFile(ctx context.Context, client *http.Client, url, destPath string, cfg types.FetchConfig, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := doWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
