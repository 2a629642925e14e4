// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/triad/pkg/types"
)

const normalizedDir = "normalized"

// sourceExts lists the file extensions the batch walker treats as
// delimited sources.
var sourceExts = map[string]bool{
	".csv": true,
	".txt": true,
}

// Summary holds counts from a batch normalization run.
type Summary struct {
	Normalized int
	Skipped    int
	Failed     int
}

// Total returns the number of source files processed.
func (s Summary) Total() int {
	return s.Normalized + s.Skipped + s.Failed
}

// HasFailures reports whether any source files failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// File normalizes a single source file. The source ID is the file base
// name without its extension. An unhandled row shape fails the whole
// file with the line number in the error.
func File(path string, cfg types.NormalizeConfig) (*types.NormalizeResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", path, err)
	}

	rows := strings.Split(string(data), "\n")
	records, err := annotateRows(rows, cfg.StripCR)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(path)
	return &types.NormalizeResult{
		SourceID:     strings.TrimSuffix(base, filepath.Ext(base)),
		SourcePath:   path,
		Rows:         len(rows),
		Skipped:      len(rows) - len(records),
		NormalizedAt: time.Now().UTC(),
		Records:      records,
	}, nil
}

// WriteResult writes a normalization result to its records YAML file
// under cfg.RecordsDir/normalized/, creating the directory if needed.
func WriteResult(cfg types.NormalizeConfig, result *types.NormalizeResult) error {
	outDir := filepath.Join(cfg.RecordsDir, normalizedDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return writeResult(filepath.Join(outDir, result.SourceID+"-records.yaml"), result)
}

// All normalizes every source file (.csv, .txt) in cfg.SourcesDir and
// writes one <source>-records.yaml per file under records/normalized/.
// Sources unchanged since their output was written are skipped.
func All(ctx context.Context, cfg types.NormalizeConfig, w io.Writer) (Summary, error) {
	outDir := filepath.Join(cfg.RecordsDir, normalizedDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(cfg.SourcesDir)
	if err != nil {
		return Summary{}, fmt.Errorf("reading sources directory %s: %w", cfg.SourcesDir, err)
	}

	var summary Summary

	for _, entry := range entries {
		if entry.IsDir() || !sourceExts[filepath.Ext(entry.Name())] {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		srcPath := filepath.Join(cfg.SourcesDir, entry.Name())
		sourceID := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		outPath := filepath.Join(outDir, sourceID+"-records.yaml")

		changed, err := hasChanged(srcPath, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}
		if !changed {
			fmt.Fprintf(w, "skipped %s\n", sourceID)
			summary.Skipped++
			continue
		}

		result, err := File(srcPath, cfg)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		if err := writeResult(outPath, result); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "normalized %s (%d records, %d skipped rows)\n",
			sourceID, len(result.Records), result.Skipped)
		summary.Normalized++
	}

	return summary, nil
}

// hasChanged reports whether the source file is newer than the output
// file. A missing output means the source has never been normalized.
func hasChanged(srcPath, outPath string) (bool, error) {
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return false, fmt.Errorf("stat source %s: %w", srcPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return srcInfo.ModTime().After(outInfo.ModTime()), nil
}

// writeResult marshals the NormalizeResult to a YAML file.
func writeResult(path string, result *types.NormalizeResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
