// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/triad/internal/store"
	"github.com/meshintel/triad/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the record store (ingest, query, export)",
	Long: `Store manages a local SQLite index built from normalized records.
Use subcommands to ingest records files, query them, or export.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest normalized records into the record store",
	Long: `Ingest reads records YAML files from records/normalized/, loads them
into a SQLite database with FTS5 indexing over raw row text, and writes
an export file. Unchanged sources are skipped on subsequent runs.`,
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	st, err := store.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d source(s) failed ingest", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [query]",
	Short: "Query stored records with full-text search and filters",
	Long: `Query searches the record store using FTS5 full-text search over raw
row text, structured filters (rule, source), or a combination of both.
Every result carries provenance: the source, line, raw row, and the
classification rule that produced it.

Use --trace with a record ID to view the row in its source context.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	traceID, _ := cmd.Flags().GetString("trace")

	st, err := store.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	// Trace mode: show source context for a specific record.
	if traceID != "" {
		text, err := st.Trace(context.Background(), traceID)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --rule, or --source")
	}

	results, err := st.Query(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-12s  %-20s  %-6s  %-8s  %-30s  %s\n",
		"Rank", "ID", "Source", "Line", "Rule", "Raw", "Record")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range results {
		source := r.SourceID
		if len(source) > 20 {
			source = source[:17] + "..."
		}
		raw := r.Raw
		if len(raw) > 30 {
			raw = raw[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-12s  %-20s  %-6d  %-8s  %-30s  %s\n",
			i+1, r.ID, source, r.Line, r.Rule, raw, r.Fields)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to YAML or JSON",
	Long: `Export writes the full record store (or a filtered subset) to
records/index/export.yaml or export.json. Supports the same filter
flags as query for partial exports.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	st, err := store.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := st.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to records/index/export.yaml")
	case "json":
		if err := st.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to records/index/export.json")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func storeConfig() types.StoreConfig {
	return types.StoreConfig{
		RecordsDir: viper.GetString("store.records_dir"),
		MaxResults: viper.GetInt("store.max_results"),
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	rule, _ := cmd.Flags().GetString("rule")
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Query:      queryText,
		Rule:       types.RuleID(rule),
		Source:     source,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("records-dir", "records", "base directory for records (contains normalized/, index/)")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	viper.BindPFlag("store.records_dir", storeCmd.PersistentFlags().Lookup("records-dir"))
	viper.BindPFlag("store.max_results", storeCmd.PersistentFlags().Lookup("max-results"))

	// Query flags.
	storeQueryCmd.Flags().String("query", "", "full-text search query over raw row text")
	storeQueryCmd.Flags().String("rule", "", "filter by rule: triple, pair, seed, single")
	storeQueryCmd.Flags().String("source", "", "filter by source ID")
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().String("trace", "", "show source context for a record ID")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	storeExportCmd.Flags().String("rule", "", "filter by rule for partial export")
	storeExportCmd.Flags().String("source", "", "filter by source ID for partial export")
	storeExportCmd.Flags().Int("limit", 0, "maximum records to export (0 = all)")

	// Wire subcommands.
	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
