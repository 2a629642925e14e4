// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meshintel/triad/internal/normalize"
)

var explainCmd = &cobra.Command{
	Use:   "explain [rows...]",
	Short: "Show which classification rule a row hits",
	Long: `Explain classifies each row argument and prints the matched rule and
the resulting record. A single "-" argument reads rows from stdin, one
per line. With no arguments it prints the rule table in evaluation
order — the order is load-bearing, so this is the place to audit it.`,
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		printRuleTable()
		return nil
	}

	rows := args
	if len(args) == 1 && args[0] == "-" {
		var err error
		rows, err = readStdinRows()
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-8s  %s\n", "Row", "Rule", "Record")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 60))

	for _, row := range rows {
		m, err := normalize.Row(row)
		if err != nil {
			return fmt.Errorf("row %q: %w", row, err)
		}
		display := row
		if len(display) > 20 {
			display = display[:17] + "..."
		}
		if m.Skip {
			fmt.Fprintf(os.Stdout, "%-20q  %-8s  (skipped)\n", display, m.Rule)
			continue
		}
		fmt.Fprintf(os.Stdout, "%-20q  %-8s  %s\n", display, m.Rule, m.Record)
	}
	return nil
}

func printRuleTable() {
	fmt.Fprintf(os.Stdout, "%-3s  %-8s  %-24s  %s\n", "#", "Rule", "Accepts", "Produces")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 60))
	for i, info := range normalize.Rules() {
		fmt.Fprintf(os.Stdout, "%-3d  %-8s  %-24s  %s\n", i+1, info.ID, info.Pattern, info.Output)
	}
	fmt.Fprintln(os.Stdout, "\nRules are checked in order; the first match wins.")
}

func readStdinRows() ([]string, error) {
	var rows []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		rows = append(rows, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return rows, nil
}
