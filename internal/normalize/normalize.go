// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"strings"

	"github.com/meshintel/triad/pkg/types"
)

// Text normalizes a block of delimited text into records. Rows come
// from splitting on newlines; output order follows row order with
// skipped rows removed. A row no rule accepts fails the whole
// transformation with the 1-based line number wrapped in the error.
//
// Empty input is one empty row, which the blank rule skips, so Text("")
// returns no records and no error.
func Text(text string) ([]types.Record, error) {
	rows, err := annotateRows(strings.Split(text, "\n"), false)
	if err != nil {
		return nil, err
	}
	records := make([]types.Record, len(rows))
	for i, rr := range rows {
		records[i] = rr.Fields
	}
	return records, nil
}

// Annotate normalizes text like Text but keeps per-row provenance:
// the source line number, the raw row, and the rule that matched.
func Annotate(text string) ([]types.RowRecord, error) {
	return annotateRows(strings.Split(text, "\n"), false)
}

// annotateRows classifies each row in order, eliding skipped rows.
// When stripCR is set a trailing carriage return is removed from each
// row before classification.
func annotateRows(rows []string, stripCR bool) ([]types.RowRecord, error) {
	var out []types.RowRecord
	for i, row := range rows {
		if stripCR {
			row = strings.TrimSuffix(row, "\r")
		}
		m, err := Row(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if m.Skip {
			continue
		}
		out = append(out, types.RowRecord{
			Line:   i + 1,
			Raw:    row,
			Rule:   m.Rule,
			Fields: m.Record,
		})
	}
	return out, nil
}
