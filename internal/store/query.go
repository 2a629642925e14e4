// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/meshintel/triad/pkg/types"
)

// QueryOptions holds parameters for record queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over raw row text.
	Query string

	// Rule filters by the classification rule that produced a record.
	Rule types.RuleID

	// Source filters by source ID.
	Source string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Rule == "" && q.Source == ""
}

// QueryResult is a stored record with its provenance.
type QueryResult struct {
	ID         string       `json:"id" yaml:"id"`
	SourceID   string       `json:"source_id" yaml:"source_id"`
	SourcePath string       `json:"source_path" yaml:"source_path"`
	Line       int          `json:"line" yaml:"line"`
	Raw        string       `json:"raw" yaml:"raw"`
	Rule       types.RuleID `json:"rule" yaml:"rule"`
	Fields     types.Record `json:"fields" yaml:"fields"`
}

// Query searches stored records with optional full-text search and
// structured filters. Full-text results are ranked by relevance;
// structured-only results are ordered by source and line.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.id, r.source_id, src.path, r.line, r.raw, r.rule,
				r.f1, r.f2, r.f3
			FROM records_fts
			JOIN records r ON r.rowid = records_fts.rowid
			LEFT JOIN sources src ON r.source_id = src.id
			WHERE records_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT r.id, r.source_id, src.path, r.line, r.raw, r.rule,
				r.f1, r.f2, r.f3
			FROM records r
			LEFT JOIN sources src ON r.source_id = src.id
			WHERE 1=1`)
	}

	if opts.Rule != "" {
		qb.WriteString(` AND r.rule = ?`)
		args = append(args, string(opts.Rule))
	}

	if opts.Source != "" {
		qb.WriteString(` AND r.source_id = ?`)
		args = append(args, opts.Source)
	}

	if useFTS {
		qb.WriteString(` ORDER BY records_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.source_id, r.line`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr         QueryResult
			rule       string
			path       sql.NullString
			f1, f2, f3 string
		)

		if err := rows.Scan(
			&qr.ID, &qr.SourceID, &path, &qr.Line, &qr.Raw, &rule,
			&f1, &f2, &f3,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.Rule = types.RuleID(rule)
		if path.Valid {
			qr.SourcePath = path.String
		}

		rec, err := decodeFields(f1, f2, f3)
		if err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", qr.ID, err)
		}
		qr.Fields = rec

		results = append(results, qr)
	}

	return results, rows.Err()
}

// traceContextLines is the number of source lines shown on each side
// of the traced row.
const traceContextLines = 2

// Trace returns the source context for a record ID: the raw row as it
// appears in the source file, with surrounding lines and a position
// marker. The source file is reread, so Trace fails if it has been
// moved or deleted since normalization.
func (s *Store) Trace(ctx context.Context, recordID string) (string, error) {
	var sourcePath string
	var line int

	err := s.db.QueryRowContext(ctx,
		`SELECT src.path, r.line
		 FROM records r
		 JOIN sources src ON r.source_id = src.id
		 WHERE r.id = ?`, recordID,
	).Scan(&sourcePath, &line)

	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("record %s not found", recordID)
		}
		return "", fmt.Errorf("looking up record: %w", err)
	}

	content, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", sourcePath, err)
	}

	return formatLineContext(sourcePath, string(content), line), nil
}

// formatLineContext renders the traced line with its neighbors, the
// traced line marked with ">".
func formatLineContext(path, content string, line int) string {
	lines := strings.Split(content, "\n")

	start := line - traceContextLines
	if start < 1 {
		start = 1
	}
	end := line + traceContextLines
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d\n", path, line)
	for n := start; n <= end; n++ {
		marker := " "
		if n == line {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %4d  %s\n", marker, n, lines[n-1])
	}
	return strings.TrimSuffix(b.String(), "\n")
}
