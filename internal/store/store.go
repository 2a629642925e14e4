// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists normalized records in SQLite and answers
// full-text and structured queries over them.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/triad/pkg/types"
)

const (
	normalizedDir = "normalized"
	indexDir      = "index"
	dbFile        = "triad.db"
)

// Store manages the records SQLite database.
type Store struct {
	db         *sql.DB
	recordsDir string
	maxResults int
}

// NewStore opens or creates the records database at
// recordsDir/index/triad.db, creating the schema if needed.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.RecordsDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		recordsDir: cfg.RecordsDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			path TEXT,
			rows INTEGER,
			skipped INTEGER,
			normalized_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			source_id TEXT NOT NULL REFERENCES sources(id),
			line INTEGER NOT NULL,
			raw TEXT NOT NULL,
			rule TEXT NOT NULL,
			f1 TEXT,
			f2 TEXT,
			f3 TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_source_id ON records(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_rule ON records(rule)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			source_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='records_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE records_fts USING fts5(raw, content=records, content_rowid=rowid)`,
			`CREATE TRIGGER records_ai AFTER INSERT ON records BEGIN
				INSERT INTO records_fts(rowid, raw) VALUES (new.rowid, new.raw);
			END`,
			`CREATE TRIGGER records_ad AFTER DELETE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, raw) VALUES('delete', old.rowid, old.raw);
			END`,
			`CREATE TRIGGER records_au AFTER UPDATE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, raw) VALUES('delete', old.rowid, old.raw);
				INSERT INTO records_fts(rowid, raw) VALUES (new.rowid, new.raw);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a store ingest run.
type IngestSummary struct {
	Ingested int
	Updated  int
	Skipped  int
	Failed   int
}

// Total returns the number of sources processed.
func (s IngestSummary) Total() int {
	return s.Ingested + s.Updated + s.Skipped + s.Failed
}

// Ingest reads normalization YAML files from recordsDir/normalized/
// and populates the database. New, changed, and unchanged files are
// detected by file mod time for incremental updates. On success it
// writes export.yaml.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	normDir := filepath.Join(s.recordsDir, normalizedDir)

	entries, err := os.ReadDir(normDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading normalized directory %s: %w", normDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "-records.yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		sourceID := strings.TrimSuffix(entry.Name(), "-records.yaml")
		filePath := filepath.Join(normDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE source_id = ?`, sourceID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", sourceID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		var result types.NormalizeResult
		if err := yaml.Unmarshal(data, &result); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		if err := s.ingestSource(ctx, sourceID, &result, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", sourceID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d records)\n", sourceID, len(result.Records))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "ingested %s (%d records)\n", sourceID, len(result.Records))
			summary.Ingested++
		}
	}

	fmt.Fprintf(w, "\ningested: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Ingested, summary.Updated, summary.Skipped, summary.Failed)

	// Refresh export.yaml after a successful ingest.
	if summary.Ingested > 0 || summary.Updated > 0 {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

func (s *Store) ingestSource(ctx context.Context, sourceID string, result *types.NormalizeResult, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Remove old records if updating.
	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE source_id = ?`, sourceID); err != nil {
			return fmt.Errorf("deleting old records: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sources (id, path, rows, skipped, normalized_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			path=excluded.path, rows=excluded.rows, skipped=excluded.skipped,
			normalized_at=excluded.normalized_at`,
		sourceID, result.SourcePath, result.Rows, result.Skipped,
		result.NormalizedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting source: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO records (id, source_id, line, raw, rule, f1, f2, f3)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rr := range result.Records {
		f1, f2, f3, err := encodeFields(rr.Fields)
		if err != nil {
			return fmt.Errorf("encoding record at line %d: %w", rr.Line, err)
		}
		_, err = stmt.ExecContext(ctx,
			stableID(sourceID, rr.Line, rr.Raw), sourceID,
			rr.Line, rr.Raw, string(rr.Rule), f1, f2, f3,
		)
		if err != nil {
			return fmt.Errorf("inserting record at line %d: %w", rr.Line, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (source_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		sourceID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}

	return tx.Commit()
}

// stableID generates a deterministic record ID: the first 12 hex
// characters of SHA-256 over source ID, line, and raw row. Re-ingesting
// an unchanged row yields the same ID. The components are delimited so
// adjacent source/line pairs cannot produce the same digest input.
func stableID(sourceID string, line int, raw string) string {
	h := sha256.New()
	h.Write([]byte(sourceID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(line)))
	h.Write([]byte{0})
	h.Write([]byte(raw))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// encodeFields serializes the three fields as their JSON forms, the
// storage encoding for the f1/f2/f3 columns: a quoted string for text,
// a bare number for integers, null for absent.
func encodeFields(rec types.Record) (string, string, string, error) {
	var enc [3]string
	for i, f := range rec {
		data, err := json.Marshal(f)
		if err != nil {
			return "", "", "", fmt.Errorf("field %d: %w", i+1, err)
		}
		enc[i] = string(data)
	}
	return enc[0], enc[1], enc[2], nil
}

// decodeFields parses the stored JSON forms back into a Record.
func decodeFields(f1, f2, f3 string) (types.Record, error) {
	var rec types.Record
	for i, data := range []string{f1, f2, f3} {
		if err := json.Unmarshal([]byte(data), &rec[i]); err != nil {
			return types.Record{}, fmt.Errorf("field %d: %w", i+1, err)
		}
	}
	return rec, nil
}
