// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures for the triad
// pipeline: the three-field Record produced by normalization, its Field
// elements, rule identifiers for provenance, and the serialized forms
// written by the normalize and store stages.
package types

import (
	"encoding/json"
	"fmt"
	"time"

	"go.yaml.in/yaml/v3"
)

// Record is a normalized row: exactly three fields, each a token, an
// integer, or absent. Record is comparable; two records are equal when
// their fields are equal position by position.
type Record [3]Field

// NewRecord builds a record from three fields.
func NewRecord(a, b, c Field) Record { return Record{a, b, c} }

// String renders the record for display, e.g. ["0" "1" -] or [1 2 3].
func (r Record) String() string {
	return "[" + r[0].String() + " " + r[1].String() + " " + r[2].String() + "]"
}

// MarshalJSON encodes the record as a three-element JSON array.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal([]Field{r[0], r[1], r[2]})
}

// UnmarshalJSON decodes a JSON array, requiring exactly three elements.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields []Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) != 3 {
		return fmt.Errorf("record must have exactly 3 fields, got %d", len(fields))
	}
	copy(r[:], fields)
	return nil
}

// MarshalYAML encodes the record as a three-element sequence.
func (r Record) MarshalYAML() (any, error) {
	return []Field{r[0], r[1], r[2]}, nil
}

// UnmarshalYAML decodes a sequence node, requiring exactly three elements.
func (r *Record) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("record must be a sequence, got %s", value.Tag)
	}
	if len(value.Content) != 3 {
		return fmt.Errorf("record must have exactly 3 fields, got %d", len(value.Content))
	}
	for i, n := range value.Content {
		if err := r[i].UnmarshalYAML(n); err != nil {
			return fmt.Errorf("field %d: %w", i+1, err)
		}
	}
	return nil
}

// RuleID identifies one row-classification rule. Rule identifiers appear
// in normalized output files and in the records database so every record
// can be traced to the rule that produced it.
type RuleID string

const (
	// RuleTriple passes a three-token row through unchanged.
	RuleTriple RuleID = "triple"

	// RulePair pads a two-token row with one absent field.
	RulePair RuleID = "pair"

	// RuleBlank drops the empty row without emitting a record.
	RuleBlank RuleID = "blank"

	// RuleSeed expands the lone literal token "1" to the integer
	// record [1, 2, 3].
	RuleSeed RuleID = "seed"

	// RuleSingle pads any other lone token with two absent fields.
	RuleSingle RuleID = "single"
)

// RowRecord is one normalized row together with its provenance.
type RowRecord struct {
	// Line is the 1-based row number in the source text.
	Line int `json:"line" yaml:"line"`

	// Raw is the row exactly as it appeared in the source.
	Raw string `json:"raw" yaml:"raw"`

	// Rule identifies the classification rule that produced the record.
	Rule RuleID `json:"rule" yaml:"rule"`

	// Fields is the normalized three-field record.
	Fields Record `json:"fields" yaml:"fields"`
}

// NormalizeResult holds the output of normalizing one source file. It is
// the YAML document written to records/normalized/<source>-records.yaml
// and read back by the store stage.
type NormalizeResult struct {
	// SourceID is the source slug, the file base name without extension.
	SourceID string `json:"source_id" yaml:"source_id"`

	// SourcePath is the path of the source file that was normalized.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Rows is the total number of rows examined, skipped rows included.
	Rows int `json:"rows" yaml:"rows"`

	// Skipped counts blank rows that produced no record.
	Skipped int `json:"skipped" yaml:"skipped"`

	// NormalizedAt records when the normalization ran.
	NormalizedAt time.Time `json:"normalized_at" yaml:"normalized_at"`

	// Records lists the normalized rows in source order.
	Records []RowRecord `json:"records" yaml:"records"`
}
