// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/meshintel/triad/pkg/types"
)

// maxRowBytes caps the length of a single row on the streaming path.
const maxRowBytes = 1 << 20

// Reader streams normalized records from delimited text row by row.
// Skipped rows are elided transparently; Next returns io.EOF after the
// last record. For inputs whose rows fit in maxRowBytes Reader yields
// the same record sequence as Text; longer rows fail with the
// scanner's token-too-long error. The one split difference — input
// ending in a newline produces no final empty row here — is
// unobservable, because that row is always skipped.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	stripCR bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(nil, maxRowBytes)
	s.Split(scanRows)
	return &Reader{scanner: s}
}

// NewReaderFromString returns a Reader over the given text.
func NewReaderFromString(text string) *Reader {
	return NewReader(strings.NewReader(text))
}

// StripCR makes the reader remove a trailing carriage return from each
// row before classification, for sources with Windows line endings.
func (r *Reader) StripCR() *Reader {
	r.stripCR = true
	return r
}

// Next returns the next normalized row. Skipped rows are consumed
// silently. At end of input Next returns io.EOF; a row no rule accepts
// returns the classification error with the 1-based line number.
func (r *Reader) Next() (types.RowRecord, error) {
	for r.scanner.Scan() {
		r.line++
		row := r.scanner.Text()
		if r.stripCR {
			row = strings.TrimSuffix(row, "\r")
		}
		m, err := Row(row)
		if err != nil {
			return types.RowRecord{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		if m.Skip {
			continue
		}
		return types.RowRecord{
			Line:   r.line,
			Raw:    row,
			Rule:   m.Rule,
			Fields: m.Record,
		}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return types.RowRecord{}, err
	}
	return types.RowRecord{}, io.EOF
}

// scanRows splits on bare newlines, keeping any carriage return as row
// content. bufio.ScanLines trims CR, which would make the streaming
// path diverge from Text on CRLF input with the strip flag off.
func scanRows(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
