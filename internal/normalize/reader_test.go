// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/meshintel/triad/pkg/types"
)

// drain collects every record from a reader until io.EOF.
func drain(t *testing.T, r *Reader) []types.RowRecord {
	t.Helper()
	var rows []types.RowRecord
	for {
		rr, err := r.Next()
		if err == io.EOF {
			return rows
		}
		if err != nil {
			t.Fatal(err)
		}
		rows = append(rows, rr)
	}
}

func TestReaderMatchesText(t *testing.T) {
	inputs := []string{
		"0,1,2\n1,2,3\n1,2\n0\n1\n",
		"",
		"\n\n\n",
		"a,b,c",
		"a,b,c\n",
		"1",
		"x,y\n\nz",
	}

	for _, input := range inputs {
		records, err := Text(input)
		if err != nil {
			t.Fatal(err)
		}

		rows := drain(t, NewReaderFromString(input))
		if len(rows) != len(records) {
			t.Errorf("input %q: reader yielded %d records, Text %d", input, len(rows), len(records))
			continue
		}
		for i, rr := range rows {
			if rr.Fields != records[i] {
				t.Errorf("input %q record %d: reader %s, Text %s", input, i, rr.Fields, records[i])
			}
		}
	}
}

func TestReaderLineNumbers(t *testing.T) {
	r := NewReaderFromString("\nfirst\n\nsecond")

	rr, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if rr.Line != 2 || rr.Raw != "first" {
		t.Errorf("first record at line %d raw %q, want line 2 raw %q", rr.Line, rr.Raw, "first")
	}

	rr, err = r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if rr.Line != 4 || rr.Raw != "second" {
		t.Errorf("second record at line %d raw %q, want line 4 raw %q", rr.Line, rr.Raw, "second")
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestReaderUnhandledShape(t *testing.T) {
	r := NewReaderFromString("a,b,c\nw,x,y,z\n")

	if _, err := r.Next(); err != nil {
		t.Fatal(err)
	}
	_, err := r.Next()
	if !errors.Is(err, ErrUnhandledShape) {
		t.Fatalf("err = %v, want ErrUnhandledShape", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("err = %v, want line number 2 in message", err)
	}
}

func TestReaderLongRow(t *testing.T) {
	// Rows well past bufio.Scanner's default 64 KiB token limit must
	// stream through just like Text handles them.
	long := strings.Repeat("a", 100_000)
	input := long + "," + long + "\nz\n"

	records, err := Text(input)
	if err != nil {
		t.Fatal(err)
	}

	rows := drain(t, NewReaderFromString(input))
	if len(rows) != len(records) {
		t.Fatalf("reader yielded %d records, Text %d", len(rows), len(records))
	}
	first, _ := rows[0].Fields[0].Text()
	if first != long {
		t.Errorf("first token truncated: got %d bytes, want %d", len(first), len(long))
	}
	if rows[0].Fields != records[0] {
		t.Error("reader record differs from Text record for long row")
	}
}

func TestReaderKeepsCarriageReturn(t *testing.T) {
	// Without the strip flag a CRLF row keeps its CR: the tokens are
	// split on bare newlines exactly as Text does.
	rows := drain(t, NewReaderFromString("a,b\r\n"))
	if len(rows) != 1 {
		t.Fatalf("got %d records, want 1", len(rows))
	}
	second, _ := rows[0].Fields[1].Text()
	if second != "b\r" {
		t.Errorf("second token = %q, want %q", second, "b\r")
	}

	rows = drain(t, NewReaderFromString("a,b\r\n").StripCR())
	if len(rows) != 1 {
		t.Fatalf("got %d records with StripCR, want 1", len(rows))
	}
	second, _ = rows[0].Fields[1].Text()
	if second != "b" {
		t.Errorf("second token with StripCR = %q, want %q", second, "b")
	}
}
