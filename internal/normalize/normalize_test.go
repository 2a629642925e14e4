// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/meshintel/triad/pkg/types"
)

func TestTextEndToEnd(t *testing.T) {
	// A ragged input exercising every rule, including a trailing
	// newline whose empty final row is skipped.
	records, err := Text("0,1,2\n1,2,3\n1,2\n0\n1\n")
	if err != nil {
		t.Fatal(err)
	}

	want := []types.Record{
		types.NewRecord(types.Text("0"), types.Text("1"), types.Text("2")),
		types.NewRecord(types.Text("1"), types.Text("2"), types.Text("3")),
		types.NewRecord(types.Text("1"), types.Text("2"), types.Absent),
		types.NewRecord(types.Text("0"), types.Absent, types.Absent),
		types.NewRecord(types.Int(1), types.Int(2), types.Int(3)),
	}

	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, rec := range records {
		if rec != want[i] {
			t.Errorf("record %d = %s, want %s", i, rec, want[i])
		}
	}
}

func TestTextEmptyInput(t *testing.T) {
	// Empty text is one empty row: skipped, no records, no error.
	records, err := Text("")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestTextSkipPreservesOrder(t *testing.T) {
	records, err := Text("a,b,c\n\nd,e,f")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	first, _ := records[0][0].Text()
	second, _ := records[1][0].Text()
	if first != "a" || second != "d" {
		t.Errorf("records out of order: %s, %s", records[0], records[1])
	}
}

func TestTextUnhandledShapeIsFatal(t *testing.T) {
	_, err := Text("a,b,c\nw,x,y,z\nd,e,f")
	if !errors.Is(err, ErrUnhandledShape) {
		t.Fatalf("err = %v, want ErrUnhandledShape", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("err = %v, want line number 2 in message", err)
	}
}

func TestAnnotateProvenance(t *testing.T) {
	rows, err := Annotate("x,y\n\n1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if rows[0].Line != 1 || rows[0].Raw != "x,y" || rows[0].Rule != types.RulePair {
		t.Errorf("row 0 provenance = %+v", rows[0])
	}
	// Line numbers refer to the source, so the skipped blank row
	// leaves a gap.
	if rows[1].Line != 3 || rows[1].Raw != "1" || rows[1].Rule != types.RuleSeed {
		t.Errorf("row 1 provenance = %+v", rows[1])
	}
}
