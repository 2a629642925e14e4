// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"errors"
	"testing"

	"github.com/meshintel/triad/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		rule   types.RuleID
		record types.Record
		skip   bool
	}{
		{
			name:   "three tokens pass through unchanged",
			tokens: []string{"0", "1", "2"},
			rule:   types.RuleTriple,
			record: types.NewRecord(types.Text("0"), types.Text("1"), types.Text("2")),
		},
		{
			name:   "two tokens gain one absent field",
			tokens: []string{"1", "2"},
			rule:   types.RulePair,
			record: types.NewRecord(types.Text("1"), types.Text("2"), types.Absent),
		},
		{
			name:   "empty row is skipped",
			tokens: []string{""},
			rule:   types.RuleBlank,
			skip:   true,
		},
		{
			name:   "lone literal 1 expands to the integer seed record",
			tokens: []string{"1"},
			rule:   types.RuleSeed,
			record: types.NewRecord(types.Int(1), types.Int(2), types.Int(3)),
		},
		{
			name:   "any other lone token gains two absent fields",
			tokens: []string{"0"},
			rule:   types.RuleSingle,
			record: types.NewRecord(types.Text("0"), types.Absent, types.Absent),
		},
		{
			name:   "three empty tokens are still a triple",
			tokens: []string{"", "", ""},
			rule:   types.RuleTriple,
			record: types.NewRecord(types.Text(""), types.Text(""), types.Text("")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Classify(tt.tokens)
			if err != nil {
				t.Fatalf("Classify(%q): %v", tt.tokens, err)
			}
			if m.Rule != tt.rule {
				t.Errorf("rule = %s, want %s", m.Rule, tt.rule)
			}
			if m.Skip != tt.skip {
				t.Errorf("skip = %v, want %v", m.Skip, tt.skip)
			}
			if !tt.skip && m.Record != tt.record {
				t.Errorf("record = %s, want %s", m.Record, tt.record)
			}
		})
	}
}

func TestClassifyUnhandledShape(t *testing.T) {
	for _, tokens := range [][]string{
		nil,
		{},
		{"a", "b", "c", "d"},
		{"1", "2", "3", "4", "5"},
	} {
		_, err := Classify(tokens)
		if !errors.Is(err, ErrUnhandledShape) {
			t.Errorf("Classify(%d tokens): err = %v, want ErrUnhandledShape", len(tokens), err)
		}
	}
}

// TestSeedBeforeSingle pins the chain order for the one overlapping
// shape: the lone token "1" matches both the seed and the single rule,
// and must hit seed first. Swapping the two rules would silently turn
// [1 2 3] into ["1" - -].
func TestSeedBeforeSingle(t *testing.T) {
	m, err := Row("1")
	if err != nil {
		t.Fatal(err)
	}
	if m.Rule != types.RuleSeed {
		t.Fatalf("rule for row %q = %s, want %s", "1", m.Rule, types.RuleSeed)
	}
	want := types.NewRecord(types.Int(1), types.Int(2), types.Int(3))
	if m.Record != want {
		t.Errorf("record = %s, want %s", m.Record, want)
	}
	shadowed := types.NewRecord(types.Text("1"), types.Absent, types.Absent)
	if m.Record == shadowed {
		t.Errorf("seed rule shadowed by the generic single rule")
	}

	// The published rule order must agree with the dispatch behavior.
	var seedIdx, singleIdx int
	for i, info := range Rules() {
		switch info.ID {
		case types.RuleSeed:
			seedIdx = i
		case types.RuleSingle:
			singleIdx = i
		}
	}
	if seedIdx >= singleIdx {
		t.Errorf("rule table lists seed at %d, single at %d; seed must come first", seedIdx, singleIdx)
	}
}

func TestRulesOrder(t *testing.T) {
	want := []types.RuleID{
		types.RuleTriple,
		types.RulePair,
		types.RuleBlank,
		types.RuleSeed,
		types.RuleSingle,
	}
	infos := Rules()
	if len(infos) != len(want) {
		t.Fatalf("len(Rules()) = %d, want %d", len(infos), len(want))
	}
	for i, id := range want {
		if infos[i].ID != id {
			t.Errorf("Rules()[%d] = %s, want %s", i, infos[i].ID, id)
		}
		if infos[i].Pattern == "" || infos[i].Output == "" {
			t.Errorf("rule %s has empty display text", id)
		}
	}
}

func TestRowSplitsOnCommas(t *testing.T) {
	// "1,2" must be the pair rule, not the seed rule: the literal
	// check applies to a lone token, not to the raw row.
	m, err := Row("1,2")
	if err != nil {
		t.Fatal(err)
	}
	if m.Rule != types.RulePair {
		t.Errorf("rule = %s, want %s", m.Rule, types.RulePair)
	}
}
