// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps ragged delimited rows onto fixed three-field
// records through an ordered chain of classification rules.
//
// Rows come from splitting source text on newlines, tokens from
// splitting a row on commas. Each row is offered to the rules in
// order and the first rule that accepts it wins: three tokens pass
// through, two tokens gain an absent field, the empty row is dropped,
// the lone literal "1" expands to the integer record [1, 2, 3], and
// any other lone token gains two absent fields. A row no rule accepts
// fails the whole transformation with ErrUnhandledShape.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meshintel/triad/pkg/types"
)

// ErrUnhandledShape reports a row no classification rule accepts. It is
// a defensive fault, not an expected condition: splitting a string on
// commas always yields at least one token, and the chain covers every
// arity from one through three. Reaching it means the chain has a gap.
var ErrUnhandledShape = errors.New("unhandled row shape")

// Match is the outcome of classifying one row.
type Match struct {
	// Rule identifies the rule that accepted the row.
	Rule types.RuleID

	// Record is the normalized record. Meaningful only when Skip is false.
	Record types.Record

	// Skip reports that the row is dropped without emitting a record.
	Skip bool
}

// rule is one entry of the classification chain: an acceptance test
// plus the transformation applied on acceptance.
type rule struct {
	id      types.RuleID
	pattern string // token shape the rule accepts, for display
	output  string // record the rule produces, for display
	match   func(tokens []string) bool
	apply   func(tokens []string) Match
}

// ruleChain is evaluated in order; the first match wins. Order is
// load-bearing: the seed rule accepts a shape the single rule would
// also accept, so it must be checked first. A value-keyed lookup table
// could not express that priority.
var ruleChain = []rule{
	{
		id:      types.RuleTriple,
		pattern: "x,y,z",
		output:  "[x, y, z]",
		match:   func(tokens []string) bool { return len(tokens) == 3 },
		apply: func(tokens []string) Match {
			return Match{
				Rule:   types.RuleTriple,
				Record: types.NewRecord(types.Text(tokens[0]), types.Text(tokens[1]), types.Text(tokens[2])),
			}
		},
	},
	{
		id:      types.RulePair,
		pattern: "x,y",
		output:  "[x, y, absent]",
		match:   func(tokens []string) bool { return len(tokens) == 2 },
		apply: func(tokens []string) Match {
			return Match{
				Rule:   types.RulePair,
				Record: types.NewRecord(types.Text(tokens[0]), types.Text(tokens[1]), types.Absent),
			}
		},
	},
	{
		id:      types.RuleBlank,
		pattern: `the empty row`,
		output:  "no record",
		match:   func(tokens []string) bool { return len(tokens) == 1 && tokens[0] == "" },
		apply: func(tokens []string) Match {
			return Match{Rule: types.RuleBlank, Skip: true}
		},
	},
	{
		id:      types.RuleSeed,
		pattern: `the lone token "1"`,
		output:  "[1, 2, 3]",
		match:   func(tokens []string) bool { return len(tokens) == 1 && tokens[0] == "1" },
		apply: func(tokens []string) Match {
			return Match{
				Rule:   types.RuleSeed,
				Record: types.NewRecord(types.Int(1), types.Int(2), types.Int(3)),
			}
		},
	},
	{
		id:      types.RuleSingle,
		pattern: "any other lone token x",
		output:  "[x, absent, absent]",
		match:   func(tokens []string) bool { return len(tokens) == 1 },
		apply: func(tokens []string) Match {
			return Match{
				Rule:   types.RuleSingle,
				Record: types.NewRecord(types.Text(tokens[0]), types.Absent, types.Absent),
			}
		},
	},
}

// Classify offers the token slice to the rule chain and returns the
// first match. Rows of zero or four-plus tokens fail with
// ErrUnhandledShape wrapped with the offending arity.
func Classify(tokens []string) (Match, error) {
	for _, r := range ruleChain {
		if r.match(tokens) {
			return r.apply(tokens), nil
		}
	}
	return Match{}, fmt.Errorf("%w: %d tokens", ErrUnhandledShape, len(tokens))
}

// Row splits a raw row on commas and classifies the tokens.
func Row(row string) (Match, error) {
	return Classify(strings.Split(row, ","))
}

// RuleInfo describes one classification rule for display.
type RuleInfo struct {
	// ID is the rule identifier recorded as provenance.
	ID types.RuleID

	// Pattern is the token shape the rule accepts.
	Pattern string

	// Output is the record the rule produces.
	Output string
}

// Rules returns the classification rules in evaluation order.
func Rules() []RuleInfo {
	infos := make([]RuleInfo, len(ruleChain))
	for i, r := range ruleChain {
		infos[i] = RuleInfo{ID: r.id, Pattern: r.pattern, Output: r.output}
	}
	return infos
}
