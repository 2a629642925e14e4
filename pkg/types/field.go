// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"go.yaml.in/yaml/v3"
)

// Kind discriminates the three states a record field can hold.
type Kind uint8

const (
	// KindAbsent marks a field carrying no value. The zero Field is absent.
	KindAbsent Kind = iota

	// KindText marks a field carrying a raw token from the source row.
	KindText

	// KindInt marks a field carrying an integer produced by normalization.
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	default:
		return "absent"
	}
}

// Field is one element of a normalized record: a text token, an integer,
// or the absent-value marker. Absent is distinct from every token value;
// in particular Text("") is a present field, not an absent one.
//
// Field is a comparable value type. The zero value is absent.
type Field struct {
	kind Kind
	text string
	num  int64
}

// Absent is the absent-value marker.
var Absent = Field{}

// Text returns a field holding the token s.
func Text(s string) Field { return Field{kind: KindText, text: s} }

// Int returns a field holding the integer n.
func Int(n int64) Field { return Field{kind: KindInt, num: n} }

// Kind reports which of the three states the field is in.
func (f Field) Kind() Kind { return f.kind }

// IsAbsent reports whether the field is the absent marker.
func (f Field) IsAbsent() bool { return f.kind == KindAbsent }

// Text returns the token value and whether the field holds text.
func (f Field) Text() (string, bool) { return f.text, f.kind == KindText }

// Int returns the integer value and whether the field holds an integer.
func (f Field) Int() (int64, bool) { return f.num, f.kind == KindInt }

// Equal reports whether two fields hold the same kind and value. The
// token "1" and the integer 1 are not equal.
func (f Field) Equal(other Field) bool { return f == other }

// String renders the field for display: text tokens are quoted, integers
// are bare, and the absent marker renders as "-".
func (f Field) String() string {
	switch f.kind {
	case KindText:
		return strconv.Quote(f.text)
	case KindInt:
		return strconv.FormatInt(f.num, 10)
	default:
		return "-"
	}
}

// MarshalJSON encodes text as a JSON string, integers as a JSON number,
// and the absent marker as null.
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.kind {
	case KindText:
		return json.Marshal(f.text)
	case KindInt:
		return strconv.AppendInt(nil, f.num, 10), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a string, an integer, or null. Any other JSON
// value is an error: fields never hold floats, booleans, or structures.
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = Field{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid text field: %w", err)
		}
		*f = Text(s)
		return nil
	default:
		n, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("field must be a string, an integer, or null, got %s", data)
		}
		*f = Int(n)
		return nil
	}
}

// MarshalYAML encodes the field under the same mapping as JSON: token,
// integer, or null.
func (f Field) MarshalYAML() (any, error) {
	switch f.kind {
	case KindText:
		return f.text, nil
	case KindInt:
		return f.num, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML accepts a scalar node: !!null becomes absent, !!int an
// integer, and any other scalar a text token.
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("field must be a scalar, got %s", value.Tag)
	}
	switch value.Tag {
	case "!!null":
		*f = Field{}
	case "!!int":
		n, err := strconv.ParseInt(value.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer field %q: %w", value.Value, err)
		}
		*f = Int(n)
	default:
		*f = Text(value.Value)
	}
	return nil
}
