package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	// ValueKindText holds free text.
	ValueKindText ValueKind = iota + 1
	// ValueKindNumber holds a float64.
	ValueKindNumber
	// ValueKindBool holds a boolean.
	ValueKindBool
	// ValueKindList holds a list of strings.
	ValueKindList
)

// Valid reports whether k is one of the defined kinds.
func (k ValueKind) Valid() bool {
	return k >= ValueKindText && k <= ValueKindList
}

func (k ValueKind) String() string {
	switch k {
	case ValueKindText:
		return "text"
	case ValueKindNumber:
		return "number"
	case ValueKindBool:
		return "bool"
	case ValueKindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a candidate response or a hard-filter comparison value.
// The zero Value means "no response".
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Bool   bool
	List   []string
}

// TextValue returns a text Value.
func TextValue(s string) Value { return Value{Kind: ValueKindText, Text: s} }

// NumberValue returns a numeric Value.
func NumberValue(n float64) Value { return Value{Kind: ValueKindNumber, Number: n} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{Kind: ValueKindBool, Bool: b} }

// ListValue returns a list Value. The slice is copied.
func ListValue(items ...string) Value {
	return Value{Kind: ValueKindList, List: slices.Clone(items)}
}

// ValueOf converts a decoded YAML or JSON scalar into a Value.
func ValueOf(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case string:
		return TextValue(t), nil
	case bool:
		return BoolValue(t), nil
	case int:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case float32:
		return NumberValue(float64(t)), nil
	case float64:
		return NumberValue(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrInvalidValueKind, err)
		}
		return NumberValue(f), nil
	case []string:
		return ListValue(t...), nil
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, fmt.Sprint(item))
		}
		return ListValue(items...), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidValueKind, v)
	}
}

// AsNumber returns the numeric reading of v. Text that parses as a float
// counts as numeric.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case ValueKindNumber:
		return v.Number, !math.IsNaN(v.Number)
	case ValueKindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Equal compares two values. Numbers compare numerically when either side
// is a number and both sides have a numeric reading.
func (v Value) Equal(o Value) bool {
	if v.Kind == ValueKindNumber || o.Kind == ValueKindNumber {
		a, aok := v.AsNumber()
		b, bok := o.AsNumber()
		return aok && bok && a == b
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueKindText:
		return v.Text == o.Text
	case ValueKindBool:
		return v.Bool == o.Bool
	case ValueKindList:
		return slices.Equal(v.List, o.List)
	default:
		return false
	}
}

// Contains reports whether v includes needle: list membership for lists,
// substring match for text.
func (v Value) Contains(needle Value) bool {
	n := needle.String()
	switch v.Kind {
	case ValueKindList:
		return slices.Contains(v.List, n)
	case ValueKindText:
		return strings.Contains(v.Text, n)
	default:
		return false
	}
}

// String renders v for display and substring comparison.
func (v Value) String() string {
	switch v.Kind {
	case ValueKindText:
		return v.Text
	case ValueKindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ValueKindBool:
		return strconv.FormatBool(v.Bool)
	case ValueKindList:
		return strings.Join(v.List, ", ")
	default:
		return ""
	}
}

// MarshalJSON encodes v as its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueKindText:
		return json.Marshal(v.Text)
	case ValueKindNumber:
		return json.Marshal(v.Number)
	case ValueKindBool:
		return json.Marshal(v.Bool)
	case ValueKindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON infers the kind from the JSON token.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
