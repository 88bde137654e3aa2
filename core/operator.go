package core

import (
	"encoding/json"
	"strings"
)

// Operator is the comparison a HardFilterRule applies. The set is closed;
// anything that does not parse becomes OperatorUnrecognized.
type Operator int

const (
	OperatorUnrecognized Operator = iota
	OperatorEquals
	OperatorNotEquals
	OperatorGreaterThan
	OperatorLessThan
	OperatorContains
	OperatorNotContains
)

var operatorNames = map[Operator]string{
	OperatorEquals:      "equals",
	OperatorNotEquals:   "not-equals",
	OperatorGreaterThan: "greater-than",
	OperatorLessThan:    "less-than",
	OperatorContains:    "contains",
	OperatorNotContains: "not-contains",
}

// ParseOperator accepts the hyphenated names and their underscore spellings,
// case-insensitively.
func ParseOperator(s string) Operator {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for op, name := range operatorNames {
		if name == norm {
			return op
		}
	}
	return OperatorUnrecognized
}

// Recognized reports whether o is one of the six supported operators.
func (o Operator) Recognized() bool {
	_, ok := operatorNames[o]
	return ok
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "unrecognized"
}

// HardFilterRule is a binary exclusion rule evaluated before scoring.
// RawOperator keeps the configured spelling for diagnostics.
type HardFilterRule struct {
	Field       string
	Operator    Operator
	RawOperator string
	Value       Value
	Reason      string
}

// NewHardFilterRule builds a rule, parsing op into the closed operator set.
func NewHardFilterRule(field, op string, value Value, reason string) HardFilterRule {
	return HardFilterRule{
		Field:       field,
		Operator:    ParseOperator(op),
		RawOperator: op,
		Value:       value,
		Reason:      reason,
	}
}

type hardFilterRuleJSON struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    Value  `json:"value"`
	Reason   string `json:"reason"`
}

// MarshalJSON encodes the operator by name, preferring the configured spelling.
func (r HardFilterRule) MarshalJSON() ([]byte, error) {
	op := r.RawOperator
	if op == "" {
		op = r.Operator.String()
	}
	return json.Marshal(hardFilterRuleJSON{Field: r.Field, Operator: op, Value: r.Value, Reason: r.Reason})
}

// UnmarshalJSON decodes a rule; unknown operators decode without error.
func (r *HardFilterRule) UnmarshalJSON(data []byte) error {
	var raw hardFilterRuleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = NewHardFilterRule(raw.Field, raw.Operator, raw.Value, raw.Reason)
	return nil
}
