package core

import (
	"errors"
	"math"
	"testing"
)

func TestValidateRequester(t *testing.T) {
	tests := []struct {
		name      string
		requester *Requester
		wantErr   error
	}{
		{
			name:      "valid requester",
			requester: &Requester{ID: "r1", Embeddings: map[string][]float32{"goals": {1, 0}}},
			wantErr:   nil,
		},
		{
			name:      "valid requester without embeddings",
			requester: &Requester{ID: "r1"},
			wantErr:   nil,
		},
		{
			name:      "nil requester",
			requester: nil,
			wantErr:   ErrInvalidRequester,
		},
		{
			name:      "empty id",
			requester: &Requester{},
			wantErr:   ErrEmptyID,
		},
		{
			name:      "empty response field",
			requester: &Requester{ID: "r1", Responses: map[string]string{"": "hiking"}},
			wantErr:   ErrEmptyFieldID,
		},
		{
			name:      "empty embedding field",
			requester: &Requester{ID: "r1", Embeddings: map[string][]float32{"": {1}}},
			wantErr:   ErrEmptyFieldID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequester(tt.requester)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRequester() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRequester() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCandidates(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		wantErr    error
	}{
		{
			name:       "valid candidates",
			candidates: []Candidate{{ID: "a"}, {ID: "b"}},
		},
		{
			name:       "empty list",
			candidates: nil,
		},
		{
			name:       "empty id",
			candidates: []Candidate{{ID: "a"}, {}},
			wantErr:    ErrEmptyID,
		},
		{
			name:       "duplicate id",
			candidates: []Candidate{{ID: "a"}, {ID: "a"}},
			wantErr:    ErrDuplicateID,
		},
		{
			name: "bad value kind",
			candidates: []Candidate{{
				ID:        "a",
				Responses: map[string]Value{"x": {Kind: ValueKind(99)}},
			}},
			wantErr: ErrInvalidValueKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCandidates(tt.candidates)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCandidates() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCandidates() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidCandidate) {
				t.Errorf("ValidateCandidates() error = %v, want wrapped %v", err, ErrInvalidCandidate)
			}
		})
	}
}

func TestValidateWeightClasses(t *testing.T) {
	tests := []struct {
		name    string
		classes []WeightClass
		wantErr error
	}{
		{
			name: "valid classes",
			classes: []WeightClass{
				{Tag: WeightPrimary, Weight: 0.7, Fields: []string{"goals", "style"}},
				{Tag: WeightSecondary, Weight: 0.3, Fields: []string{"schedule"}},
			},
		},
		{
			name:    "no classes",
			classes: nil,
		},
		{
			name:    "zero weight",
			classes: []WeightClass{{Tag: WeightPrimary, Weight: 0, Fields: []string{"goals"}}},
		},
		{
			name:    "invalid tag",
			classes: []WeightClass{{Tag: "tertiary", Weight: 0.1, Fields: []string{"goals"}}},
			wantErr: ErrInvalidWeightTag,
		},
		{
			name:    "negative weight",
			classes: []WeightClass{{Tag: WeightPrimary, Weight: -1, Fields: []string{"goals"}}},
			wantErr: ErrInvalidWeight,
		},
		{
			name:    "nan weight",
			classes: []WeightClass{{Tag: WeightPrimary, Weight: math.NaN(), Fields: []string{"goals"}}},
			wantErr: ErrInvalidWeight,
		},
		{
			name:    "empty field",
			classes: []WeightClass{{Tag: WeightPrimary, Weight: 1, Fields: []string{""}}},
			wantErr: ErrEmptyFieldID,
		},
		{
			name: "overlapping fields",
			classes: []WeightClass{
				{Tag: WeightPrimary, Weight: 0.7, Fields: []string{"goals"}},
				{Tag: WeightSecondary, Weight: 0.3, Fields: []string{"goals"}},
			},
			wantErr: ErrOverlappingFields,
		},
		{
			name:    "duplicate field within class",
			classes: []WeightClass{{Tag: WeightPrimary, Weight: 1, Fields: []string{"goals", "goals"}}},
			wantErr: ErrOverlappingFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWeightClasses(tt.classes)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateWeightClasses() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrInvalidWeightClass) {
				t.Errorf("ValidateWeightClasses() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateHardFilterRule(t *testing.T) {
	unknown := NewHardFilterRule("rate", "at-most", NumberValue(80), "Too expensive")
	if err := ValidateHardFilterRule(&unknown); err != nil {
		t.Errorf("ValidateHardFilterRule() error = %v for unrecognized operator, want nil", err)
	}

	empty := NewHardFilterRule("", "equals", TextValue("x"), "")
	if err := ValidateHardFilterRule(&empty); !errors.Is(err, ErrEmptyFieldID) {
		t.Errorf("ValidateHardFilterRule() error = %v, want %v", err, ErrEmptyFieldID)
	}

	if err := ValidateHardFilterRule(nil); !errors.Is(err, ErrInvalidHardFilterRule) {
		t.Errorf("ValidateHardFilterRule(nil) error = %v, want %v", err, ErrInvalidHardFilterRule)
	}
}
