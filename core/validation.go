// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"math"
)

// ValidateRequester validates a Requester according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Response and embedding field-ids must not be empty
//
// NOT validated (degrade to penalties during scoring):
//   - Embedding presence, length or norm
func ValidateRequester(requester *Requester) error {
	if requester == nil {
		return fmt.Errorf("%w: requester is nil", ErrInvalidRequester)
	}

	if requester.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequester, ErrEmptyID)
	}

	for field := range requester.Responses {
		if field == "" {
			return fmt.Errorf("%w: %w", ErrInvalidRequester, ErrEmptyFieldID)
		}
	}

	for field := range requester.Embeddings {
		if field == "" {
			return fmt.Errorf("%w: %w", ErrInvalidRequester, ErrEmptyFieldID)
		}
	}

	return nil
}

// ValidateCandidate validates a Candidate according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Every recorded response must have a known kind
//
// NOT validated (handled by pool assembly):
//   - Availability
//   - Required fields being answered
func ValidateCandidate(candidate *Candidate) error {
	if candidate == nil {
		return fmt.Errorf("%w: candidate is nil", ErrInvalidCandidate)
	}

	if candidate.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrEmptyID)
	}

	for field, value := range candidate.Responses {
		if value.Kind != 0 && !value.Kind.Valid() {
			return fmt.Errorf("%w: field %q: %w", ErrInvalidCandidate, field, ErrInvalidValueKind)
		}
	}

	return nil
}

// ValidateCandidates validates each candidate and rejects duplicate IDs,
// which would make the id tie-break ambiguous.
func ValidateCandidates(candidates []Candidate) error {
	seen := make(map[string]struct{}, len(candidates))
	for i := range candidates {
		if err := ValidateCandidate(&candidates[i]); err != nil {
			return err
		}
		if _, dup := seen[candidates[i].ID]; dup {
			return fmt.Errorf("%w: %w: %q", ErrInvalidCandidate, ErrDuplicateID, candidates[i].ID)
		}
		seen[candidates[i].ID] = struct{}{}
	}
	return nil
}

// ValidateWeightClasses validates the weight-class configuration.
//
// Validation rules:
//   - Tag must be primary or secondary
//   - Weight must be finite and non-negative
//   - Field-ids must not be empty
//   - No field-id may be governed by more than one class
func ValidateWeightClasses(classes []WeightClass) error {
	owner := make(map[string]WeightTag)
	for _, class := range classes {
		if !class.Tag.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidWeightClass, ErrInvalidWeightTag, class.Tag)
		}
		if math.IsNaN(class.Weight) || math.IsInf(class.Weight, 0) || class.Weight < 0 {
			return fmt.Errorf("%w: %w: %v", ErrInvalidWeightClass, ErrInvalidWeight, class.Weight)
		}
		for _, field := range class.Fields {
			if field == "" {
				return fmt.Errorf("%w: %w", ErrInvalidWeightClass, ErrEmptyFieldID)
			}
			if prev, ok := owner[field]; ok {
				return fmt.Errorf("%w: %w: %q in %s and %s", ErrInvalidWeightClass, ErrOverlappingFields, field, prev, class.Tag)
			}
			owner[field] = class.Tag
		}
	}
	return nil
}

// ValidateHardFilterRule validates a HardFilterRule. An unrecognized operator
// is not a validation error; evaluation treats it as passing.
func ValidateHardFilterRule(rule *HardFilterRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is nil", ErrInvalidHardFilterRule)
	}

	if rule.Field == "" {
		return fmt.Errorf("%w: %w", ErrInvalidHardFilterRule, ErrEmptyFieldID)
	}

	return nil
}
