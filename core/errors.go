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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRequester indicates a Requester failed validation.
	ErrInvalidRequester = errors.New("invalid requester")

	// ErrInvalidCandidate indicates a Candidate failed validation.
	ErrInvalidCandidate = errors.New("invalid candidate")

	// ErrInvalidWeightClass indicates the weight-class configuration failed validation.
	ErrInvalidWeightClass = errors.New("invalid weight class")

	// ErrInvalidHardFilterRule indicates a HardFilterRule failed validation.
	ErrInvalidHardFilterRule = errors.New("invalid hard filter rule")

	// ErrEmptyID indicates an identifier field is empty.
	ErrEmptyID = errors.New("identifier cannot be empty")

	// ErrDuplicateID indicates two entities in one request share an identifier.
	ErrDuplicateID = errors.New("duplicate identifier")

	// ErrEmptyFieldID indicates a field-id is empty.
	ErrEmptyFieldID = errors.New("field id cannot be empty")

	// ErrInvalidWeightTag indicates a weight class tag other than primary or secondary.
	ErrInvalidWeightTag = errors.New("invalid weight tag")

	// ErrInvalidWeight indicates a negative, NaN or infinite weight.
	ErrInvalidWeight = errors.New("weight must be a finite non-negative number")

	// ErrOverlappingFields indicates a field-id governed by more than one weight class.
	ErrOverlappingFields = errors.New("weight class fields must be disjoint")

	// ErrInvalidValueKind indicates a Value with an unknown kind.
	ErrInvalidValueKind = errors.New("invalid value kind")
)
