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


package ranking

import "errors"

var (
	// ErrInvalidRequest is returned when a ranking request fails structural validation.
	ErrInvalidRequest = errors.New("invalid ranking request")

	// ErrInvalidParams is returned when scoring parameters are negative or not finite.
	ErrInvalidParams = errors.New("invalid scoring parameters")

	// ErrDimensionMismatch is returned when two embeddings have different lengths.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrZeroVector is returned when cosine similarity is requested for a zero-norm vector.
	ErrZeroVector = errors.New("zero-norm vector")
)
