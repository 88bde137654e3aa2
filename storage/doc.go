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


// Package storage defines the persistence interfaces for profiles, cached
// embeddings and ranking-run audit records, along with their binary
// serialization.
//
// The ranking pipeline itself never touches storage. Profiles are loaded
// before a run and passed in by value; run records are written afterwards.
//
// Implementations live in subpackages; see storage/badger.
package storage
