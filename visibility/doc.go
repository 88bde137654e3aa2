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


// Package visibility projects match explanations for different audiences.
//
// Each Role maps to a projection: a pure function from the full, privileged
// explanation to the subset that role may see. Requester and candidate views
// drop the numeric score, breakdown, rank and scoring notes, and pass every
// statement through a versioned table of rewrite rules that removes
// comparative phrasing and numeric points. The operator view keeps everything.
//
// Matrix documents the allowed and denied fields per role. It is kept in sync
// with the projections by tests, not consulted at runtime.
package visibility
