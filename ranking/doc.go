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


// Package ranking scores and orders candidates against one requester's
// declared preferences.
//
// A ranking run moves through fixed stages:
//   - Pool assembly drops candidates that are unavailable or incomplete
//   - Hard filters exclude candidates, reporting the first failing rule
//   - Similarity scoring sums weighted cosine similarity per field and
//     subtracts penalties for missing embeddings and brief answers
//   - Confidence measures how many governed fields carried usable vectors
//   - Sorting produces a strict total order (score, confidence, id)
//   - Explanation generation attaches ordered tokens to each result
//
// Every stage is a pure function over its inputs. Ranker wires the stages
// together, handles the empty-pool outcome and reports progress to a Monitor.
// Nothing is retained between runs.
package ranking
