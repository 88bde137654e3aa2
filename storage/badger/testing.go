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


package badger

// Repositories bundles the repositories that share one backend.
type Repositories struct {
	Profiles   *ProfileRepository
	Embeddings *EmbeddingCache
	Runs       *RunRepository
}

// NewRepositories creates every repository on backend.
func NewRepositories(backend *Backend) *Repositories {
	return &Repositories{
		Profiles:   NewProfileRepository(backend),
		Embeddings: NewEmbeddingCache(backend),
		Runs:       NewRunRepository(backend),
	}
}

// NewMemoryRepositories opens an in-memory backend for tests and returns
// its repositories. Callers close the backend when done.
func NewMemoryRepositories() (*Repositories, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}
	return NewRepositories(backend), backend, nil
}
