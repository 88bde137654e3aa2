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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go"
	"github.com/poiesic/rankwell/core"
)

func marshal[T any](ser mus.Serializer[T], v T) []byte {
	buf := make([]byte, ser.Size(v))
	ser.Marshal(v, buf)
	return buf
}

func unmarshal[T any](ser mus.Serializer[T], data []byte) (T, error) {
	v, _, err := ser.Unmarshal(data)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return v, nil
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	return marshal(IDMUS, id)
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	return unmarshal(IDMUS, data)
}

// MarshalVector serializes an embedding vector to bytes.
func MarshalVector(vector []float32) []byte {
	return marshal(VectorMUS, vector)
}

// UnmarshalVector deserializes an embedding vector from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	return unmarshal(VectorMUS, data)
}

// MarshalRequester serializes a Requester to bytes.
func MarshalRequester(requester *core.Requester) []byte {
	return marshal(RequesterMUS, *requester)
}

// UnmarshalRequester deserializes a Requester from bytes.
func UnmarshalRequester(data []byte) (*core.Requester, error) {
	requester, err := unmarshal(RequesterMUS, data)
	if err != nil {
		return nil, err
	}
	return &requester, nil
}

// MarshalCandidate serializes a Candidate to bytes.
func MarshalCandidate(candidate *core.Candidate) []byte {
	return marshal(CandidateMUS, *candidate)
}

// UnmarshalCandidate deserializes a Candidate from bytes.
func UnmarshalCandidate(data []byte) (*core.Candidate, error) {
	candidate, err := unmarshal(CandidateMUS, data)
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

// MarshalRunRecord serializes a RunRecord to bytes.
func MarshalRunRecord(record *core.RunRecord) []byte {
	return marshal(RunRecordMUS, *record)
}

// UnmarshalRunRecord deserializes a RunRecord from bytes.
func UnmarshalRunRecord(data []byte) (*core.RunRecord, error) {
	record, err := unmarshal(RunRecordMUS, data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
