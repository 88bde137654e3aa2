package storage

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/rankwell/core"
)

// Serializers for the records kept in storage. Map entries are written in
// key order so identical records always produce identical bytes.
var (
	IDMUS        mus.Serializer[core.ID]               = idSer{}
	VectorMUS    mus.Serializer[[]float32]             = vectorSer{}
	ValueMUS     mus.Serializer[core.Value]            = valueSer{}
	RequesterMUS mus.Serializer[core.Requester]        = requesterSer{}
	CandidateMUS mus.Serializer[core.Candidate]        = candidateSer{}
	RunRecordMUS mus.Serializer[core.RunRecord]        = runRecordSer{}
	stringsMUS   mus.Serializer[[]string]              = stringsSer{}
	textMapMUS   mus.Serializer[map[string]string]     = textMapSer{}
	vectorMapMUS mus.Serializer[map[string][]float32]  = vectorMapSer{}
	valueMapMUS  mus.Serializer[map[string]core.Value] = valueMapSer{}
)

// reader threads an offset and the first error through a sequence of
// Unmarshal calls.
type reader struct {
	bs  []byte
	n   int
	err error
}

func read[T any](r *reader, ser mus.Serializer[T]) (v T) {
	if r.err != nil {
		return v
	}
	v, n, err := ser.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func skipWith[T any](ser mus.Serializer[T], bs []byte) (int, error) {
	_, n, err := ser.Unmarshal(bs)
	return n, err
}

func readLength(r *reader) int {
	l := read[int](r, varint.Int)
	if r.err == nil && (l < 0 || l > len(r.bs)-r.n) {
		r.err = fmt.Errorf("%w: length %d", ErrTruncatedData, l)
	}
	return l
}

type idSer struct{}

func (idSer) Marshal(v core.ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idSer) Size(v core.ID) int {
	return varint.Uint64.Size(uint64(v))
}

func (s idSer) Skip(bs []byte) (int, error) {
	return skipWith[core.ID](s, bs)
}

func (idSer) Unmarshal(bs []byte) (core.ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return core.ID(v), n, err
}

type vectorSer struct{}

func (vectorSer) Size(v []float32) int {
	return varint.Int.Size(len(v)) + len(v)*raw.Float32.Size(0)
}

func (vectorSer) Marshal(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (vectorSer) Unmarshal(bs []byte) ([]float32, int, error) {
	r := &reader{bs: bs}
	l := readLength(r)
	if r.err != nil || l == 0 {
		return nil, r.n, r.err
	}
	v := make([]float32, l)
	for i := range v {
		v[i] = read[float32](r, raw.Float32)
	}
	return v, r.n, r.err
}

func (s vectorSer) Skip(bs []byte) (int, error) {
	return skipWith[[]float32](s, bs)
}

type stringsSer struct{}

func (stringsSer) Size(v []string) int {
	size := varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

func (stringsSer) Marshal(v []string, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func (stringsSer) Unmarshal(bs []byte) ([]string, int, error) {
	r := &reader{bs: bs}
	l := readLength(r)
	if r.err != nil || l == 0 {
		return nil, r.n, r.err
	}
	v := make([]string, l)
	for i := range v {
		v[i] = read[string](r, ord.String)
	}
	return v, r.n, r.err
}

func (s stringsSer) Skip(bs []byte) (int, error) {
	return skipWith[[]string](s, bs)
}

type valueSer struct{}

func (valueSer) Size(v core.Value) int {
	size := varint.Int.Size(int(v.Kind))
	switch v.Kind {
	case core.ValueKindText:
		size += ord.String.Size(v.Text)
	case core.ValueKindNumber:
		size += raw.Float64.Size(v.Number)
	case core.ValueKindBool:
		size += ord.Bool.Size(v.Bool)
	case core.ValueKindList:
		size += stringsMUS.Size(v.List)
	}
	return size
}

func (valueSer) Marshal(v core.Value, bs []byte) int {
	n := varint.Int.Marshal(int(v.Kind), bs)
	switch v.Kind {
	case core.ValueKindText:
		n += ord.String.Marshal(v.Text, bs[n:])
	case core.ValueKindNumber:
		n += raw.Float64.Marshal(v.Number, bs[n:])
	case core.ValueKindBool:
		n += ord.Bool.Marshal(v.Bool, bs[n:])
	case core.ValueKindList:
		n += stringsMUS.Marshal(v.List, bs[n:])
	}
	return n
}

func (valueSer) Unmarshal(bs []byte) (core.Value, int, error) {
	r := &reader{bs: bs}
	v := core.Value{Kind: core.ValueKind(read[int](r, varint.Int))}
	if r.err != nil {
		return core.Value{}, r.n, r.err
	}
	switch v.Kind {
	case 0:
	case core.ValueKindText:
		v.Text = read[string](r, ord.String)
	case core.ValueKindNumber:
		v.Number = read[float64](r, raw.Float64)
	case core.ValueKindBool:
		v.Bool = read[bool](r, ord.Bool)
	case core.ValueKindList:
		v.List = read[[]string](r, stringsMUS)
	default:
		return core.Value{}, r.n, fmt.Errorf("%w: %w: %d", ErrSerializationFailed, core.ErrInvalidValueKind, v.Kind)
	}
	return v, r.n, r.err
}

func (s valueSer) Skip(bs []byte) (int, error) {
	return skipWith[core.Value](s, bs)
}

// mapSer writes a string-keyed map as a count followed by key/value pairs
// in key order.
type mapSer[V any] struct {
	values mus.Serializer[V]
}

func (s mapSer[V]) size(m map[string]V) int {
	size := varint.Int.Size(len(m))
	for k, v := range m {
		size += ord.String.Size(k) + s.values.Size(v)
	}
	return size
}

func (s mapSer[V]) marshal(m map[string]V, bs []byte) int {
	n := varint.Int.Marshal(len(m), bs)
	for _, k := range slices.Sorted(maps.Keys(m)) {
		n += ord.String.Marshal(k, bs[n:])
		n += s.values.Marshal(m[k], bs[n:])
	}
	return n
}

func (s mapSer[V]) unmarshal(bs []byte) (map[string]V, int, error) {
	r := &reader{bs: bs}
	l := readLength(r)
	if r.err != nil || l == 0 {
		return nil, r.n, r.err
	}
	m := make(map[string]V, l)
	for range l {
		k := read[string](r, ord.String)
		v := read[V](r, s.values)
		if r.err != nil {
			return nil, r.n, r.err
		}
		m[k] = v
	}
	return m, r.n, nil
}

type textMapSer struct{}

var textMap = mapSer[string]{values: ord.String}

func (textMapSer) Size(m map[string]string) int {
	return textMap.size(m)
}

func (textMapSer) Marshal(m map[string]string, bs []byte) int {
	return textMap.marshal(m, bs)
}

func (textMapSer) Unmarshal(bs []byte) (map[string]string, int, error) {
	return textMap.unmarshal(bs)
}

func (s textMapSer) Skip(bs []byte) (int, error) {
	return skipWith[map[string]string](s, bs)
}

type vectorMapSer struct{}

var vectorMap = mapSer[[]float32]{values: vectorSer{}}

func (vectorMapSer) Size(m map[string][]float32) int {
	return vectorMap.size(m)
}

func (vectorMapSer) Marshal(m map[string][]float32, bs []byte) int {
	return vectorMap.marshal(m, bs)
}

func (vectorMapSer) Unmarshal(bs []byte) (map[string][]float32, int, error) {
	return vectorMap.unmarshal(bs)
}

func (s vectorMapSer) Skip(bs []byte) (int, error) {
	return skipWith[map[string][]float32](s, bs)
}

type valueMapSer struct{}

var valueMap = mapSer[core.Value]{values: valueSer{}}

func (valueMapSer) Size(m map[string]core.Value) int {
	return valueMap.size(m)
}

func (valueMapSer) Marshal(m map[string]core.Value, bs []byte) int {
	return valueMap.marshal(m, bs)
}

func (valueMapSer) Unmarshal(bs []byte) (map[string]core.Value, int, error) {
	return valueMap.unmarshal(bs)
}

func (s valueMapSer) Skip(bs []byte) (int, error) {
	return skipWith[map[string]core.Value](s, bs)
}

type requesterSer struct{}

func (requesterSer) Size(v core.Requester) int {
	return ord.String.Size(v.ID) + textMapMUS.Size(v.Responses) + vectorMapMUS.Size(v.Embeddings)
}

func (requesterSer) Marshal(v core.Requester, bs []byte) int {
	n := ord.String.Marshal(v.ID, bs)
	n += textMapMUS.Marshal(v.Responses, bs[n:])
	n += vectorMapMUS.Marshal(v.Embeddings, bs[n:])
	return n
}

func (requesterSer) Unmarshal(bs []byte) (core.Requester, int, error) {
	r := &reader{bs: bs}
	v := core.Requester{
		ID:         read[string](r, ord.String),
		Responses:  read[map[string]string](r, textMapMUS),
		Embeddings: read[map[string][]float32](r, vectorMapMUS),
	}
	return v, r.n, r.err
}

func (s requesterSer) Skip(bs []byte) (int, error) {
	return skipWith[core.Requester](s, bs)
}

type candidateSer struct{}

func (candidateSer) Size(v core.Candidate) int {
	return ord.String.Size(v.ID) +
		valueMapMUS.Size(v.Responses) +
		vectorMapMUS.Size(v.Embeddings) +
		ord.Bool.Size(v.Available) +
		stringsMUS.Size(v.RequiredFields)
}

func (candidateSer) Marshal(v core.Candidate, bs []byte) int {
	n := ord.String.Marshal(v.ID, bs)
	n += valueMapMUS.Marshal(v.Responses, bs[n:])
	n += vectorMapMUS.Marshal(v.Embeddings, bs[n:])
	n += ord.Bool.Marshal(v.Available, bs[n:])
	n += stringsMUS.Marshal(v.RequiredFields, bs[n:])
	return n
}

func (candidateSer) Unmarshal(bs []byte) (core.Candidate, int, error) {
	r := &reader{bs: bs}
	v := core.Candidate{
		ID:             read[string](r, ord.String),
		Responses:      read[map[string]core.Value](r, valueMapMUS),
		Embeddings:     read[map[string][]float32](r, vectorMapMUS),
		Available:      read[bool](r, ord.Bool),
		RequiredFields: read[[]string](r, stringsMUS),
	}
	return v, r.n, r.err
}

func (s candidateSer) Skip(bs []byte) (int, error) {
	return skipWith[core.Candidate](s, bs)
}

type runRecordSer struct{}

func (runRecordSer) Size(v core.RunRecord) int {
	return ord.String.Size(v.RunID) +
		ord.String.Size(v.RequesterID) +
		varint.Int64.Size(v.GeneratedAt.UnixMicro()) +
		varint.Int.Size(v.FilteredCount) +
		varint.Int.Size(v.RankedCount) +
		ord.String.Size(string(v.ConfidenceLevel)) +
		ord.String.Size(v.Reason) +
		stringsMUS.Size(v.RankedIDs) +
		raw.Float64.Size(v.TopScore)
}

func (runRecordSer) Marshal(v core.RunRecord, bs []byte) int {
	n := ord.String.Marshal(v.RunID, bs)
	n += ord.String.Marshal(v.RequesterID, bs[n:])
	n += varint.Int64.Marshal(v.GeneratedAt.UnixMicro(), bs[n:])
	n += varint.Int.Marshal(v.FilteredCount, bs[n:])
	n += varint.Int.Marshal(v.RankedCount, bs[n:])
	n += ord.String.Marshal(string(v.ConfidenceLevel), bs[n:])
	n += ord.String.Marshal(v.Reason, bs[n:])
	n += stringsMUS.Marshal(v.RankedIDs, bs[n:])
	n += raw.Float64.Marshal(v.TopScore, bs[n:])
	return n
}

func (runRecordSer) Unmarshal(bs []byte) (core.RunRecord, int, error) {
	r := &reader{bs: bs}
	v := core.RunRecord{
		RunID:       read[string](r, ord.String),
		RequesterID: read[string](r, ord.String),
		GeneratedAt: time.UnixMicro(read[int64](r, varint.Int64)).UTC(),
	}
	v.FilteredCount = read[int](r, varint.Int)
	v.RankedCount = read[int](r, varint.Int)
	v.ConfidenceLevel = core.ConfidenceLevel(read[string](r, ord.String))
	v.Reason = read[string](r, ord.String)
	v.RankedIDs = read[[]string](r, stringsMUS)
	v.TopScore = read[float64](r, raw.Float64)
	return v, r.n, r.err
}

func (s runRecordSer) Skip(bs []byte) (int, error) {
	return skipWith[core.RunRecord](s, bs)
}
