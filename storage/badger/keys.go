package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/storage"
)

const (
	requesterPrefix = "req:"
	candidatePrefix = "cand:"
	embeddingPrefix = "emb:"
	runPrefix       = "run:"
	runTimePrefix   = "runts:"
)

var errStorageClosed = storage.ErrStorageClosed

func makeRequesterKey(id string) []byte {
	return []byte(requesterPrefix + id)
}

func makeCandidateKey(id string) []byte {
	return []byte(candidatePrefix + id)
}

func makeEmbeddingKey(id core.ID) []byte {
	buf := make([]byte, len(embeddingPrefix)+8)
	offset := copy(buf, embeddingPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

func makeRunKey(runID string) []byte {
	return []byte(runPrefix + runID)
}

// makeRunTimeKey orders runs by generation time, then run ID.
func makeRunTimeKey(ts time.Time, runID string) []byte {
	buf := make([]byte, len(runTimePrefix)+8+len(runID))
	offset := copy(buf, runTimePrefix)
	// BigEndian so lexicographic order matches time order
	binary.BigEndian.PutUint64(buf[offset:], uint64(ts.UnixMicro()))
	offset += 8
	copy(buf[offset:], runID)
	return buf
}
