package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/storage"
)

// EmbeddingCache implements storage.EmbeddingCache for BadgerDB.
type EmbeddingCache struct {
	backend *Backend
}

var _ storage.EmbeddingCache = (*EmbeddingCache)(nil)

// NewEmbeddingCache creates a new EmbeddingCache.
func NewEmbeddingCache(backend *Backend) *EmbeddingCache {
	return &EmbeddingCache{backend: backend}
}

// GetEmbedding returns the cached vector for key.
func (c *EmbeddingCache) GetEmbedding(ctx context.Context, key core.ID) ([]float32, bool, error) {
	var (
		vector []float32
		found  bool
	)
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		vector, found, err = getValue(tx, makeEmbeddingKey(key), storage.UnmarshalVector)
		return err
	}, false)
	return vector, found, err
}

// PutEmbedding stores vector under key.
func (c *EmbeddingCache) PutEmbedding(ctx context.Context, key core.ID, vector []float32) error {
	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeEmbeddingKey(key), storage.MarshalVector(vector)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
