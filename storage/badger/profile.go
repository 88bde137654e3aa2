package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/rankwell/core"
	"github.com/poiesic/rankwell/storage"
)

// ProfileRepository implements storage.ProfileRepository for BadgerDB.
type ProfileRepository struct {
	backend *Backend
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(backend *Backend) *ProfileRepository {
	return &ProfileRepository{backend: backend}
}

// Close is a no-op; the backend is closed separately.
func (r *ProfileRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ProfileRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutRequesters inserts or replaces requesters by ID.
func (r *ProfileRepository) PutRequesters(ctx context.Context, requesters ...*core.Requester) error {
	for _, requester := range requesters {
		if err := core.ValidateRequester(requester); err != nil {
			return err
		}
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, requester := range requesters {
			if err := tx.Set(makeRequesterKey(requester.ID), storage.MarshalRequester(requester)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// PutCandidates inserts or replaces candidates by ID.
func (r *ProfileRepository) PutCandidates(ctx context.Context, candidates ...*core.Candidate) error {
	for _, candidate := range candidates {
		if err := core.ValidateCandidate(candidate); err != nil {
			return err
		}
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, candidate := range candidates {
			if err := tx.Set(makeCandidateKey(candidate.ID), storage.MarshalCandidate(candidate)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetRequester retrieves a requester by ID.
func (r *ProfileRepository) GetRequester(ctx context.Context, id string) (*core.Requester, error) {
	var result *core.Requester
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		requester, ok, err := getValue(tx, makeRequesterKey(id), storage.UnmarshalRequester)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}
		result = requester
		return nil
	}, false)
	return result, err
}

// GetCandidate retrieves a candidate by ID.
func (r *ProfileRepository) GetCandidate(ctx context.Context, id string) (*core.Candidate, error) {
	var result *core.Candidate
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		candidate, ok, err := getValue(tx, makeCandidateKey(id), storage.UnmarshalCandidate)
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}
		result = candidate
		return nil
	}, false)
	return result, err
}

// ListRequesters returns every stored requester ordered by ID.
func (r *ProfileRepository) ListRequesters(ctx context.Context) ([]*core.Requester, error) {
	var results []*core.Requester
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(requesterPrefix), func(_, val []byte) error {
			requester, err := storage.UnmarshalRequester(val)
			if err != nil {
				return err
			}
			results = append(results, requester)
			return nil
		})
	}, false)
	return results, err
}

// ListCandidates returns every stored candidate ordered by ID.
func (r *ProfileRepository) ListCandidates(ctx context.Context) ([]*core.Candidate, error) {
	var results []*core.Candidate
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(candidatePrefix), func(_, val []byte) error {
			candidate, err := storage.UnmarshalCandidate(val)
			if err != nil {
				return err
			}
			results = append(results, candidate)
			return nil
		})
	}, false)
	return results, err
}

// CountCandidates returns the number of stored candidates.
func (r *ProfileRepository) CountCandidates(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(candidatePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// DeleteCandidates removes candidates by ID.
func (r *ProfileRepository) DeleteCandidates(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeCandidateKey(id)
			if _, err := tx.Get(key); err != nil {
				if err == badger.ErrKeyNotFound {
					return storage.ErrNotFound
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}
