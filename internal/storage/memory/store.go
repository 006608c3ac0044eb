package memory

import (
	"bytes"
	"context"
	"sync/atomic"

	"github.com/yndnr/recofeed-go/internal/storage"
	"github.com/yndnr/recofeed-go/pkg/cmap"
)

// Store is a storage.KVEngine kept entirely in memory.
type Store struct {
	data   *cmap.Map[string, []byte]
	closed atomic.Bool
}

// Option configures the Store.
type Option func(*storeOptions)

type storeOptions struct {
	shards int
}

// WithShardCount sets the number of map shards.
func WithShardCount(n int) Option {
	return func(o *storeOptions) {
		o.shards = n
	}
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	o := storeOptions{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{data: cmap.NewWithShards[string, []byte](o.shards)}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	v, ok := s.data.Get(string(key))
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.data.Set(string(key), bytes.Clone(value))
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.data.Delete(string(key))
	return nil
}

// Scan visits keys with the given prefix in ascending order.
func (s *Store) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	for _, k := range s.data.SortedKeysWithPrefix(string(prefix)) {
		v, ok := s.data.Get(k)
		if !ok {
			continue
		}
		if !fn([]byte(k), bytes.Clone(v)) {
			break
		}
	}
	return nil
}

// Stats reports key count and total payload size.
func (s *Store) Stats(ctx context.Context) (*storage.KVStats, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var keys, size uint64
	s.data.Range(func(k string, v []byte) bool {
		keys++
		size += uint64(len(k) + len(v))
		return true
	})
	return &storage.KVStats{
		Engine:    storage.EngineMemory,
		TotalKeys: keys,
		TotalSize: size,
	}, nil
}

// Close drops all contents.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.data.Clear()
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	return ctx.Err()
}

var _ storage.KVEngine = (*Store)(nil)
