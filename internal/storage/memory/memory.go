// Package memory is an in-process storage.Store for tests and throwaway runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"familyfinance/internal/storage"
)

type Store struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	closed  bool
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{buckets: make(map[string]map[string][]byte)}
}

func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storage.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&tx{ctx: ctx, s: s})
}

// Update stages writes in the transaction and applies them only when fn succeeds
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t := &tx{ctx: ctx, s: s, writes: make(map[string]map[string][]byte)}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for name, writes := range t.writes {
		b := s.buckets[name]
		for k, v := range writes {
			if v == nil {
				delete(b, k)
			} else {
				b[k] = v
			}
		}
	}
	return nil
}

func (s *Store) EnsureBuckets(ctx context.Context, names ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStoreClosed
	}
	for _, name := range names {
		if _, ok := s.buckets[name]; !ok {
			s.buckets[name] = make(map[string][]byte)
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type tx struct {
	ctx context.Context
	s   *Store
	// nil for read-only transactions; a nil value marks a delete
	writes map[string]map[string][]byte
}

func (t *tx) Bucket(name string) (storage.Bucket, error) {
	base, ok := t.s.buckets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrBucketNotFound, name)
	}
	b := &bucket{tx: t, base: base}
	if t.writes != nil {
		if t.writes[name] == nil {
			t.writes[name] = make(map[string][]byte)
		}
		b.staged = t.writes[name]
	}
	return b, nil
}

type bucket struct {
	tx     *tx
	base   map[string][]byte
	staged map[string][]byte
}

func (b *bucket) lookup(key string) ([]byte, bool) {
	if b.staged != nil {
		if v, ok := b.staged[key]; ok {
			return v, v != nil
		}
	}
	v, ok := b.base[key]
	return v, ok
}

func (b *bucket) Get(key string) ([]byte, error) {
	v, ok := b.lookup(key)
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (b *bucket) Put(key string, value []byte) error {
	if b.staged == nil {
		return storage.ErrTxReadOnly
	}
	b.staged[key] = append(make([]byte, 0, len(value)), value...)
	return nil
}

func (b *bucket) Delete(key string) error {
	if b.staged == nil {
		return storage.ErrTxReadOnly
	}
	b.staged[key] = nil
	return nil
}

func (b *bucket) ForEach(fn func(key string, value []byte) error) error {
	keys := make([]string, 0, len(b.base)+len(b.staged))
	for k := range b.base {
		if _, shadowed := b.staged[k]; !shadowed {
			keys = append(keys, k)
		}
	}
	for k, v := range b.staged {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := b.tx.ctx.Err(); err != nil {
			return err
		}
		v, _ := b.lookup(k)
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}
