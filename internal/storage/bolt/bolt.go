// Package bolt implements storage.Store on a single bbolt database file.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"familyfinance/internal/storage"
)

const (
	DefaultTimeout  = time.Second
	defaultFileMode = 0600
)

type Store struct {
	db *bbolt.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens or creates the database at path. Timeout bounds the wait for the
// file lock held by another process; zero means DefaultTimeout.
func Open(path string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, defaultFileMode, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(btx *bbolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(&tx{ctx: ctx, btx: btx})
	})
}

func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		// bbolt blocks on the writer lock without watching ctx
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(&tx{ctx: ctx, btx: btx, writable: true}); err != nil {
			return err
		}
		// a deadline that expired during fn rolls back instead of committing
		return ctx.Err()
	})
}

func (s *Store) EnsureBuckets(ctx context.Context, names ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		for _, name := range names {
			if _, err := btx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.db.Path()
}

type tx struct {
	ctx      context.Context
	btx      *bbolt.Tx
	writable bool
}

func (t *tx) Bucket(name string) (storage.Bucket, error) {
	b := t.btx.Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrBucketNotFound, name)
	}
	return &bucket{tx: t, b: b}, nil
}

type bucket struct {
	tx *tx
	b  *bbolt.Bucket
}

func (b *bucket) Get(key string) ([]byte, error) {
	v := b.b.Get([]byte(key))
	if v == nil {
		return nil, nil
	}
	// bbolt memory is only valid until the transaction ends
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (b *bucket) Put(key string, value []byte) error {
	if !b.tx.writable {
		return storage.ErrTxReadOnly
	}
	return b.b.Put([]byte(key), value)
}

func (b *bucket) Delete(key string) error {
	if !b.tx.writable {
		return storage.ErrTxReadOnly
	}
	return b.b.Delete([]byte(key))
}

func (b *bucket) ForEach(fn func(key string, value []byte) error) error {
	return b.b.ForEach(func(k, v []byte) error {
		if err := b.tx.ctx.Err(); err != nil {
			return err
		}
		return fn(string(k), v)
	})
}
