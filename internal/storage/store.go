// Package storage defines the record store used by every repository: named
// buckets of key/value pairs accessed through read-only and read-write
// transactions. Implementations live in the bolt, sqlite and memory
// subpackages.
package storage

import (
	"context"
	"errors"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrTxReadOnly     = errors.New("write in read-only transaction")
	ErrStoreClosed    = errors.New("store closed")
)

// Store is a bucketed key/value store with single-writer transactions.
//
// View runs fn in a read-only transaction that sees a consistent snapshot.
// Update runs fn in the only read-write transaction allowed at a time; when fn
// returns an error every write it made is discarded. Both abort with the
// context error when ctx is done before or while the transaction runs.
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	EnsureBuckets(ctx context.Context, names ...string) error
	Close() error
}

type Tx interface {
	Bucket(name string) (Bucket, error)
}

// Bucket is a flat map of record id to encoded record.
// Get returns nil, nil for a missing key and Delete of a missing key is a no-op.
// ForEach visits keys in ascending byte order.
type Bucket interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	ForEach(fn func(key string, value []byte) error) error
}

// Ping runs an empty read transaction, used by readiness checks
func Ping(ctx context.Context, s Store) error {
	return s.View(ctx, func(Tx) error { return nil })
}
