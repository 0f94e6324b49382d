// Package repository maps entity records onto store buckets as JSON values keyed by id.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"familyfinance/internal/core"
	"familyfinance/internal/storage"
)

// ErrUpdateMissing is returned by strict repositories when Update targets an id that does not exist
var ErrUpdateMissing = fmt.Errorf("update of missing record: %w", core.ErrNotFound)

// Records is the CRUD surface the HTTP layer and services depend on
type Records[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, id string, v T) (T, error)
	Delete(ctx context.Context, id string) error
	// Modify runs fn on the stored record inside one write transaction and
	// saves the result when fn reports a change. A missing id is ErrNotFound.
	Modify(ctx context.Context, id string, fn func(*T) (bool, error)) (T, bool, error)
	Bucket() string
}

type Options struct {
	// Strict makes Update of a missing id fail with ErrUpdateMissing instead of creating it
	Strict bool
	NewID  func() string
	Now    func() time.Time
}

type Option func(*Options)

func WithStrictUpdates(strict bool) Option {
	return func(o *Options) { o.Strict = strict }
}

func WithIDGenerator(fn func() string) Option {
	return func(o *Options) { o.NewID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(o *Options) { o.Now = fn }
}

func buildOptions(opts []Option) Options {
	o := Options{
		NewID: uuid.NewString,
		Now:   time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Repository stores values of T in one bucket. PT is *T and carries the entity methods.
type Repository[T any, PT interface {
	*T
	core.Entity
}] struct {
	store  storage.Store
	bucket string
	opts   Options
}

var _ Records[core.Expense] = (*Repository[core.Expense, *core.Expense])(nil)

func New[T any, PT interface {
	*T
	core.Entity
}](store storage.Store, bucket string, opts ...Option) *Repository[T, PT] {
	return &Repository[T, PT]{
		store:  store,
		bucket: bucket,
		opts:   buildOptions(opts),
	}
}

func (r *Repository[T, PT]) Bucket() string {
	return r.bucket
}

// List returns every record of the bucket in key order, never nil
func (r *Repository[T, PT]) List(ctx context.Context) ([]T, error) {
	items := make([]T, 0)
	err := r.store.View(ctx, func(tx storage.Tx) error {
		b, err := tx.Bucket(r.bucket)
		if err != nil {
			return err
		}
		return b.ForEach(func(key string, value []byte) error {
			var v T
			if err := json.Unmarshal(value, &v); err != nil {
				return fmt.Errorf("decode %s/%s: %w", r.bucket, key, err)
			}
			items = append(items, v)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.bucket, err)
	}
	return items, nil
}

func (r *Repository[T, PT]) Get(ctx context.Context, id string) (T, error) {
	var v T
	var found bool
	err := r.store.View(ctx, func(tx storage.Tx) error {
		var err error
		found, err = r.load(tx, id, &v)
		return err
	})
	if err != nil {
		return v, fmt.Errorf("get %s/%s: %w", r.bucket, id, err)
	}
	if !found {
		return v, fmt.Errorf("%s/%s: %w", r.bucket, id, core.ErrNotFound)
	}
	return v, nil
}

func (r *Repository[T, PT]) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.Get(ctx, id)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (r *Repository[T, PT]) Count(ctx context.Context) (int, error) {
	n := 0
	err := r.store.View(ctx, func(tx storage.Tx) error {
		b, err := tx.Bucket(r.bucket)
		if err != nil {
			return err
		}
		return b.ForEach(func(string, []byte) error {
			n++
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.bucket, err)
	}
	return n, nil
}

// Create stores v under its own id, generating one when empty. Server-managed
// fields (timestamps, defaults) are filled in and the stored value is returned.
// Creating over an existing id keeps that record's createdAt.
func (r *Repository[T, PT]) Create(ctx context.Context, v T) (T, error) {
	p := PT(&v)
	if err := prepare(p); err != nil {
		return v, err
	}
	if p.GetID() == "" {
		p.SetID(r.opts.NewID())
	}

	err := r.store.Update(ctx, func(tx storage.Tx) error {
		return r.write(tx, p, false)
	})
	if err != nil {
		return v, fmt.Errorf("create %s: %w", r.bucket, err)
	}
	return v, nil
}

// Update replaces the record stored under id. The id argument wins over any id
// in v, createdAt is carried over from the stored record and updatedAt always
// moves forward. A missing id is created unless the repository is strict.
func (r *Repository[T, PT]) Update(ctx context.Context, id string, v T) (T, error) {
	p := PT(&v)
	if err := prepare(p); err != nil {
		return v, err
	}
	p.SetID(id)

	err := r.store.Update(ctx, func(tx storage.Tx) error {
		return r.write(tx, p, r.opts.Strict)
	})
	if err != nil {
		return v, fmt.Errorf("update %s/%s: %w", r.bucket, id, err)
	}
	return v, nil
}

// Modify loads id, lets fn change it and writes it back in the same
// transaction, so writes committed after an earlier read are never lost.
// Nothing is written when fn returns false or an error.
func (r *Repository[T, PT]) Modify(ctx context.Context, id string, fn func(*T) (bool, error)) (T, bool, error) {
	var v T
	changed := false
	err := r.store.Update(ctx, func(tx storage.Tx) error {
		found, err := r.load(tx, id, &v)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s/%s: %w", r.bucket, id, core.ErrNotFound)
		}
		if changed, err = fn(&v); err != nil || !changed {
			return err
		}
		p := PT(&v)
		if err := prepare(p); err != nil {
			return err
		}
		p.SetID(id)
		return r.write(tx, p, true)
	})
	if err != nil {
		return v, false, fmt.Errorf("modify %s/%s: %w", r.bucket, id, err)
	}
	return v, changed, nil
}

// Delete removes id; deleting a missing id succeeds
func (r *Repository[T, PT]) Delete(ctx context.Context, id string) error {
	err := r.store.Update(ctx, func(tx storage.Tx) error {
		b, err := tx.Bucket(r.bucket)
		if err != nil {
			return err
		}
		return b.Delete(id)
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", r.bucket, id, err)
	}
	return nil
}

func prepare(p core.Entity) error {
	if v, ok := p.(core.Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if d, ok := p.(core.Defaulter); ok {
		d.ApplyDefaults()
	}
	return nil
}

// write stamps p against the currently stored version and puts it, all inside tx
func (r *Repository[T, PT]) write(tx storage.Tx, p PT, mustExist bool) error {
	b, err := tx.Bucket(r.bucket)
	if err != nil {
		return err
	}

	var existing T
	found, err := r.load(tx, p.GetID(), &existing)
	if err != nil {
		return err
	}
	if !found && mustExist {
		return ErrUpdateMissing
	}

	if ts, ok := any(p).(core.Timestamped); ok {
		now := r.opts.Now().UTC()
		created, updated := now, now
		if found {
			prevCreated, prevUpdated := any(PT(&existing)).(core.Timestamped).Timestamps()
			if !prevCreated.IsZero() {
				created = prevCreated
			}
			if !updated.After(prevUpdated) {
				updated = prevUpdated.Add(time.Nanosecond)
			}
		}
		ts.SetTimestamps(created, updated)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", r.bucket, p.GetID(), err)
	}
	return b.Put(p.GetID(), data)
}

func (r *Repository[T, PT]) load(tx storage.Tx, id string, into *T) (bool, error) {
	b, err := tx.Bucket(r.bucket)
	if err != nil {
		return false, err
	}
	data, err := b.Get(id)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", r.bucket, id, err)
	}
	return true, nil
}
