// Package storagetest holds the behaviour every storage.Store implementation must share.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyfinance/internal/storage"
)

// Factory returns a fresh, empty store; the suite closes it
type Factory func(t *testing.T) storage.Store

var errBoom = errors.New("boom")

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"ensure buckets is idempotent", testEnsureBuckets},
		{"unknown bucket", testUnknownBucket},
		{"put get delete", testPutGetDelete},
		{"foreach visits keys in order", testForEachOrder},
		{"failed update rolls back", testRollback},
		{"view is read only", testReadOnly},
		{"cancelled context aborts", testCancelled},
		{"deadline expiring inside update rolls back", testDeadlineDuringUpdate},
		{"concurrent writers are serialised", testConcurrentWriters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			require.NoError(t, s.EnsureBuckets(context.Background(), "things", "others"))
			tt.fn(t, s)
		})
	}
}

func put(t *testing.T, s storage.Store, bucket, key, value string) {
	t.Helper()
	require.NoError(t, s.Update(context.Background(), func(tx storage.Tx) error {
		b, err := tx.Bucket(bucket)
		if err != nil {
			return err
		}
		return b.Put(key, []byte(value))
	}))
}

func get(t *testing.T, s storage.Store, bucket, key string) []byte {
	t.Helper()
	var out []byte
	require.NoError(t, s.View(context.Background(), func(tx storage.Tx) error {
		b, err := tx.Bucket(bucket)
		if err != nil {
			return err
		}
		out, err = b.Get(key)
		return err
	}))
	return out
}

func count(t *testing.T, s storage.Store, bucket string) int {
	t.Helper()
	n := 0
	require.NoError(t, s.View(context.Background(), func(tx storage.Tx) error {
		b, err := tx.Bucket(bucket)
		if err != nil {
			return err
		}
		return b.ForEach(func(string, []byte) error {
			n++
			return nil
		})
	}))
	return n
}

func testEnsureBuckets(t *testing.T, s storage.Store) {
	put(t, s, "things", "a", "1")
	require.NoError(t, s.EnsureBuckets(context.Background(), "things", "others"))
	assert.Equal(t, []byte("1"), get(t, s, "things", "a"))
}

func testUnknownBucket(t *testing.T, s storage.Store) {
	err := s.View(context.Background(), func(tx storage.Tx) error {
		_, err := tx.Bucket("missing")
		return err
	})
	assert.ErrorIs(t, err, storage.ErrBucketNotFound)
}

func testPutGetDelete(t *testing.T, s storage.Store) {
	assert.Nil(t, get(t, s, "things", "a"))

	put(t, s, "things", "a", `{"v":1}`)
	put(t, s, "others", "a", `{"v":2}`)
	assert.Equal(t, []byte(`{"v":1}`), get(t, s, "things", "a"))
	assert.Equal(t, []byte(`{"v":2}`), get(t, s, "others", "a"))

	put(t, s, "things", "a", `{"v":3}`)
	assert.Equal(t, []byte(`{"v":3}`), get(t, s, "things", "a"))

	del := func() error {
		return s.Update(context.Background(), func(tx storage.Tx) error {
			b, err := tx.Bucket("things")
			if err != nil {
				return err
			}
			return b.Delete("a")
		})
	}
	require.NoError(t, del())
	require.NoError(t, del())
	assert.Nil(t, get(t, s, "things", "a"))
	assert.Equal(t, []byte(`{"v":2}`), get(t, s, "others", "a"))
}

func testForEachOrder(t *testing.T, s storage.Store) {
	for _, k := range []string{"c", "a", "b"} {
		put(t, s, "things", k, k)
	}
	var keys []string
	require.NoError(t, s.View(context.Background(), func(tx storage.Tx) error {
		b, err := tx.Bucket("things")
		if err != nil {
			return err
		}
		return b.ForEach(func(k string, v []byte) error {
			assert.Equal(t, k, string(v))
			keys = append(keys, k)
			return nil
		})
	}))
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	stop := errors.New("stop")
	var visited int
	err := s.View(context.Background(), func(tx storage.Tx) error {
		b, _ := tx.Bucket("things")
		return b.ForEach(func(string, []byte) error {
			visited++
			return stop
		})
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, visited)
}

func testRollback(t *testing.T, s storage.Store) {
	put(t, s, "things", "keep", "v1")

	err := s.Update(context.Background(), func(tx storage.Tx) error {
		b, err := tx.Bucket("things")
		if err != nil {
			return err
		}
		if err := b.Put("keep", []byte("v2")); err != nil {
			return err
		}
		if err := b.Put("new", []byte("x")); err != nil {
			return err
		}
		got, err := b.Get("new")
		if err != nil {
			return err
		}
		if string(got) != "x" {
			return fmt.Errorf("own write not visible: %q", got)
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []byte("v1"), get(t, s, "things", "keep"))
	assert.Nil(t, get(t, s, "things", "new"))
}

func testReadOnly(t *testing.T, s storage.Store) {
	err := s.View(context.Background(), func(tx storage.Tx) error {
		b, err := tx.Bucket("things")
		if err != nil {
			return err
		}
		return b.Put("a", []byte("1"))
	})
	assert.ErrorIs(t, err, storage.ErrTxReadOnly)

	err = s.View(context.Background(), func(tx storage.Tx) error {
		b, _ := tx.Bucket("things")
		return b.Delete("a")
	})
	assert.ErrorIs(t, err, storage.ErrTxReadOnly)
	assert.Equal(t, 0, count(t, s, "things"))
}

func testCancelled(t *testing.T, s storage.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Update(ctx, func(storage.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	err = s.View(ctx, func(storage.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func testDeadlineDuringUpdate(t *testing.T, s storage.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	err := s.Update(ctx, func(tx storage.Tx) error {
		b, err := tx.Bucket("things")
		if err != nil {
			return err
		}
		if err := b.Put("late", []byte("x")); err != nil {
			return err
		}
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, get(t, s, "things", "late"))
}

func testConcurrentWriters(t *testing.T, s storage.Store) {
	const writers = 20
	put(t, s, "things", "counter", "0")

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			errs <- s.Update(ctx, func(tx storage.Tx) error {
				b, err := tx.Bucket("things")
				if err != nil {
					return err
				}
				v, err := b.Get("counter")
				if err != nil {
					return err
				}
				var n int
				if _, err := fmt.Sscanf(string(v), "%d", &n); err != nil {
					return err
				}
				return b.Put("counter", []byte(fmt.Sprint(n+1)))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, []byte(fmt.Sprint(writers)), get(t, s, "things", "counter"))
}
