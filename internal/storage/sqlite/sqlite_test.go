package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyfinance/internal/storage"
	"familyfinance/internal/storage/storagetest"
)

func TestStoreConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := Open(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		return s
	})
}

func TestOpen_MigrationsAreRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.EnsureBuckets(ctx, "income"))
	require.NoError(t, s.Update(ctx, func(tx storage.Tx) error {
		b, err := tx.Bucket("income")
		if err != nil {
			return err
		}
		return b.Put("i1", []byte(`{"amount":50000}`))
	}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var got []byte
	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		b, err := tx.Bucket("income")
		if err != nil {
			return err
		}
		got, err = b.Get("i1")
		return err
	}))
	assert.JSONEq(t, `{"amount":50000}`, string(got))
}
