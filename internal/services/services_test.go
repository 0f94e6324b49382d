package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"familyfinance/internal/amqp"
	"familyfinance/internal/core"
	"familyfinance/internal/log"
	"familyfinance/internal/repository"
	"familyfinance/internal/storage"
	"familyfinance/internal/storage/memory"
)

func newRecords(t *testing.T, opts ...repository.Option) (*repository.Set, storage.Store) {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.EnsureBuckets(context.Background(), core.Buckets...))
	t.Cleanup(func() { _ = s.Close() })
	return repository.NewSet(s, opts...), s
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.RecordChangeMessage
	err  error
}

func (f *fakePublisher) PublishRecordChange(_ context.Context, msg *amqp.RecordChangeMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakePublisher) messages() []*amqp.RecordChangeMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*amqp.RecordChangeMessage(nil), f.msgs...)
}

// failingRecords fails every List, to check that aggregation never returns partial data
type failingRecords[T any] struct {
	repository.Records[T]
	err error
}

func (f failingRecords[T]) List(context.Context) ([]T, error) {
	return nil, f.err
}

var errDisk = errors.New("disk on fire")

func discard() *log.Logger {
	return log.Discard()
}
