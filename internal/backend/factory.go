package backend

import (
	"context"
	"fmt"

	"familyfinance/internal/log"
	"familyfinance/internal/storage"
	"familyfinance/internal/storage/bolt"
	"familyfinance/internal/storage/memory"
	"familyfinance/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.Store
		err   error
	)
	switch config.Type {
	case BoltBackend:
		store, err = bolt.Open(config.DBPath, config.OpenTimeout)
	case SQLiteBackend:
		store, err = sqlite.Open(config.DBPath)
	case MemoryBackend:
		store = memory.New()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", config.Type, err)
	}

	if err := store.EnsureBuckets(ctx, config.Buckets...); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	f.logger.Info("Initialized record store",
		log.FieldBackend, config.Type.String(),
		"db_path", config.DBPath,
		"buckets", len(config.Buckets))

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}
