package backend

import (
	"context"
	"time"

	"familyfinance/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the opened store and its cleanup function
type BackendResult struct {
	Store   storage.Store
	Cleanup CleanupFunc
}

// Factory opens record stores based on configuration
type Factory interface {
	// CreateBackend opens the store and makes sure every bucket exists
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for store creation
type Config struct {
	Type BackendType

	// File path for bolt and sqlite
	DBPath string
	// How long bolt waits for the file lock
	OpenTimeout time.Duration
	// Buckets created at open
	Buckets []string
}

// BackendType represents the type of record store
type BackendType string

const (
	BoltBackend   BackendType = "bolt"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case BoltBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
