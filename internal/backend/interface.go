// Package backend wires a complete data plane for the server: the record
// store ports plus the identity verifier, selected by configuration.
package backend

import (
	"context"

	"khata/internal/auth"
	"khata/internal/store"
)

// Backend is the full set of record store operations the HTTP layer needs.
type Backend interface {
	store.SnapshotWatcher
	store.SnapshotReader
	store.OwnerWriter
	store.CustomerWriter
	store.IncomeWriter
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// BackendResult bundles the backend with its identity verifier and cleanup.
type BackendResult struct {
	Backend  Backend
	Verifier auth.Verifier
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	FirebaseBackend BackendType = "firebase"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, FirebaseBackend:
		return true
	default:
		return false
	}
}
