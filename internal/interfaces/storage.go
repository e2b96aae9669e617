package interfaces

import (
	"context"
	"errors"

	"github.com/bobmcallan/stockdash/internal/models"
)

// ErrNotFound is returned by KeyValueStorage.Get for a missing key.
var ErrNotFound = errors.New("storage: not found")

// StorageManager provides access to domain-specific storage interfaces.
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	ErrorLog() ErrorLogSink
	Close() error
}

// KeyValueStorage provides basic key-value operations.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}

// ErrorLogSink is an append-only record of unhandled failures.
type ErrorLogSink interface {
	Append(ctx context.Context, entry models.ErrorLogEntry) error
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]models.ErrorLogEntry, error)
}
