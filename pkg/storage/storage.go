// pkg/storage/storage.go
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist
var ErrNotFound = errors.New("object not found")

// ObjectStore is a flat key/value blob store
type ObjectStore interface {
	// Put writes body under key, replacing any previous object, and returns
	// the object's location
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)

	// Get reads the object stored under key
	Get(ctx context.Context, key string) ([]byte, error)
}
