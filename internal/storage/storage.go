package storage

import (
	"context"
	"time"
)

// Storage persists archived image bytes. Metadata rows live in postgres; the
// bytes themselves live in the backing object store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, string, error)
	Put(ctx context.Context, key string, content []byte, contentType string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
