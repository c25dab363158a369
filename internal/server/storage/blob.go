// Package storage stores attachment binary content in an S3-compatible
// object store, keyed by randomly generated, date-partitioned storage keys.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobInfo describes one stored object.
type BlobInfo struct {
	Key          string
	LastModified time.Time
}

// BlobStore is the contract for attachment content storage. Implementations
// must treat Put/Get/Delete as independent operations with no transactional
// link to the metadata rows; callers own the ordering.
type BlobStore interface {
	Put(ctx context.Context, key string, contentType string, data []byte) error
	// Get returns the object's content stream and size. The caller must close
	// the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
	// List returns every object in the store's bucket.
	List(ctx context.Context) ([]BlobInfo, error)
}

// RandomKey generates a fresh storage key partitioned by upload date.
func RandomKey() string {
	d := time.Now()
	return fmt.Sprintf("attachments/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}
