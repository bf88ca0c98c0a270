package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Backend is an in-memory implementation of the placemedia.BlobStore
// interface. It never stores bytes; it records the grants it issued and
// the delete attempts it received, which is what tests need to observe.
type Backend struct {
	mu      sync.RWMutex
	grants  map[string]string // object key -> content type of last grant
	deletes []string          // object keys of delete attempts, in order

	// FailDeletes makes every Delete call fail. Used to exercise the
	// best-effort cleanup path.
	FailDeletes bool
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{grants: make(map[string]string)}
}

// IssueUploadURL returns a fake presigned upload URL for objectKey.
func (b *Backend) IssueUploadURL(ctx context.Context, objectKey, contentType string, ttl time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.grants[objectKey] = contentType
	return fmt.Sprintf("memory://upload/%s?ttl=%d", objectKey, int(ttl.Seconds())), nil
}

// PublicURL returns a durable fake read URL for objectKey.
func (b *Backend) PublicURL(ctx context.Context, objectKey string) (string, error) {
	return "memory://read/" + objectKey, nil
}

// Delete records the delete attempt.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deletes = append(b.deletes, objectKey)
	if b.FailDeletes {
		return errors.New("simulated storage failure")
	}
	delete(b.grants, objectKey)
	return nil
}

// DeleteAttempts returns how many delete calls the backend has received.
func (b *Backend) DeleteAttempts() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.deletes)
}

// DeletedKeys returns the object keys of all delete attempts, in order.
func (b *Backend) DeletedKeys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, len(b.deletes))
	copy(keys, b.deletes)
	return keys
}

// GrantedKeys returns the object keys that currently hold an issued grant.
func (b *Backend) GrantedKeys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.grants))
	for k := range b.grants {
		keys = append(keys, k)
	}
	return keys
}
