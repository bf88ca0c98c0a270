package placemedia

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BlobStore is the object-storage collaborator.
type BlobStore interface {
	// IssueUploadURL returns a short-lived write grant authorizing one
	// upload to objectKey with the given content type.
	IssueUploadURL(ctx context.Context, objectKey, contentType string, ttl time.Duration) (string, error)

	// PublicURL returns a durable public read URL for objectKey.
	PublicURL(ctx context.Context, objectKey string) (string, error)

	// Delete removes the object at objectKey. Best effort: callers treat
	// failures as log-and-continue.
	Delete(ctx context.Context, objectKey string) error
}

// Repository is the metadata-store collaborator. Single-row updates are
// atomic; CreateMediaBatch and DeletePostCascade are the only multi-row
// operations that must be all-or-none.
type Repository interface {
	// Media operations
	CreateMediaBatch(ctx context.Context, media []*Media) error
	GetMedia(ctx context.Context, id uuid.UUID) (*Media, error)
	// ListPendingMediaByOwner returns the subset of ids that exist, are
	// owned by ownerID, and are PENDING. Order is not specified.
	ListPendingMediaByOwner(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]*Media, error)
	// ListMediaByParent returns the media bound to parent ordered by
	// display order ascending.
	ListMediaByParent(ctx context.Context, parent ParentRef) ([]*Media, error)
	UpdateMedia(ctx context.Context, media *Media) error
	DeleteMedia(ctx context.Context, id uuid.UUID) error

	// Post operations
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	UpdatePost(ctx context.Context, post *Post) error
	// DeletePostCascade removes the post row and every media row bound
	// to it in one atomic operation.
	DeletePostCascade(ctx context.Context, id uuid.UUID) error
	ListPostsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Post, error)
}
