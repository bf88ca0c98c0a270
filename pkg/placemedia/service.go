package placemedia

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the placemedia library
type Service interface {
	// RequestUploadCredentials issues presigned upload grants and
	// provisional PENDING media rows for a batch of declared images.
	// The result maps each submitted client key to its credential.
	RequestUploadCredentials(ctx context.Context, req UploadCredentialsRequest) (map[string]UploadCredential, error)

	// CreatePost creates a post and binds its initial media set.
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)

	// Post read operations
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	GetPostMedia(ctx context.Context, id uuid.UUID) ([]*Media, error)
	ListPosts(ctx context.Context, ownerID uuid.UUID) ([]*Post, error)

	// UpdatePost edits owner-mutable post fields.
	UpdatePost(ctx context.Context, req UpdatePostRequest) (*Post, error)

	// UpdatePostMedia converges the post's bound media set to the
	// caller-submitted ordered target list.
	UpdatePostMedia(ctx context.Context, req UpdatePostMediaRequest) error

	// DeletePost deletes the post, its media rows, and schedules its
	// storage objects for asynchronous deletion.
	DeletePost(ctx context.Context, callerID, postID uuid.UUID) error

	// Wait blocks until scheduled asynchronous storage deletions have
	// drained. Call during graceful shutdown.
	Wait()
}
