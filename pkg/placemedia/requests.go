package placemedia

import (
	"time"

	"github.com/google/uuid"
)

// Request/Response DTOs

// UploadDescriptor declares one image a client intends to upload.
// ClientKey is the caller's correlation token, unique within a batch.
type UploadDescriptor struct {
	ClientKey string
	MimeType  string
	SizeBytes int64
}

// UploadCredentialsRequest contains parameters for issuing upload
// credentials for a batch of images.
type UploadCredentialsRequest struct {
	OwnerID uuid.UUID
	Items   []UploadDescriptor
}

// UploadCredential is the per-image result of credential issuance: write
// grants for both variants plus durable read URLs.
type UploadCredential struct {
	MediaID            uuid.UUID `json:"media_id"`
	OriginalUploadURL  string    `json:"original_upload_url"`
	ThumbnailUploadURL string    `json:"thumbnail_upload_url"`
	OriginalURL        string    `json:"original_url"`
	ThumbnailURL       string    `json:"thumbnail_url"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// MediaBindSpec describes one media to bind when creating a post. Slice
// position determines display order; index 0 is the main image.
type MediaBindSpec struct {
	MediaID    uuid.UUID
	Location   *GeoPoint
	CapturedAt *time.Time
	Address    string
}

// CreatePostRequest contains parameters for creating a post with its
// initial media set.
type CreatePostRequest struct {
	OwnerID     uuid.UUID
	Kind        PostKind
	Description string
	Media       []MediaBindSpec
}

// UpdatePostRequest contains parameters for an owner-only edit of post
// fields that do not touch the media set.
type UpdatePostRequest struct {
	CallerID    uuid.UUID
	PostID      uuid.UUID
	Description string
}

// MediaTargetItem is one entry of a reconciliation target list. New
// marks an id that must currently be PENDING and owned by the caller;
// otherwise the id must already be bound to the post being edited.
type MediaTargetItem struct {
	MediaID    uuid.UUID
	New        bool
	Location   *GeoPoint
	CapturedAt *time.Time
	Address    string
}

// UpdatePostMediaRequest contains parameters for converging a post's
// media set to an ordered target list.
type UpdatePostMediaRequest struct {
	CallerID uuid.UUID
	PostID   uuid.UUID
	Target   []MediaTargetItem
}
