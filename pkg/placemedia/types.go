package placemedia

import (
	"time"

	"github.com/google/uuid"
)

// MediaStatus is the domain type for media lifecycle states.
type MediaStatus string

// Media status constants (typed).
const (
	MediaStatusPending   MediaStatus = "pending"
	MediaStatusCompleted MediaStatus = "completed"
)

// MediaVariant identifies a stored rendition of an uploaded image.
type MediaVariant string

// Media variant constants (typed).
const (
	VariantOriginal  MediaVariant = "original"
	VariantThumbnail MediaVariant = "thumbnail"
)

// PostKind is the domain type for post kinds.
type PostKind string

// Post kind constants (typed).
const (
	PostKindRecord PostKind = "record"
	PostKindAsk    PostKind = "ask"
	PostKindReply  PostKind = "reply"
)

// IsValid returns true for a known post kind.
func (k PostKind) IsValid() bool {
	switch k {
	case PostKindRecord, PostKindAsk, PostKindReply:
		return true
	}
	return false
}

// GeoPoint is a WGS84 coordinate captured with a photo.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParentRef is a discriminated reference to the single post a media
// belongs to. A media binds to at most one post for its lifetime.
type ParentRef struct {
	Kind PostKind  `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

// Media represents one uploaded image asset (original + thumbnail
// variants) and its binding state.
//
// Invariants: a COMPLETED media always has a non-nil Parent; a PENDING
// media never does. DisplayOrder is unique within a parent scope.
// OwnerID never changes after creation.
type Media struct {
	ID           uuid.UUID   `json:"id"`
	OwnerID      uuid.UUID   `json:"owner_id"`
	ClientKey    string      `json:"client_key"`
	Status       MediaStatus `json:"status"`
	OriginalKey  string      `json:"original_key"`
	ThumbnailKey string      `json:"thumbnail_key"`
	OriginalURL  string      `json:"original_url"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Location     *GeoPoint   `json:"location,omitempty"`
	CapturedAt   *time.Time  `json:"captured_at,omitempty"`
	Address      string      `json:"address,omitempty"`
	DisplayOrder int         `json:"display_order"`
	Parent       *ParentRef  `json:"parent,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Post represents a user-authored content entity owning zero or more
// bound media. MainImageURL and MediaCount are derived from the bound
// set: the thumbnail of the display-order-0 media and the set size.
type Post struct {
	ID           uuid.UUID `json:"id"`
	Kind         PostKind  `json:"kind"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Description  string    `json:"description,omitempty"`
	MainImageURL string    `json:"main_image_url,omitempty"`
	MediaCount   int       `json:"media_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ParentRef returns the discriminated reference identifying this post as
// a media parent.
func (p *Post) ParentRef() ParentRef {
	return ParentRef{Kind: p.Kind, ID: p.ID}
}

// KindLimits bounds the media set of one post kind.
type KindLimits struct {
	MinMedia        int
	MaxMedia        int
	RequireLocation bool
}

// Limits bounds upload batches and per-kind media sets.
type Limits struct {
	MaxUploadBatch   int
	MaxDeclaredBytes int64
	Kinds            map[PostKind]KindLimits
}

// DefaultLimits returns the production defaults. Record posts carry the
// map pins, so every record photo must have a coordinate.
func DefaultLimits() Limits {
	return Limits{
		MaxUploadBatch:   10,
		MaxDeclaredBytes: 20 << 20,
		Kinds: map[PostKind]KindLimits{
			PostKindRecord: {MinMedia: 1, MaxMedia: 10, RequireLocation: true},
			PostKindAsk:    {MinMedia: 0, MaxMedia: 10},
			PostKindReply:  {MinMedia: 0, MaxMedia: 5},
		},
	}
}

// AllowedMimeTypes lists the image content types accepted for upload.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}
