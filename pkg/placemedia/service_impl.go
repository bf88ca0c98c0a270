package placemedia

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/placepix/placemedia/pkg/placemedia/objectkey"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	keys       objectkey.Generator
	logger     *slog.Logger
	limits     Limits
	presignTTL time.Duration

	locks *entityLocks

	// cleanup tracks in-flight asynchronous storage deletions so a
	// graceful shutdown can wait for them.
	cleanup sync.WaitGroup
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata-store collaborator.
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the object-storage collaborator.
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithKeyGenerator overrides the object key generation strategy.
func WithKeyGenerator(gen objectkey.Generator) Option {
	return func(s *service) {
		s.keys = gen
	}
}

// WithLogger sets the structured logger used for non-surfaced failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithLimits overrides batch and per-kind media ceilings.
func WithLimits(limits Limits) Option {
	return func(s *service) {
		s.limits = limits
	}
}

// WithPresignTTL overrides the lifetime of issued write grants.
func WithPresignTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.presignTTL = ttl
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		keys:       objectkey.NewRecommendedGenerator(),
		logger:     slog.Default(),
		limits:     DefaultLimits(),
		presignTTL: 5 * time.Minute,
		locks:      newEntityLocks(),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	return s, nil
}

// Credential issuance

func (s *service) RequestUploadCredentials(ctx context.Context, req UploadCredentialsRequest) (map[string]UploadCredential, error) {
	if req.OwnerID == uuid.Nil {
		return nil, InvalidArgument("owner id is required")
	}
	if len(req.Items) == 0 {
		return nil, InvalidArgument("upload batch is empty")
	}
	if len(req.Items) > s.limits.MaxUploadBatch {
		return nil, &LimitError{
			Resource: "upload batch size",
			Limit:    int64(s.limits.MaxUploadBatch),
			Actual:   int64(len(req.Items)),
		}
	}

	seen := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		if item.ClientKey == "" {
			return nil, InvalidArgument("client key is required")
		}
		if seen[item.ClientKey] {
			return nil, InvalidArgument("duplicate client key %q in batch", item.ClientKey)
		}
		seen[item.ClientKey] = true
		if !AllowedMimeTypes[item.MimeType] {
			return nil, InvalidArgument("mime type %q is not allowed", item.MimeType)
		}
		if item.SizeBytes > s.limits.MaxDeclaredBytes {
			return nil, &LimitError{
				Resource: "declared file size",
				Limit:    s.limits.MaxDeclaredBytes,
				Actual:   item.SizeBytes,
			}
		}
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.presignTTL)

	// Grant issuance within a batch has no ordering dependency, so each
	// item is prepared concurrently and keyed back by index.
	media := make([]*Media, len(req.Items))
	credentials := make([]UploadCredential, len(req.Items))
	errs := make([]error, len(req.Items))

	var wg sync.WaitGroup
	for i, item := range req.Items {
		wg.Add(1)
		go func(i int, item UploadDescriptor) {
			defer wg.Done()
			m, cred, err := s.issueOne(ctx, req.OwnerID, item, now, expiresAt)
			if err != nil {
				errs[i] = err
				return
			}
			media[i] = m
			credentials[i] = cred
		}(i, item)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// All rows are created, or none: the batch insert is atomic, so no
	// partial credential map can ever be returned.
	if err := s.repository.CreateMediaBatch(ctx, media); err != nil {
		return nil, Internal("persisting media batch", err)
	}

	result := make(map[string]UploadCredential, len(req.Items))
	for i, item := range req.Items {
		result[item.ClientKey] = credentials[i]
	}
	return result, nil
}

func (s *service) issueOne(ctx context.Context, ownerID uuid.UUID, item UploadDescriptor, now, expiresAt time.Time) (*Media, UploadCredential, error) {
	mediaID := uuid.New()
	originalKey := s.keys.GenerateKey(ownerID, mediaID, string(VariantOriginal))
	thumbnailKey := s.keys.GenerateKey(ownerID, mediaID, string(VariantThumbnail))

	originalUpload, err := s.blobStore.IssueUploadURL(ctx, originalKey, item.MimeType, s.presignTTL)
	if err != nil {
		return nil, UploadCredential{}, Internal("issuing upload grant", err)
	}
	thumbnailUpload, err := s.blobStore.IssueUploadURL(ctx, thumbnailKey, item.MimeType, s.presignTTL)
	if err != nil {
		return nil, UploadCredential{}, Internal("issuing upload grant", err)
	}
	originalURL, err := s.blobStore.PublicURL(ctx, originalKey)
	if err != nil {
		return nil, UploadCredential{}, Internal("deriving read url", err)
	}
	thumbnailURL, err := s.blobStore.PublicURL(ctx, thumbnailKey)
	if err != nil {
		return nil, UploadCredential{}, Internal("deriving read url", err)
	}

	m := &Media{
		ID:           mediaID,
		OwnerID:      ownerID,
		ClientKey:    item.ClientKey,
		Status:       MediaStatusPending,
		OriginalKey:  originalKey,
		ThumbnailKey: thumbnailKey,
		OriginalURL:  originalURL,
		ThumbnailURL: thumbnailURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cred := UploadCredential{
		MediaID:            mediaID,
		OriginalUploadURL:  originalUpload,
		ThumbnailUploadURL: thumbnailUpload,
		OriginalURL:        originalURL,
		ThumbnailURL:       thumbnailURL,
		ExpiresAt:          expiresAt,
	}
	return m, cred, nil
}

// Ownership verification

// verifyPendingOwnership confirms the caller owns every id and each is
// still PENDING. It runs to completion before any mutation begins.
// Missing and not-owned ids get the same answer so existence never leaks.
func (s *service) verifyPendingOwnership(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*Media, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*Media{}, nil
	}

	rows, err := s.repository.ListPendingMediaByOwner(ctx, ownerID, ids)
	if err != nil {
		return nil, Internal("verifying media ownership", err)
	}
	if len(rows) != len(ids) {
		return nil, PermissionDenied("media not available for binding")
	}

	byID := make(map[uuid.UUID]*Media, len(rows))
	for _, m := range rows {
		byID[m.ID] = m
	}
	return byID, nil
}

// Post creation (entity binding)

func (s *service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	if req.OwnerID == uuid.Nil {
		return nil, InvalidArgument("owner id is required")
	}
	if !req.Kind.IsValid() {
		return nil, InvalidArgument("unknown post kind %q", req.Kind)
	}

	kl := s.limits.Kinds[req.Kind]
	if len(req.Media) < kl.MinMedia || len(req.Media) > kl.MaxMedia {
		limit := int64(kl.MaxMedia)
		if len(req.Media) < kl.MinMedia {
			limit = int64(kl.MinMedia)
		}
		return nil, &LimitError{
			Resource: fmt.Sprintf("%s media count", req.Kind),
			Limit:    limit,
			Actual:   int64(len(req.Media)),
		}
	}

	ids := make([]uuid.UUID, 0, len(req.Media))
	seen := make(map[uuid.UUID]bool, len(req.Media))
	for _, spec := range req.Media {
		if seen[spec.MediaID] {
			return nil, InvalidArgument("duplicate media id %s", spec.MediaID)
		}
		seen[spec.MediaID] = true
		if kl.RequireLocation && spec.Location == nil {
			return nil, InvalidArgument("%s posts require a location on every photo", req.Kind)
		}
		ids = append(ids, spec.MediaID)
	}

	verified, err := s.verifyPendingOwnership(ctx, req.OwnerID, ids)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &Post{
		ID:          uuid.New(),
		Kind:        req.Kind,
		OwnerID:     req.OwnerID,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repository.CreatePost(ctx, post); err != nil {
		return nil, Internal("creating post", err)
	}

	// Per-item bind failures leave the post with a partial media set.
	// That is accepted at-least-once behavior: the failure is logged and
	// the derived fields reflect what actually bound.
	parent := post.ParentRef()
	bound := make([]*Media, 0, len(req.Media))
	for i, spec := range req.Media {
		m := verified[spec.MediaID]
		m.Status = MediaStatusCompleted
		m.Parent = &parent
		m.DisplayOrder = i
		m.Location = spec.Location
		m.CapturedAt = spec.CapturedAt
		m.Address = spec.Address
		m.UpdatedAt = now
		if err := s.repository.UpdateMedia(ctx, m); err != nil {
			s.logger.Warn("bind failed for media",
				"post_id", post.ID, "media_id", m.ID, "error", err)
			continue
		}
		bound = append(bound, m)
	}

	if len(bound) > 0 {
		post.MainImageURL = bound[0].ThumbnailURL
	}
	post.MediaCount = len(bound)
	post.UpdatedAt = now
	if err := s.repository.UpdatePost(ctx, post); err != nil {
		return nil, Internal("finalizing post", err)
	}

	return post, nil
}

// Post reads

func (s *service) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.repository.GetPost(ctx, id)
}

func (s *service) GetPostMedia(ctx context.Context, id uuid.UUID) ([]*Media, error) {
	post, err := s.repository.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repository.ListMediaByParent(ctx, post.ParentRef())
}

func (s *service) ListPosts(ctx context.Context, ownerID uuid.UUID) ([]*Post, error) {
	return s.repository.ListPostsByOwner(ctx, ownerID)
}

// Post field edits

func (s *service) UpdatePost(ctx context.Context, req UpdatePostRequest) (*Post, error) {
	s.locks.lock(req.PostID)
	defer s.locks.unlock(req.PostID)

	post, err := s.repository.GetPost(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != req.CallerID {
		return nil, PermissionDenied("post not available")
	}

	post.Description = req.Description
	post.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdatePost(ctx, post); err != nil {
		return nil, Internal("updating post", err)
	}
	return post, nil
}

// Wait blocks until all scheduled asynchronous storage deletions have
// finished. Intended for graceful shutdown and tests.
func (s *service) Wait() {
	s.cleanup.Wait()
}
