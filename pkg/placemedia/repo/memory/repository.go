package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/placepix/placemedia/pkg/placemedia"
)

// Repository implements placemedia.Repository using in-memory storage
type Repository struct {
	mu    sync.RWMutex
	media map[uuid.UUID]*placemedia.Media
	posts map[uuid.UUID]*placemedia.Post
}

// New creates a new in-memory repository
func New() placemedia.Repository {
	return &Repository{
		media: make(map[uuid.UUID]*placemedia.Media),
		posts: make(map[uuid.UUID]*placemedia.Post),
	}
}

// Media operations

func (r *Repository) CreateMediaBatch(ctx context.Context, media []*placemedia.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// All inserts happen under one lock, so the batch is atomic.
	for _, m := range media {
		mediaCopy := *m
		r.media[m.ID] = &mediaCopy
	}
	return nil
}

func (r *Repository) GetMedia(ctx context.Context, id uuid.UUID) (*placemedia.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.media[id]
	if !exists {
		return nil, placemedia.ErrMediaNotFound
	}
	mediaCopy := *m
	return &mediaCopy, nil
}

func (r *Repository) ListPendingMediaByOwner(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]*placemedia.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*placemedia.Media
	visited := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if visited[id] {
			continue
		}
		visited[id] = true
		m, exists := r.media[id]
		if !exists || m.OwnerID != ownerID || m.Status != placemedia.MediaStatusPending {
			continue
		}
		mediaCopy := *m
		result = append(result, &mediaCopy)
	}
	return result, nil
}

func (r *Repository) ListMediaByParent(ctx context.Context, parent placemedia.ParentRef) ([]*placemedia.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*placemedia.Media
	for _, m := range r.media {
		if m.Parent != nil && *m.Parent == parent {
			mediaCopy := *m
			result = append(result, &mediaCopy)
		}
	}

	slices.SortFunc(result, func(a, b *placemedia.Media) int {
		return a.DisplayOrder - b.DisplayOrder
	})
	return result, nil
}

func (r *Repository) UpdateMedia(ctx context.Context, media *placemedia.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.media[media.ID]; !exists {
		return placemedia.ErrMediaNotFound
	}
	mediaCopy := *media
	r.media[media.ID] = &mediaCopy
	return nil
}

func (r *Repository) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.media[id]; !exists {
		return placemedia.ErrMediaNotFound
	}
	delete(r.media, id)
	return nil
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *placemedia.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	postCopy := *post
	r.posts[post.ID] = &postCopy
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*placemedia.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.posts[id]
	if !exists {
		return nil, placemedia.ErrPostNotFound
	}
	postCopy := *p
	return &postCopy, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *placemedia.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[post.ID]; !exists {
		return placemedia.ErrPostNotFound
	}
	postCopy := *post
	r.posts[post.ID] = &postCopy
	return nil
}

func (r *Repository) DeletePostCascade(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.posts[id]
	if !exists {
		return placemedia.ErrPostNotFound
	}

	for mediaID, m := range r.media {
		if m.Parent != nil && m.Parent.ID == p.ID {
			delete(r.media, mediaID)
		}
	}
	delete(r.posts, id)
	return nil
}

func (r *Repository) ListPostsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*placemedia.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*placemedia.Post
	for _, p := range r.posts {
		if p.OwnerID == ownerID {
			postCopy := *p
			result = append(result, &postCopy)
		}
	}

	// Sort by created_at descending
	slices.SortFunc(result, func(a, b *placemedia.Post) int {
		switch {
		case a.CreatedAt.After(b.CreatedAt):
			return -1
		case b.CreatedAt.After(a.CreatedAt):
			return 1
		default:
			return 0
		}
	})
	return result, nil
}
