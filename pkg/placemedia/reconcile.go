package placemedia

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UpdatePostMedia converges a post's bound media set to the submitted
// ordered target list. The diff is remove/keep/add: media bound to the
// post but absent from the target are deleted (rows now, storage
// asynchronously), NEW items transition PENDING to COMPLETED, and display
// order is rewritten positionally for the full resulting list.
//
// Replaying an identical target list is a no-op: no storage deletions are
// issued and no display order changes. A NEW item that already bound to
// this post on a previous attempt is treated as existing, so retried
// requests converge instead of failing.
func (s *service) UpdatePostMedia(ctx context.Context, req UpdatePostMediaRequest) error {
	s.locks.lock(req.PostID)
	defer s.locks.unlock(req.PostID)

	post, err := s.repository.GetPost(ctx, req.PostID)
	if err != nil {
		return err
	}
	if post.OwnerID != req.CallerID {
		return PermissionDenied("post not available")
	}

	kl := s.limits.Kinds[post.Kind]
	if len(req.Target) < kl.MinMedia || len(req.Target) > kl.MaxMedia {
		limit := int64(kl.MaxMedia)
		if len(req.Target) < kl.MinMedia {
			limit = int64(kl.MinMedia)
		}
		return &LimitError{
			Resource: fmt.Sprintf("%s media count", post.Kind),
			Limit:    limit,
			Actual:   int64(len(req.Target)),
		}
	}

	seen := make(map[uuid.UUID]bool, len(req.Target))
	for _, item := range req.Target {
		if seen[item.MediaID] {
			return InvalidArgument("duplicate media id %s in target list", item.MediaID)
		}
		seen[item.MediaID] = true
	}

	current, err := s.repository.ListMediaByParent(ctx, post.ParentRef())
	if err != nil {
		return Internal("loading bound media", err)
	}
	currentByID := make(map[uuid.UUID]*Media, len(current))
	for _, m := range current {
		currentByID[m.ID] = m
	}

	// Validation runs to completion before any mutation: an EXISTING id
	// not bound here is rejected, and every genuinely-new id must pass
	// ownership verification, or the whole reconciliation aborts.
	newIDs := make([]uuid.UUID, 0, len(req.Target))
	for _, item := range req.Target {
		_, bound := currentByID[item.MediaID]
		switch {
		case !item.New && !bound:
			return InvalidArgument("media %s is not bound to this post", item.MediaID)
		case item.New && !bound:
			if kl.RequireLocation && item.Location == nil {
				return InvalidArgument("%s posts require a location on every photo", post.Kind)
			}
			newIDs = append(newIDs, item.MediaID)
		}
	}

	verified, err := s.verifyPendingOwnership(ctx, req.CallerID, newIDs)
	if err != nil {
		return err
	}

	// REMOVE = current − target. Row deletion is synchronous; the storage
	// objects are scheduled for deletion after the metadata commit.
	var removedKeys []string
	for _, m := range current {
		if seen[m.ID] {
			continue
		}
		if err := s.repository.DeleteMedia(ctx, m.ID); err != nil {
			return Internal("removing media", err)
		}
		removedKeys = append(removedKeys, m.OriginalKey, m.ThumbnailKey)
	}

	now := time.Now().UTC()
	parent := post.ParentRef()
	var mainImageURL string
	for i, item := range req.Target {
		m, bound := currentByID[item.MediaID]
		if bound {
			if m.DisplayOrder != i {
				m.DisplayOrder = i
				m.UpdatedAt = now
				if err := s.repository.UpdateMedia(ctx, m); err != nil {
					return Internal("reordering media", err)
				}
			}
		} else {
			m = verified[item.MediaID]
			m.Status = MediaStatusCompleted
			m.Parent = &parent
			m.DisplayOrder = i
			m.Location = item.Location
			m.CapturedAt = item.CapturedAt
			m.Address = item.Address
			m.UpdatedAt = now
			if err := s.repository.UpdateMedia(ctx, m); err != nil {
				return Internal("binding media", err)
			}
		}
		if i == 0 {
			mainImageURL = m.ThumbnailURL
		}
	}

	post.MainImageURL = mainImageURL
	post.MediaCount = len(req.Target)
	post.UpdatedAt = now
	if err := s.repository.UpdatePost(ctx, post); err != nil {
		return Internal("updating post", err)
	}

	s.scheduleStorageDeletes(post.ID, "reconcile", removedKeys)
	return nil
}
