package placemedia

import (
	"context"

	"github.com/google/uuid"
)

// DeletePost deletes a post and cascades to its bound media. The caller
// sees success once metadata deletion is durable; the storage objects
// are deleted asynchronously and best-effort. Orphans left by storage
// failures are caught by the out-of-band inventory sweep.
func (s *service) DeletePost(ctx context.Context, callerID, postID uuid.UUID) error {
	s.locks.lock(postID)
	defer s.locks.unlock(postID)

	post, err := s.repository.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.OwnerID != callerID {
		return PermissionDenied("post not available")
	}

	media, err := s.repository.ListMediaByParent(ctx, post.ParentRef())
	if err != nil {
		return Internal("loading bound media", err)
	}
	keys := make([]string, 0, 2*len(media))
	for _, m := range media {
		keys = append(keys, m.OriginalKey, m.ThumbnailKey)
	}

	if err := s.repository.DeletePostCascade(ctx, postID); err != nil {
		return Internal("deleting post", err)
	}

	s.scheduleStorageDeletes(postID, "delete", keys)
	return nil
}

// scheduleStorageDeletes spawns a detached task that issues best-effort
// storage deletions. It runs only after the synchronous response path
// has committed, on its own context, with failures logged and never
// surfaced to the caller.
func (s *service) scheduleStorageDeletes(postID uuid.UUID, op string, keys []string) {
	if len(keys) == 0 {
		return
	}
	s.cleanup.Add(1)
	go func() {
		defer s.cleanup.Done()
		ctx := context.Background()
		for _, key := range keys {
			if err := s.blobStore.Delete(ctx, key); err != nil {
				s.logger.Error("storage delete failed",
					"op", op, "post_id", postID, "object_key", key, "error", err)
			}
		}
	}()
}
