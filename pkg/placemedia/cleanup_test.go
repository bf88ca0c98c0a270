package placemedia_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placepix/placemedia/pkg/placemedia"
)

func TestDeletePost(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades to bound media and their storage objects", func(t *testing.T) {
		env := setupTestService(t)
		ownerID := uuid.New()
		post, ids := createAskPost(t, env, ownerID, 3)

		require.NoError(t, env.svc.DeletePost(ctx, ownerID, post.ID))

		_, err := env.svc.GetPost(ctx, post.ID)
		assert.ErrorIs(t, err, placemedia.ErrPostNotFound)
		for _, id := range ids {
			_, err := env.repo.GetMedia(ctx, id)
			assert.ErrorIs(t, err, placemedia.ErrMediaNotFound)
		}

		// original + thumbnail per media
		assert.Eventually(t, func() bool {
			return env.store.DeleteAttempts() == 6
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("storage failures do not surface to the caller", func(t *testing.T) {
		env := setupTestService(t)
		env.store.FailDeletes = true
		ownerID := uuid.New()
		post, ids := createAskPost(t, env, ownerID, 2)

		require.NoError(t, env.svc.DeletePost(ctx, ownerID, post.ID))

		// metadata is gone even though every storage delete failed
		_, err := env.svc.GetPost(ctx, post.ID)
		assert.ErrorIs(t, err, placemedia.ErrPostNotFound)
		for _, id := range ids {
			_, err := env.repo.GetMedia(ctx, id)
			assert.ErrorIs(t, err, placemedia.ErrMediaNotFound)
		}

		env.svc.Wait()
		assert.Equal(t, 4, env.store.DeleteAttempts())
	})

	t.Run("post without media deletes cleanly", func(t *testing.T) {
		env := setupTestService(t)
		ownerID := uuid.New()

		post, err := env.svc.CreatePost(ctx, placemedia.CreatePostRequest{
			OwnerID: ownerID,
			Kind:    placemedia.PostKindAsk,
		})
		require.NoError(t, err)

		require.NoError(t, env.svc.DeletePost(ctx, ownerID, post.ID))
		env.svc.Wait()
		assert.Zero(t, env.store.DeleteAttempts())
	})

	t.Run("non-owner is denied and nothing is deleted", func(t *testing.T) {
		env := setupTestService(t)
		ownerID := uuid.New()
		post, ids := createAskPost(t, env, ownerID, 1)

		err := env.svc.DeletePost(ctx, uuid.New(), post.ID)
		require.Error(t, err)
		assert.Equal(t, placemedia.KindPermissionDenied, placemedia.KindOf(err))

		_, err = env.svc.GetPost(ctx, post.ID)
		assert.NoError(t, err)
		_, err = env.repo.GetMedia(ctx, ids[0])
		assert.NoError(t, err)
	})

	t.Run("absent post is not found", func(t *testing.T) {
		env := setupTestService(t)

		err := env.svc.DeletePost(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, placemedia.ErrPostNotFound)
	})
}
