package service

import (
	"context"
	"testing"

	"post_market/pkg/apperr"
	"post_market/pkg/cache"
	baseModel "post_market/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCachedUserService(t *testing.T) {
	ctx := context.Background()

	t.Run("second read served from cache", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewCachedUserService(newTestService(repo), cache.NewMemoryCache())
		repo.On("GetByID", ctx, "u1").Return(createTestUser(t, "u1", "alice", "x", baseModel.StatusActive), nil).Once()

		first, err := svc.GetUser(ctx, "u1")
		require.NoError(t, err)
		second, err := svc.GetUser(ctx, "u1")
		require.NoError(t, err)

		assert.Equal(t, "alice", first.Username)
		assert.Equal(t, "alice", second.Username)
		assert.Equal(t, "u1", second.ID)
		assert.Empty(t, second.Password)
		repo.AssertNumberOfCalls(t, "GetByID", 1)
	})

	t.Run("not found is not cached", func(t *testing.T) {
		repo := new(MockUserRepository)
		store := cache.NewMemoryCache()
		svc := NewCachedUserService(newTestService(repo), store)
		repo.On("GetByID", ctx, "ghost").Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.GetUser(ctx, "ghost")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))

		exists, err := store.Exists(ctx, UserCacheKeyPrefix+"ghost")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete invalidates cached user", func(t *testing.T) {
		repo := new(MockUserRepository)
		store := cache.NewMemoryCache()
		svc := NewCachedUserService(newTestService(repo), store)
		repo.On("GetByID", ctx, "u1").Return(createTestUser(t, "u1", "alice", "x", baseModel.StatusActive), nil).Twice()
		repo.On("UpdateStatus", ctx, "u1", baseModel.StatusDeleted).Return(nil)

		_, err := svc.GetUser(ctx, "u1")
		require.NoError(t, err)
		require.NoError(t, svc.DeleteUser(ctx, "u1"))

		exists, err := store.Exists(ctx, UserCacheKeyPrefix+"u1")
		require.NoError(t, err)
		assert.False(t, exists)

		repo.On("GetByID", ctx, "u1").Return(createTestUser(t, "u1", "alice", "x", baseModel.StatusDeleted), nil)
		_, err = svc.GetUser(ctx, "u1")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}
