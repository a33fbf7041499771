package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"post_market/internal/domain/user/model"
	"post_market/pkg/cache"
	"post_market/pkg/logger"

	"go.uber.org/zap"
)

// 缓存键常量
const (
	UserCacheKeyPrefix = "user:"
	UserCacheTTL       = time.Hour * 2
)

// CachedUserService 带缓存的用户服务，按 ID 缓存用户资料
// 缓存中不含密码哈希，认证相关调用直接交给内层服务
type CachedUserService struct {
	inner UserService
	cache cache.CacheService
}

// NewCachedUserService 创建带缓存的用户服务
func NewCachedUserService(inner UserService, store cache.CacheService) UserService {
	return &CachedUserService{inner: inner, cache: store}
}

func (s *CachedUserService) getUserCacheKey(id string) string {
	return fmt.Sprintf("%s%s", UserCacheKeyPrefix, id)
}

func (s *CachedUserService) Signup(ctx context.Context, username, password string) (*AuthResult, error) {
	return s.inner.Signup(ctx, username, password)
}

func (s *CachedUserService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	return s.inner.Login(ctx, username, password)
}

// GetUser 获取用户（带缓存），缓存故障时回源
func (s *CachedUserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	key := s.getUserCacheKey(id)

	var user model.User
	err := s.cache.Get(ctx, key, &user)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Log.Warn("user cache read failed", zap.String("key", key), zap.Error(err))
	}

	found, err := s.inner.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, found, UserCacheTTL); err != nil {
		logger.Log.Warn("user cache write failed", zap.String("key", key), zap.Error(err))
	}
	return found, nil
}

// DeleteUser 注销后清除缓存，注销用户不能再被查到
func (s *CachedUserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.inner.DeleteUser(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, s.getUserCacheKey(id)); err != nil {
		logger.Log.Warn("failed to invalidate user cache", zap.String("user_id", id), zap.Error(err))
	}
	return nil
}
