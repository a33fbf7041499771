package service

import (
	"context"
	"errors"
	"mime/multipart"

	"post_market/internal/domain/photo/model"
	"post_market/internal/domain/photo/repository"
	"post_market/internal/pkg/uploader"
	"post_market/pkg/apperr"
	"post_market/pkg/cache"
	"post_market/pkg/database"
	"post_market/pkg/logger"
	baseModel "post_market/pkg/model"
	"post_market/pkg/response"
	"post_market/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PhotoService 图片服务接口
type PhotoService interface {
	Upload(ctx context.Context, userID string, files []*multipart.FileHeader) ([]model.Photo, error)
	List(ctx context.Context, userID string, page, limit int) (*utils.PageResult, error)
	Delete(ctx context.Context, userID, id string) error
	// CheckOwned 校验图片均为 userID 的有效图片
	CheckOwned(ctx context.Context, userID string, ids []string) error
}

type photoService struct {
	repo     repository.PhotoRepository
	uploader uploader.Uploader
	cache    cache.Invalidator
}

// NewPhotoService 创建图片服务，up 为 nil 时上传不可用；删除图片后失效帖子缓存
func NewPhotoService(repo repository.PhotoRepository, up uploader.Uploader, invalidator cache.Invalidator) PhotoService {
	return &photoService{repo: repo, uploader: up, cache: invalidator}
}

var (
	errPhotoNotFound  = apperr.NotFound(response.ErrPhotoNotFound, "photo not found")
	errNotPhotoOwner  = apperr.Forbidden(response.ErrNoPermission, "you can only delete your own photos")
	errNoFiles        = apperr.Validation(response.ErrInvalidParam, "no files uploaded")
	errUploaderAbsent = errors.New("object storage uploader is not configured")
	errPhotosNotOwned = apperr.Validation(response.ErrPhotoNotFound, "photos must exist, be active and belong to the post owner",
		apperr.FieldError{Field: "photoIds", Message: "one or more photos are missing or not owned by the post owner"})
)

func (s *photoService) Upload(ctx context.Context, userID string, files []*multipart.FileHeader) ([]model.Photo, error) {
	if len(files) == 0 {
		return nil, errNoFiles
	}
	if s.uploader == nil {
		return nil, apperr.Internal(errUploaderAbsent)
	}

	results, err := uploader.UploadFiles(ctx, s.uploader, files)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	photos := make([]model.Photo, 0, len(results))
	for _, r := range results {
		photos = append(photos, model.Photo{
			UserID:   userID,
			Filename: r.Key,
			URL:      r.URL,
			Status:   baseModel.StatusActive,
		})
	}
	if err := s.repo.CreateBatch(ctx, photos); err != nil {
		// 对象已上传但记录未写入，留给存储生命周期规则清理
		logger.Log.Error("save uploaded photos failed", zap.String("user_id", userID), zap.Int("count", len(photos)), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	return photos, nil
}

func (s *photoService) List(ctx context.Context, userID string, page, limit int) (*utils.PageResult, error) {
	p := utils.Pagination{Page: page, Limit: limit}
	offset, limit := p.GetPageOffset()

	photos, total, err := s.repo.ListActiveByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	result := utils.NewPageResult(photos, total, p.Page, limit)
	return &result, nil
}

// Delete 软删除自己的图片
func (s *photoService) Delete(ctx context.Context, userID, id string) error {
	photo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return errPhotoNotFound
		}
		return apperr.Internal(err)
	}
	if photo.Status != baseModel.StatusActive {
		return errPhotoNotFound
	}
	if photo.UserID != userID {
		return errNotPhotoOwner
	}
	if err := s.repo.UpdateStatus(ctx, id, baseModel.StatusDeleted); err != nil {
		return apperr.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.FamilyPosts)
	return nil
}

func (s *photoService) CheckOwned(ctx context.Context, userID string, ids []string) error {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return errPhotosNotOwned
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil
	}

	n, err := s.repo.CountOwnedActive(ctx, userID, unique)
	if err != nil {
		return apperr.Internal(err)
	}
	if n != int64(len(unique)) {
		return errPhotosNotOwned
	}
	return nil
}
