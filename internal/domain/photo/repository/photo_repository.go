package repository

import (
	"context"

	"post_market/internal/domain/photo/model"
	baseModel "post_market/pkg/model"

	"gorm.io/gorm"
)

// PhotoRepository 图片仓库
type PhotoRepository interface {
	CreateBatch(ctx context.Context, photos []model.Photo) error
	GetByID(ctx context.Context, id string) (*model.Photo, error)
	ListActiveByUser(ctx context.Context, userID string, offset, limit int) ([]model.Photo, int64, error)
	UpdateStatus(ctx context.Context, id string, status int) error
	// CountOwnedActive 统计 ids 中属于 userID 且有效的图片数量
	CountOwnedActive(ctx context.Context, userID string, ids []string) (int64, error)
}

type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository 创建图片仓库
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) CreateBatch(ctx context.Context, photos []model.Photo) error {
	return r.db.WithContext(ctx).Create(&photos).Error
}

func (r *photoRepository) GetByID(ctx context.Context, id string) (*model.Photo, error) {
	var photo model.Photo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *photoRepository) ListActiveByUser(ctx context.Context, userID string, offset, limit int) ([]model.Photo, int64, error) {
	var photos []model.Photo
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Photo{}).
		Where("user_id = ? AND status = ?", userID, baseModel.StatusActive)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&photos).Error
	return photos, total, err
}

func (r *photoRepository) UpdateStatus(ctx context.Context, id string, status int) error {
	return r.db.WithContext(ctx).Model(&model.Photo{}).Where("id = ?", id).Update("status", status).Error
}

func (r *photoRepository) CountOwnedActive(ctx context.Context, userID string, ids []string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Photo{}).
		Where("id IN ? AND user_id = ? AND status = ?", ids, userID, baseModel.StatusActive).
		Count(&n).Error
	return n, err
}
