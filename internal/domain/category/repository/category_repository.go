package repository

import (
	"context"

	"post_market/internal/domain/category/model"
	baseModel "post_market/pkg/model"

	"gorm.io/gorm"
)

// CategoryRepository 分类与过滤器仓库
type CategoryRepository interface {
	CreateCategory(ctx context.Context, c *model.Category) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	ListRootsWithChildren(ctx context.Context) ([]model.Category, error)
	ListActive(ctx context.Context) ([]model.Category, error)
	UpdateCategoryStatus(ctx context.Context, id string, status int) error

	CreateFilter(ctx context.Context, f *model.CategoryFilter) error
	GetFilter(ctx context.Context, id string) (*model.CategoryFilter, error)
	SaveFilter(ctx context.Context, f *model.CategoryFilter) error
	ListActiveFilters(ctx context.Context, categoryID string) ([]model.CategoryFilter, error)
	UpdateFilterStatus(ctx context.Context, id string, status int) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// --- Category ---

func (r *categoryRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Omit("Subcategories").Create(c).Error
}

func (r *categoryRepository) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListRootsWithChildren 根分类及其直接子分类（均为有效状态）
func (r *categoryRepository) ListRootsWithChildren(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", baseModel.StatusActive).Order("name asc")
		}).
		Where("parent_id IS NULL AND status = ?", baseModel.StatusActive).
		Order("name asc").
		Find(&categories).Error
	return categories, err
}

// ListActive 全部有效分类（不含子分类关联），用于展开后代和菜单同步
func (r *categoryRepository) ListActive(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Select("id", "name", "parent_id", "status", "created_at", "updated_at").
		Where("status = ?", baseModel.StatusActive).
		Order("name asc").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) UpdateCategoryStatus(ctx context.Context, id string, status int) error {
	return r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Update("status", status).Error
}

// --- Filter ---

func (r *categoryRepository) CreateFilter(ctx context.Context, f *model.CategoryFilter) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *categoryRepository) GetFilter(ctx context.Context, id string) (*model.CategoryFilter, error) {
	var f model.CategoryFilter
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *categoryRepository) SaveFilter(ctx context.Context, f *model.CategoryFilter) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *categoryRepository) ListActiveFilters(ctx context.Context, categoryID string) ([]model.CategoryFilter, error) {
	var filters []model.CategoryFilter
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND status = ?", categoryID, baseModel.StatusActive).
		Order("sort_order asc, name asc").
		Find(&filters).Error
	return filters, err
}

func (r *categoryRepository) UpdateFilterStatus(ctx context.Context, id string, status int) error {
	return r.db.WithContext(ctx).Model(&model.CategoryFilter{}).Where("id = ?", id).Update("status", status).Error
}
