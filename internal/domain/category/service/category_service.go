package service

import (
	"context"
	"strings"

	"post_market/internal/domain/category/model"
	"post_market/internal/domain/category/repository"
	"post_market/pkg/apperr"
	"post_market/pkg/cache"
	"post_market/pkg/database"
	baseModel "post_market/pkg/model"
	"post_market/pkg/response"
)

// CategoryService 分类服务接口
type CategoryService interface {
	CreateCategory(ctx context.Context, name string, parentID *string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListActive(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	// ExpandCategoryIDs 展开为自身及全部后代分类 ID
	ExpandCategoryIDs(ctx context.Context, ids []string) ([]string, error)
}

type categoryService struct {
	repo  repository.CategoryRepository
	cache cache.Invalidator
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository, invalidator cache.Invalidator) CategoryService {
	return &categoryService{repo: repo, cache: invalidator}
}

var (
	errCategoryNotFound = apperr.NotFound(response.ErrCategoryNotFound, "category not found")
	errParentInactive   = apperr.Validation(response.ErrCategoryInactive, "parent category does not exist or is inactive")
)

func (s *categoryService) CreateCategory(ctx context.Context, name string, parentID *string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation(response.ErrInvalidParam, "name is required",
			apperr.FieldError{Field: "name", Message: "name is required"})
	}

	if parentID != nil && *parentID != "" {
		if _, err := s.GetCategory(ctx, *parentID); err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return nil, errParentInactive
			}
			return nil, err
		}
	} else {
		parentID = nil
	}

	c := &model.Category{Name: name, ParentID: parentID, Status: baseModel.StatusActive}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, apperr.Internal(err)
	}

	s.cache.Invalidate(ctx, cache.FamilyCategories)
	return c, nil
}

// ListCategories 根分类及其有效子分类
func (s *categoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListRootsWithChildren(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return categories, nil
}

func (s *categoryService) ListActive(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return categories, nil
}

// GetCategory 获取有效分类
func (s *categoryService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errCategoryNotFound
		}
		return nil, apperr.Internal(err)
	}
	if c.Status != baseModel.StatusActive {
		return nil, errCategoryNotFound
	}
	return c, nil
}

// DeleteCategory 软删除分类
func (s *categoryService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateCategoryStatus(ctx, id, baseModel.StatusDeleted); err != nil {
		return apperr.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.FamilyCategories)
	return nil
}

func (s *categoryService) ExpandCategoryIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	categories, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	children := make(map[string][]string)
	for _, c := range categories {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}
	return ExpandDescendants(ids, children), nil
}
