package service

import (
	"context"
	"strings"

	"post_market/internal/domain/category/model"
	"post_market/internal/domain/category/repository"
	"post_market/internal/domain/category/validator"
	"post_market/pkg/apperr"
	"post_market/pkg/cache"
	"post_market/pkg/database"
	baseModel "post_market/pkg/model"
	"post_market/pkg/response"
)

// FilterInput 创建/更新过滤器的参数
type FilterInput struct {
	Name     string   `json:"name" binding:"required,max=100"`
	Type     string   `json:"type" binding:"required"`
	Options  []string `json:"options"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Required bool     `json:"required"`
	Order    int      `json:"order"`
}

// FilterService 分类过滤器服务，同时负责帖子属性校验
type FilterService interface {
	CreateFilter(ctx context.Context, categoryID string, in FilterInput) (*model.CategoryFilter, error)
	UpdateFilter(ctx context.Context, id string, in FilterInput) (*model.CategoryFilter, error)
	ListFilters(ctx context.Context, categoryID string) ([]model.CategoryFilter, error)
	DeleteFilter(ctx context.Context, id string) error

	// ValidateAttributes 返回字段错误列表，空列表表示通过；error 仅表示存储失败
	ValidateAttributes(ctx context.Context, categoryID *string, attrs map[string]interface{}) ([]apperr.FieldError, error)
	// PrepareAttributes 校验并规范化属性键，校验失败返回 Validation 错误
	PrepareAttributes(ctx context.Context, categoryID *string, attrs map[string]interface{}) (map[string]interface{}, error)
}

type filterService struct {
	repo       repository.CategoryRepository
	categories CategoryService
	cache      cache.Invalidator
}

// NewFilterService 创建过滤器服务
func NewFilterService(repo repository.CategoryRepository, categories CategoryService, invalidator cache.Invalidator) FilterService {
	return &filterService{repo: repo, categories: categories, cache: invalidator}
}

var (
	errFilterNotFound  = apperr.NotFound(response.ErrFilterNotFound, "filter not found")
	errFilterDuplicate = apperr.Conflict(response.ErrFilterInvalid, "a filter with this name already exists in the category")
)

func (s *filterService) CreateFilter(ctx context.Context, categoryID string, in FilterInput) (*model.CategoryFilter, error) {
	if _, err := s.categories.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	f := &model.CategoryFilter{CategoryID: categoryID, Status: baseModel.StatusActive}
	applyInput(f, in)
	if errs := validator.CheckDefinition(f); len(errs) > 0 {
		return nil, apperr.Validation(response.ErrFilterInvalid, "invalid filter definition", errs...)
	}
	if err := s.ensureUniqueName(ctx, f); err != nil {
		return nil, err
	}

	if err := s.repo.CreateFilter(ctx, f); err != nil {
		return nil, apperr.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.FamilyFilters)
	return f, nil
}

func (s *filterService) UpdateFilter(ctx context.Context, id string, in FilterInput) (*model.CategoryFilter, error) {
	f, err := s.getActiveFilter(ctx, id)
	if err != nil {
		return nil, err
	}

	applyInput(f, in)
	if errs := validator.CheckDefinition(f); len(errs) > 0 {
		return nil, apperr.Validation(response.ErrFilterInvalid, "invalid filter definition", errs...)
	}
	if err := s.ensureUniqueName(ctx, f); err != nil {
		return nil, err
	}

	if err := s.repo.SaveFilter(ctx, f); err != nil {
		return nil, apperr.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.FamilyFilters)
	return f, nil
}

func (s *filterService) ListFilters(ctx context.Context, categoryID string) ([]model.CategoryFilter, error) {
	filters, err := s.repo.ListActiveFilters(ctx, categoryID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return filters, nil
}

// DeleteFilter 停用过滤器（status 置 0）
func (s *filterService) DeleteFilter(ctx context.Context, id string) error {
	if _, err := s.getActiveFilter(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateFilterStatus(ctx, id, baseModel.StatusDisabled); err != nil {
		return apperr.Internal(err)
	}
	s.cache.Invalidate(ctx, cache.FamilyFilters)
	return nil
}

func (s *filterService) ValidateAttributes(ctx context.Context, categoryID *string, attrs map[string]interface{}) ([]apperr.FieldError, error) {
	fields, err := s.fields(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return validator.Validate(fields, attrs), nil
}

func (s *filterService) PrepareAttributes(ctx context.Context, categoryID *string, attrs map[string]interface{}) (map[string]interface{}, error) {
	fields, err := s.fields(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if errs := validator.Validate(fields, attrs); len(errs) > 0 {
		return nil, apperr.Validation(response.ErrAttributeInvalid, "invalid attributes", errs...)
	}
	return validator.Normalize(fields, attrs), nil
}

// fields 分类为空时没有任何可用属性
func (s *filterService) fields(ctx context.Context, categoryID *string) ([]validator.Field, error) {
	if categoryID == nil || *categoryID == "" {
		return nil, nil
	}
	filters, err := s.repo.ListActiveFilters(ctx, *categoryID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	fields, err := validator.FromFilters(filters)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return fields, nil
}

func (s *filterService) getActiveFilter(ctx context.Context, id string) (*model.CategoryFilter, error) {
	f, err := s.repo.GetFilter(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errFilterNotFound
		}
		return nil, apperr.Internal(err)
	}
	if f.Status != baseModel.StatusActive {
		return nil, errFilterNotFound
	}
	return f, nil
}

func (s *filterService) ensureUniqueName(ctx context.Context, f *model.CategoryFilter) error {
	existing, err := s.repo.ListActiveFilters(ctx, f.CategoryID)
	if err != nil {
		return apperr.Internal(err)
	}
	for _, e := range existing {
		// 更新时跳过自身，新建时 f.ID 为空
		if f.ID != "" && e.ID == f.ID {
			continue
		}
		if strings.EqualFold(e.Name, f.Name) {
			return errFilterDuplicate
		}
	}
	return nil
}

func applyInput(f *model.CategoryFilter, in FilterInput) {
	f.Name = in.Name
	f.Type = strings.ToLower(strings.TrimSpace(in.Type))
	f.Options = in.Options
	f.Min = in.Min
	f.Max = in.Max
	f.Required = in.Required
	f.SortOrder = in.Order
}
