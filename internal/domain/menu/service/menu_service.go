package service

import (
	"context"
	"strings"

	catModel "post_market/internal/domain/category/model"
	"post_market/internal/domain/menu/model"
	"post_market/internal/domain/menu/repository"
	"post_market/pkg/apperr"
	"post_market/pkg/cache"
	"post_market/pkg/database"
	"post_market/pkg/logger"
	"post_market/pkg/response"

	"go.uber.org/zap"
)

// CategorySource 提供有效分类
type CategorySource interface {
	ListActive(ctx context.Context) ([]catModel.Category, error)
}

// MenuInput 新建菜单参数
type MenuInput struct {
	Title     string  `json:"title" binding:"required"`
	Type      string  `json:"type" binding:"required"`
	ParentID  *string `json:"parentId"`
	URL       *string `json:"url"`
	SortOrder int     `json:"order"`
	IsActive  *bool   `json:"isActive"`
	Content   *string `json:"content"`
}

// UpdateMenuInput 修改菜单参数，nil 字段保持不变；parentId 为空字符串表示移到顶级
type UpdateMenuInput struct {
	Title     *string `json:"title"`
	Type      *string `json:"type"`
	ParentID  *string `json:"parentId"`
	URL       *string `json:"url"`
	SortOrder *int    `json:"order"`
	IsActive  *bool   `json:"isActive"`
	Content   *string `json:"content"`
}

// MenuService 菜单服务
type MenuService interface {
	CreateMenuItem(ctx context.Context, input MenuInput) (*model.Menu, error)
	UpdateMenuItem(ctx context.Context, id string, input UpdateMenuInput) (*model.Menu, error)
	DeleteMenuItem(ctx context.Context, id string) error
	GetMenuTree(ctx context.Context) ([]*model.Node, error)
	// SyncCategories 用有效分类树重建 category 类型菜单，返回新的菜单树
	SyncCategories(ctx context.Context) ([]*model.Node, error)
}

type menuService struct {
	repo       repository.MenuRepository
	categories CategorySource
	cache      cache.Invalidator
}

func NewMenuService(repo repository.MenuRepository, categories CategorySource, invalidator cache.Invalidator) MenuService {
	return &menuService{repo: repo, categories: categories, cache: invalidator}
}

var (
	errMenuNotFound   = apperr.NotFound(response.ErrMenuNotFound, "menu item not found")
	errParentNotFound = apperr.Validation(response.ErrMenuNotFound, "parent menu item not found",
		apperr.FieldError{Field: "parentId", Message: "parent menu item not found"})
	errParentCycle = apperr.Validation(response.ErrInvalidParam, "a menu item cannot be moved under itself or its descendants",
		apperr.FieldError{Field: "parentId", Message: "would create a cycle"})
)

func invalidType(t string) error {
	return apperr.Validation(response.ErrInvalidParam, "invalid menu type",
		apperr.FieldError{Field: "type", Message: "type must be one of category, page, link; got " + t})
}

func (s *menuService) CreateMenuItem(ctx context.Context, input MenuInput) (*model.Menu, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperr.Validation(response.ErrInvalidParam, "title is required",
			apperr.FieldError{Field: "title", Message: "title is required"})
	}
	if !model.ValidType(input.Type) {
		return nil, invalidType(input.Type)
	}

	parentID := emptyToNil(input.ParentID)
	if parentID != nil {
		if err := s.checkExists(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	m := &model.Menu{
		Title:     title,
		Type:      input.Type,
		ParentID:  parentID,
		URL:       input.URL,
		SortOrder: input.SortOrder,
		IsActive:  input.IsActive == nil || *input.IsActive,
		Content:   input.Content,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, apperr.Internal(err)
	}

	s.cache.Invalidate(ctx, cache.FamilyMenus)
	return m, nil
}

func (s *menuService) UpdateMenuItem(ctx context.Context, id string, input UpdateMenuInput) (*model.Menu, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperr.Validation(response.ErrInvalidParam, "title must not be empty",
				apperr.FieldError{Field: "title", Message: "title must not be empty"})
		}
		m.Title = title
	}
	if input.Type != nil {
		if !model.ValidType(*input.Type) {
			return nil, invalidType(*input.Type)
		}
		m.Type = *input.Type
	}
	if input.ParentID != nil {
		parentID := emptyToNil(input.ParentID)
		if parentID != nil {
			if err := s.checkParent(ctx, id, *parentID); err != nil {
				return nil, err
			}
		}
		m.ParentID = parentID
	}
	if input.URL != nil {
		m.URL = emptyToNil(input.URL)
	}
	if input.SortOrder != nil {
		m.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		m.IsActive = *input.IsActive
	}
	if input.Content != nil {
		m.Content = input.Content
	}

	if err := s.repo.Save(ctx, m); err != nil {
		return nil, apperr.Internal(err)
	}

	s.cache.Invalidate(ctx, cache.FamilyMenus)
	return m, nil
}

func (s *menuService) DeleteMenuItem(ctx context.Context, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}

	s.cache.Invalidate(ctx, cache.FamilyMenus)
	return nil
}

func (s *menuService) GetMenuTree(ctx context.Context) ([]*model.Node, error) {
	menus, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return model.BuildTree(menus), nil
}

func (s *menuService) SyncCategories(ctx context.Context) ([]*model.Node, error) {
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	items := model.PlanCategoryMenus(categories)
	if err := s.repo.ReplaceCategoryItems(ctx, items); err != nil {
		return nil, apperr.Internal(err)
	}
	logger.Log.Info("menu synced with categories",
		zap.Int("categories", len(categories)), zap.Int("items", len(items)))

	s.cache.Invalidate(ctx, cache.FamilyMenus)
	return s.GetMenuTree(ctx)
}

func (s *menuService) get(ctx context.Context, id string) (*model.Menu, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errMenuNotFound
		}
		return nil, apperr.Internal(err)
	}
	return m, nil
}

func (s *menuService) checkExists(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if database.IsNotFound(err) {
			return errParentNotFound
		}
		return apperr.Internal(err)
	}
	return nil
}

// checkParent 新父级必须存在，且不能是自身或自身的后代
func (s *menuService) checkParent(ctx context.Context, id, parentID string) error {
	if parentID == id {
		return errParentCycle
	}
	menus, err := s.repo.ListAll(ctx)
	if err != nil {
		return apperr.Internal(err)
	}

	parents := make(map[string]*string, len(menus))
	for _, m := range menus {
		parents[m.ID] = m.ParentID
	}
	if _, ok := parents[parentID]; !ok {
		return errParentNotFound
	}

	// 沿祖先链向上，visited 防止已有数据成环时死循环
	visited := make(map[string]bool)
	for cur := &parentID; cur != nil && !visited[*cur]; cur = parents[*cur] {
		if *cur == id {
			return errParentCycle
		}
		visited[*cur] = true
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
