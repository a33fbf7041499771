package service

import (
	"context"
	"strings"

	catModel "post_market/internal/domain/category/model"
	"post_market/internal/domain/post/model"
	"post_market/internal/domain/post/repository"
	"post_market/internal/domain/post/search"
	"post_market/pkg/apperr"
	"post_market/pkg/cache"
	"post_market/pkg/database"
	"post_market/pkg/logger"
	baseModel "post_market/pkg/model"
	"post_market/pkg/response"
	"post_market/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Categories 帖子依赖的分类能力
type Categories interface {
	GetCategory(ctx context.Context, id string) (*catModel.Category, error)
	ExpandCategoryIDs(ctx context.Context, ids []string) ([]string, error)
}

// AttributePreparer 按分类过滤器校验并规范化属性
type AttributePreparer interface {
	PrepareAttributes(ctx context.Context, categoryID *string, attrs map[string]interface{}) (map[string]interface{}, error)
}

// PhotoChecker 校验图片归属
type PhotoChecker interface {
	CheckOwned(ctx context.Context, userID string, ids []string) error
}

// PostInput 创建帖子参数
type PostInput struct {
	Title         string                 `json:"title" binding:"required,max=255"`
	Description   string                 `json:"description"`
	Price         decimal.Decimal        `json:"price"`
	CategoryID    *string                `json:"categoryId"`
	CoverPhotoID  *string                `json:"coverPhotoId"`
	StockQuantity int                    `json:"stockQuantity" binding:"min=0"`
	Attributes    map[string]interface{} `json:"attributes"`
}

// UpdatePostInput 更新帖子参数，nil 表示不修改；categoryId / coverPhotoId 传空串表示清空
type UpdatePostInput struct {
	Title         *string                `json:"title" binding:"omitempty,min=1,max=255"`
	Description   *string                `json:"description"`
	Price         *decimal.Decimal       `json:"price"`
	CategoryID    *string                `json:"categoryId"`
	CoverPhotoID  *string                `json:"coverPhotoId"`
	StockQuantity *int                   `json:"stockQuantity" binding:"omitempty,min=0"`
	Attributes    map[string]interface{} `json:"attributes"`
	ChangeReason  *string                `json:"changeReason"`
}

// LikeState 点赞状态
type LikeState struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

// PostService 帖子服务接口
type PostService interface {
	CreatePost(ctx context.Context, userID string, in PostInput) (*model.Post, error)
	UpdatePost(ctx context.Context, userID, postID string, in UpdatePostInput) (*model.Post, error)
	DeletePost(ctx context.Context, userID, postID string) error
	GetPost(ctx context.Context, postID string) (*model.Post, error)
	Search(ctx context.Context, p search.Params) (*utils.PageResult, error)
	ListMyPosts(ctx context.Context, userID string, page, limit int) (*utils.PageResult, error)
	SetGallery(ctx context.Context, userID, postID string, photoIDs []string) (*model.Post, error)

	ToggleLike(ctx context.Context, userID, postID string) (*LikeState, error)
	ListLikers(ctx context.Context, postID string, page, limit int) (*utils.PageResult, error)
	ListLikedPosts(ctx context.Context, userID string, page, limit int) (*utils.PageResult, error)
}

type postService struct {
	repo       repository.PostRepository
	versions   VersionService
	categories Categories
	attributes AttributePreparer
	photos     PhotoChecker
	cache      cache.Invalidator
}

// NewPostService 创建帖子服务
func NewPostService(
	repo repository.PostRepository,
	versions VersionService,
	categories Categories,
	attributes AttributePreparer,
	photos PhotoChecker,
	invalidator cache.Invalidator,
) PostService {
	return &postService{
		repo:       repo,
		versions:   versions,
		categories: categories,
		attributes: attributes,
		photos:     photos,
		cache:      invalidator,
	}
}

var (
	errCategoryUnavailable = apperr.Validation(response.ErrCategoryInactive, "category does not exist or is inactive",
		apperr.FieldError{Field: "categoryId", Message: "category does not exist or is inactive"})
	errNegativePrice = apperr.Validation(response.ErrInvalidParam, "price must not be negative",
		apperr.FieldError{Field: "price", Message: "price must not be negative"})
	errNegativeStock = apperr.Validation(response.ErrInvalidParam, "stockQuantity must not be negative",
		apperr.FieldError{Field: "stockQuantity", Message: "stockQuantity must not be negative"})
	errDuplicatePhoto = apperr.Validation(response.ErrInvalidParam, "gallery contains the same photo more than once",
		apperr.FieldError{Field: "photoIds", Message: "photo ids must be unique"})
)

func (s *postService) CreatePost(ctx context.Context, userID string, in PostInput) (*model.Post, error) {
	if in.Price.IsNegative() {
		return nil, errNegativePrice
	}
	if in.StockQuantity < 0 {
		return nil, errNegativeStock
	}

	categoryID := normalizeID(in.CategoryID)
	if err := s.checkCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	attrs, err := s.attributes.PrepareAttributes(ctx, categoryID, in.Attributes)
	if err != nil {
		return nil, err
	}

	coverID := normalizeID(in.CoverPhotoID)
	if coverID != nil {
		if err := s.photos.CheckOwned(ctx, userID, []string{*coverID}); err != nil {
			return nil, err
		}
	}

	post := &model.Post{
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Price:         in.Price.Round(2),
		UserID:        userID,
		CategoryID:    categoryID,
		CoverPhotoID:  coverID,
		Status:        baseModel.StatusActive,
		StockQuantity: in.StockQuantity,
		Attributes:    attrs,
	}
	if post.Attributes == nil {
		post.Attributes = map[string]interface{}{}
	}

	err = s.repo.Transaction(ctx, func(tx repository.PostRepository) error {
		if err := tx.Create(ctx, post); err != nil {
			return apperr.Internal(err)
		}
		if _, err := s.versions.CreateVersion(ctx, tx, post, model.ChangeCreate, userID, nil); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.FamilyPosts)
	return post, nil
}

func (s *postService) UpdatePost(ctx context.Context, userID, postID string, in UpdatePostInput) (*model.Post, error) {
	if in.Price != nil && in.Price.IsNegative() {
		return nil, errNegativePrice
	}
	if in.StockQuantity != nil && *in.StockQuantity < 0 {
		return nil, errNegativeStock
	}

	var post *model.Post
	err := s.repo.Transaction(ctx, func(tx repository.PostRepository) error {
		current, err := s.lockOwnedActive(ctx, tx, userID, postID)
		if err != nil {
			return err
		}

		revalidate := in.Attributes != nil
		if in.CategoryID != nil {
			categoryID := normalizeID(in.CategoryID)
			if err := s.checkCategory(ctx, categoryID); err != nil {
				return err
			}
			current.CategoryID = categoryID
			revalidate = true
		}
		if revalidate {
			attrs := in.Attributes
			if attrs == nil {
				attrs = current.Attributes
			}
			prepared, err := s.attributes.PrepareAttributes(ctx, current.CategoryID, attrs)
			if err != nil {
				return err
			}
			if prepared == nil {
				prepared = map[string]interface{}{}
			}
			current.Attributes = prepared
		}

		if in.CoverPhotoID != nil {
			coverID := normalizeID(in.CoverPhotoID)
			if coverID != nil {
				if err := s.photos.CheckOwned(ctx, current.UserID, []string{*coverID}); err != nil {
					return err
				}
			}
			current.CoverPhotoID = coverID
		}
		if in.Title != nil {
			current.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			current.Description = *in.Description
		}
		if in.Price != nil {
			current.Price = in.Price.Round(2)
		}
		if in.StockQuantity != nil {
			current.StockQuantity = *in.StockQuantity
		}

		if err := tx.Save(ctx, current); err != nil {
			return apperr.Internal(err)
		}
		if _, err := s.versions.CreateVersion(ctx, tx, current, model.ChangeUpdate, userID, in.ChangeReason); err != nil {
			return apperr.Internal(err)
		}
		post = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.FamilyPosts)
	return post, nil
}

// DeletePost 软删除，只有作者可以删除
func (s *postService) DeletePost(ctx context.Context, userID, postID string) error {
	err := s.repo.Transaction(ctx, func(tx repository.PostRepository) error {
		post, err := s.lockOwnedActive(ctx, tx, userID, postID)
		if err != nil {
			return err
		}

		post.Status = baseModel.StatusDeleted
		if err := tx.Save(ctx, post); err != nil {
			return apperr.Internal(err)
		}
		if _, err := s.versions.CreateVersion(ctx, tx, post, model.ChangeDelete, userID, nil); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.FamilyPosts)
	return nil
}

func (s *postService) GetPost(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.repo.GetDetail(ctx, postID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errPostNotFound
		}
		return nil, apperr.Internal(err)
	}

	count, err := s.repo.CountLikes(ctx, postID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	post.LikeCount = count
	return post, nil
}

func (s *postService) Search(ctx context.Context, p search.Params) (*utils.PageResult, error) {
	categoryIDs := p.CategoryIDs
	if p.IncludeSubcategories && len(categoryIDs) > 0 {
		expanded, err := s.categories.ExpandCategoryIDs(ctx, categoryIDs)
		if err != nil {
			return nil, err
		}
		categoryIDs = expanded
	}

	posts, total, err := s.repo.Search(ctx, p, categoryIDs)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	result := utils.NewPageResult(posts, total, p.Page, p.Limit)
	return &result, nil
}

func (s *postService) ListMyPosts(ctx context.Context, userID string, page, limit int) (*utils.PageResult, error) {
	pg := utils.Pagination{Page: page, Limit: limit}
	offset, limit := pg.GetPageOffset()

	posts, total, err := s.repo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	result := utils.NewPageResult(posts, total, pg.Page, limit)
	return &result, nil
}

// SetGallery 按给定顺序替换图集，图片必须属于帖子作者
func (s *postService) SetGallery(ctx context.Context, userID, postID string, photoIDs []string) (*model.Post, error) {
	seen := make(map[string]bool, len(photoIDs))
	for _, id := range photoIDs {
		if seen[id] {
			return nil, errDuplicatePhoto
		}
		seen[id] = true
	}

	err := s.repo.Transaction(ctx, func(tx repository.PostRepository) error {
		post, err := s.lockOwnedActive(ctx, tx, userID, postID)
		if err != nil {
			return err
		}
		if err := s.photos.CheckOwned(ctx, post.UserID, photoIDs); err != nil {
			return err
		}
		if err := tx.ReplaceGallery(ctx, postID, photoIDs); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.FamilyPosts)
	return s.GetPost(ctx, postID)
}

func (s *postService) ToggleLike(ctx context.Context, userID, postID string) (*LikeState, error) {
	if _, err := s.activePost(ctx, postID); err != nil {
		return nil, err
	}

	state := &LikeState{}
	like, err := s.repo.FindLike(ctx, userID, postID)
	switch {
	case err == nil:
		if err := s.repo.DeleteLike(ctx, like.ID); err != nil {
			return nil, apperr.Internal(err)
		}
	case database.IsNotFound(err):
		state.Liked = true
		// 并发点赞撞上唯一索引时视为已点赞
		if err := s.repo.CreateLike(ctx, &model.Like{UserID: userID, PostID: postID}); err != nil && !database.IsUniqueViolation(err) {
			return nil, apperr.Internal(err)
		}
	default:
		return nil, apperr.Internal(err)
	}

	count, err := s.repo.CountLikes(ctx, postID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	state.Count = count

	s.cache.Invalidate(ctx, cache.FamilyPosts)
	return state, nil
}

func (s *postService) ListLikers(ctx context.Context, postID string, page, limit int) (*utils.PageResult, error) {
	if _, err := s.activePost(ctx, postID); err != nil {
		return nil, err
	}

	pg := utils.Pagination{Page: page, Limit: limit}
	offset, limit := pg.GetPageOffset()
	users, total, err := s.repo.ListLikers(ctx, postID, offset, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	result := utils.NewPageResult(users, total, pg.Page, limit)
	return &result, nil
}

func (s *postService) ListLikedPosts(ctx context.Context, userID string, page, limit int) (*utils.PageResult, error) {
	pg := utils.Pagination{Page: page, Limit: limit}
	offset, limit := pg.GetPageOffset()
	posts, total, err := s.repo.ListLikedPosts(ctx, userID, offset, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	result := utils.NewPageResult(posts, total, pg.Page, limit)
	return &result, nil
}

func (s *postService) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.GetCategory(ctx, *categoryID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return errCategoryUnavailable
		}
		return err
	}
	return nil
}

func (s *postService) activePost(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errPostNotFound
		}
		return nil, apperr.Internal(err)
	}
	if post.Status != baseModel.StatusActive {
		return nil, errPostNotFound
	}
	return post, nil
}

// lockOwnedActive 加锁读取有效帖子并校验作者
func (s *postService) lockOwnedActive(ctx context.Context, tx repository.PostRepository, userID, postID string) (*model.Post, error) {
	post, err := lockPost(ctx, tx, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != baseModel.StatusActive {
		return nil, errPostNotFound
	}
	if post.UserID != userID {
		logger.Log.Warn("post modification by non-owner rejected",
			zap.String("post_id", postID), zap.String("user_id", userID))
		return nil, errNotPostOwner
	}
	return post, nil
}

func normalizeID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
