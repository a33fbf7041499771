package service

import (
	"context"

	"post_market/internal/domain/cart/model"
	"post_market/internal/domain/cart/repository"
	postModel "post_market/internal/domain/post/model"
	"post_market/pkg/apperr"
	"post_market/pkg/cache"
	"post_market/pkg/database"
	"post_market/pkg/metrics"
	baseModel "post_market/pkg/model"
	"post_market/pkg/response"
	"post_market/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// CartService 购物车服务
// 加入购物车即占用库存：购物车数量与帖子库存之和在任何操作前后保持不变
type CartService interface {
	AddItem(ctx context.Context, userID, postID string, quantity int) (*model.CartItem, error)
	// UpdateQuantity 设置为 quantity，0 表示移除
	UpdateQuantity(ctx context.Context, userID, postID string, quantity int) (*model.CartItem, error)
	// RemoveItem quantity 为 nil 时移除整行
	RemoveItem(ctx context.Context, userID, postID string, quantity *int) error
	ClearCart(ctx context.Context, userID string) error
	GetCart(ctx context.Context, userID string) (*model.Cart, error)
}

type cartService struct {
	repo  repository.CartRepository
	cache cache.Invalidator
}

// NewCartService 创建购物车服务，库存变化后失效帖子缓存
func NewCartService(repo repository.CartRepository, invalidator cache.Invalidator) CartService {
	return &cartService{repo: repo, cache: invalidator}
}

var (
	errQuantityInvalid   = apperr.Validation(response.ErrCartQuantity, "quantity must be at least 1")
	errQuantityNegative  = apperr.Validation(response.ErrCartQuantity, "quantity must not be negative")
	errInsufficientStock = apperr.Conflict(response.ErrInsufficientStock, "insufficient stock")
	errRemoveTooMany     = apperr.Conflict(response.ErrCartQuantity, "cannot remove more than the quantity in the cart")
	errItemNotFound      = apperr.NotFound(response.ErrCartItemNotFound, "item not in cart")
	errPostNotFound      = apperr.NotFound(response.ErrPostNotFound, "post not found")
)

func (s *cartService) AddItem(ctx context.Context, userID, postID string, quantity int) (item *model.CartItem, err error) {
	ctx, span := tracing.Start(ctx, "cart.add_item",
		attribute.String("post.id", postID), attribute.Int("quantity", quantity))
	defer func() {
		tracing.End(span, err)
		metrics.GetGlobalCollector().RecordCartOperation("add", err)
	}()

	if quantity < 1 {
		return nil, errQuantityInvalid
	}

	err = s.repo.Transaction(ctx, func(tx repository.CartRepository) error {
		post, err := lockPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		if post.Status != baseModel.StatusActive {
			return errPostNotFound
		}
		if quantity > post.StockQuantity {
			return errInsufficientStock
		}

		existing, err := findItem(ctx, tx, userID, postID)
		if err != nil {
			return err
		}
		if existing == nil {
			existing = &model.CartItem{UserID: userID, PostID: postID, Quantity: quantity}
			if err := tx.CreateItem(ctx, existing); err != nil {
				return apperr.Internal(err)
			}
		} else {
			existing.Quantity += quantity
			if err := tx.UpdateItemQuantity(ctx, existing.ID, existing.Quantity); err != nil {
				return apperr.Internal(err)
			}
		}

		if err := tx.UpdatePostStock(ctx, postID, post.StockQuantity-quantity); err != nil {
			return stockError(err)
		}
		item = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.FamilyPosts)
	return item, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, postID string, quantity int) (item *model.CartItem, err error) {
	ctx, span := tracing.Start(ctx, "cart.update_quantity",
		attribute.String("post.id", postID), attribute.Int("quantity", quantity))
	defer func() {
		tracing.End(span, err)
		metrics.GetGlobalCollector().RecordCartOperation("update", err)
	}()

	if quantity < 0 {
		return nil, errQuantityNegative
	}

	err = s.repo.Transaction(ctx, func(tx repository.CartRepository) error {
		post, err := lockPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		existing, err := findItem(ctx, tx, userID, postID)
		if err != nil {
			return err
		}
		if existing == nil {
			return errItemNotFound
		}

		delta := quantity - existing.Quantity
		if delta > 0 && post.Status != baseModel.StatusActive {
			return errPostNotFound
		}
		if delta > post.StockQuantity {
			return errInsufficientStock
		}

		if quantity == 0 {
			if err := tx.DeleteItem(ctx, existing.ID); err != nil {
				return apperr.Internal(err)
			}
		} else if err := tx.UpdateItemQuantity(ctx, existing.ID, quantity); err != nil {
			return apperr.Internal(err)
		}

		if delta != 0 {
			if err := tx.UpdatePostStock(ctx, postID, post.StockQuantity-delta); err != nil {
				return stockError(err)
			}
		}
		existing.Quantity = quantity
		item = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.FamilyPosts)
	return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, postID string, quantity *int) (err error) {
	ctx, span := tracing.Start(ctx, "cart.remove_item", attribute.String("post.id", postID))
	defer func() {
		tracing.End(span, err)
		metrics.GetGlobalCollector().RecordCartOperation("remove", err)
	}()

	if quantity != nil && *quantity < 1 {
		return errQuantityInvalid
	}

	err = s.repo.Transaction(ctx, func(tx repository.CartRepository) error {
		post, err := lockPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		existing, err := findItem(ctx, tx, userID, postID)
		if err != nil {
			return err
		}
		if existing == nil {
			return errItemNotFound
		}

		removed := existing.Quantity
		if quantity != nil {
			removed = *quantity
		}
		if removed > existing.Quantity {
			return errRemoveTooMany
		}

		if removed == existing.Quantity {
			err = tx.DeleteItem(ctx, existing.ID)
		} else {
			err = tx.UpdateItemQuantity(ctx, existing.ID, existing.Quantity-removed)
		}
		if err != nil {
			return apperr.Internal(err)
		}
		if err := tx.UpdatePostStock(ctx, postID, post.StockQuantity+removed); err != nil {
			return stockError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.FamilyPosts)
	return nil
}

// ClearCart 在一个事务中归还所有条目的库存，按 post_id 顺序加锁
func (s *cartService) ClearCart(ctx context.Context, userID string) (err error) {
	ctx, span := tracing.Start(ctx, "cart.clear")
	defer func() {
		tracing.End(span, err)
		metrics.GetGlobalCollector().RecordCartOperation("clear", err)
	}()

	err = s.repo.Transaction(ctx, func(tx repository.CartRepository) error {
		items, err := tx.ListItems(ctx, userID)
		if err != nil {
			return apperr.Internal(err)
		}
		for _, listed := range items {
			post, err := lockPost(ctx, tx, listed.PostID)
			if err != nil {
				return err
			}
			// 加锁后重新读取，列表中的数量可能已被并发请求修改
			item, err := findItem(ctx, tx, userID, listed.PostID)
			if err != nil {
				return err
			}
			if item == nil {
				continue
			}
			if err := tx.UpdatePostStock(ctx, item.PostID, post.StockQuantity+item.Quantity); err != nil {
				return stockError(err)
			}
			if err := tx.DeleteItem(ctx, item.ID); err != nil {
				return apperr.Internal(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.FamilyPosts)
	return nil
}

func (s *cartService) GetCart(ctx context.Context, userID string) (*model.Cart, error) {
	lines, err := s.repo.ListLines(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return model.NewCart(lines), nil
}

func lockPost(ctx context.Context, repo repository.CartRepository, postID string) (*postModel.Post, error) {
	post, err := repo.LockPost(ctx, postID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errPostNotFound
		}
		return nil, apperr.Internal(err)
	}
	return post, nil
}

// findItem 条目不存在时返回 nil, nil
func findItem(ctx context.Context, repo repository.CartRepository, userID, postID string) (*model.CartItem, error) {
	item, err := repo.GetItem(ctx, userID, postID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, apperr.Internal(err)
	}
	return item, nil
}

// stockError 库存 CHECK 约束兜底
func stockError(err error) error {
	if database.IsCheckViolation(err) {
		return errInsufficientStock
	}
	return apperr.Internal(err)
}
