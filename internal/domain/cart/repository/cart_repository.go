package repository

import (
	"context"

	"post_market/internal/domain/cart/model"
	postModel "post_market/internal/domain/post/model"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository 购物车仓库
type CartRepository interface {
	// Transaction 在事务中执行 fn，fn 收到绑定该事务的仓库
	Transaction(ctx context.Context, fn func(repo CartRepository) error) error

	// LockPost SELECT ... FOR UPDATE 锁定帖子行，不区分状态
	LockPost(ctx context.Context, postID string) (*postModel.Post, error)
	UpdatePostStock(ctx context.Context, postID string, stock int) error

	GetItem(ctx context.Context, userID, postID string) (*model.CartItem, error)
	ListItems(ctx context.Context, userID string) ([]model.CartItem, error)
	CreateItem(ctx context.Context, item *model.CartItem) error
	UpdateItemQuantity(ctx context.Context, id string, quantity int) error
	DeleteItem(ctx context.Context, id string) error

	// ListLines 联表读取购物车明细
	ListLines(ctx context.Context, userID string) ([]model.CartLine, error)
}

type cartRepository struct {
	db     *gorm.DB
	reader *sqlx.DB
}

// NewCartRepository 创建购物车仓库，reader 用于只读联表查询
func NewCartRepository(db *gorm.DB, reader *sqlx.DB) CartRepository {
	return &cartRepository{db: db, reader: reader}
}

func (r *cartRepository) Transaction(ctx context.Context, fn func(repo CartRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&cartRepository{db: tx, reader: r.reader})
	})
}

func (r *cartRepository) LockPost(ctx context.Context, postID string) (*postModel.Post, error) {
	var post postModel.Post
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", postID).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *cartRepository) UpdatePostStock(ctx context.Context, postID string, stock int) error {
	return r.db.WithContext(ctx).Model(&postModel.Post{}).
		Where("id = ?", postID).
		Update("stock_quantity", stock).Error
}

func (r *cartRepository) GetItem(ctx context.Context, userID, postID string) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems 按 post_id 排序，批量加锁时顺序一致
func (r *cartRepository) ListItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("post_id ASC").Find(&items).Error
	return items, err
}

func (r *cartRepository) CreateItem(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, id string, quantity int) error {
	return r.db.WithContext(ctx).Model(&model.CartItem{}).Where("id = ?", id).Update("quantity", quantity).Error
}

func (r *cartRepository) DeleteItem(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.CartItem{}).Error
}

const listLinesSQL = `
SELECT ci.id, ci.post_id, ci.quantity, ci.created_at,
       p.title, p.price, p.stock_quantity, p.status
FROM cart_items ci
JOIN posts p ON p.id = ci.post_id
WHERE ci.user_id = $1
ORDER BY ci.created_at ASC, ci.id ASC`

func (r *cartRepository) ListLines(ctx context.Context, userID string) ([]model.CartLine, error) {
	var lines []model.CartLine
	if err := r.reader.SelectContext(ctx, &lines, listLinesSQL, userID); err != nil {
		return nil, err
	}
	return lines, nil
}
