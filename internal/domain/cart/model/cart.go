package model

import (
	"time"

	baseModel "post_market/pkg/model"

	"github.com/shopspring/decimal"
)

// CartItem 购物车条目，(user_id, post_id) 唯一
type CartItem struct {
	baseModel.BaseModel
	UserID   string `gorm:"type:uuid;uniqueIndex:idx_cart_user_post;not null" json:"userId"`
	PostID   string `gorm:"type:uuid;uniqueIndex:idx_cart_user_post;not null" json:"postId"`
	Quantity int    `gorm:"not null" json:"quantity"`
}

// CartLine 购物车明细行，联表读取帖子信息
type CartLine struct {
	ItemID     string          `db:"id" json:"id"`
	PostID     string          `db:"post_id" json:"postId"`
	Title      string          `db:"title" json:"title"`
	UnitPrice  decimal.Decimal `db:"price" json:"unitPrice"`
	Quantity   int             `db:"quantity" json:"quantity"`
	Stock      int             `db:"stock_quantity" json:"availableStock"`
	PostStatus int             `db:"status" json:"postStatus"`
	AddedAt    time.Time       `db:"created_at" json:"addedAt"`
	LineTotal  decimal.Decimal `db:"-" json:"lineTotal"`
}

// Cart 购物车汇总
type Cart struct {
	Items     []CartLine      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
}

// NewCart 计算行小计与总价，均保留两位小数
func NewCart(lines []CartLine) *Cart {
	cart := &Cart{Items: make([]CartLine, 0, len(lines)), Total: decimal.Zero}
	for _, line := range lines {
		line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		cart.Total = cart.Total.Add(line.LineTotal)
		cart.ItemCount += line.Quantity
		cart.Items = append(cart.Items, line)
	}
	cart.Total = cart.Total.Round(2)
	return cart
}
