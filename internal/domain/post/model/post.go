package model

import (
	"time"

	photoModel "post_market/internal/domain/photo/model"
	baseModel "post_market/pkg/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 版本变更类型
const (
	ChangeCreate = "CREATE"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// Post 帖子（商品）
type Post struct {
	baseModel.BaseModel
	Title         string            `gorm:"size:255;not null" json:"title"`
	Description   string            `gorm:"type:text;not null;default:''" json:"description"`
	Price         decimal.Decimal   `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	UserID        string            `gorm:"type:uuid;index;not null" json:"userId"`
	CategoryID    *string           `gorm:"type:uuid;index" json:"categoryId"`
	CoverPhotoID  *string           `gorm:"type:uuid" json:"coverPhotoId"`
	Status        int               `gorm:"not null;default:1;index" json:"status"`
	StockQuantity int               `gorm:"not null;default:0" json:"stockQuantity"`
	Attributes    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"attributes"`

	CoverPhoto *photoModel.Photo `gorm:"foreignKey:CoverPhotoID" json:"coverPhoto,omitempty"`
	Gallery    []PostGallery     `gorm:"foreignKey:PostID" json:"gallery,omitempty"`
	LikeCount  int64             `gorm:"-" json:"likeCount"`
}

// PostGallery 帖子图集，按 SortOrder 排列
type PostGallery struct {
	baseModel.BaseModel
	PostID    string `gorm:"type:uuid;uniqueIndex:idx_gallery_post_photo;not null" json:"postId"`
	PhotoID   string `gorm:"type:uuid;uniqueIndex:idx_gallery_post_photo;not null" json:"photoId"`
	SortOrder int    `gorm:"column:sort_order;not null;default:0" json:"order"`
	Status    int    `gorm:"not null;default:1" json:"status"`

	Photo *photoModel.Photo `gorm:"foreignKey:PhotoID" json:"photo,omitempty"`
}

// Like 点赞
type Like struct {
	baseModel.BaseModel
	UserID string `gorm:"type:uuid;uniqueIndex:idx_like_user_post;not null" json:"userId"`
	PostID string `gorm:"type:uuid;uniqueIndex:idx_like_user_post;index;not null" json:"postId"`
}

// Author 版本记录与点赞列表中展示的用户
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (Author) TableName() string {
	return "users"
}

// PostVersion 帖子的不可变快照
type PostVersion struct {
	ID            string            `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PostID        string            `gorm:"type:uuid;uniqueIndex:idx_version_post_number;not null" json:"postId"`
	VersionNumber int               `gorm:"uniqueIndex:idx_version_post_number;not null" json:"versionNumber"`
	Title         string            `gorm:"size:255;not null" json:"title"`
	Description   string            `gorm:"type:text;not null;default:''" json:"description"`
	Price         decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"price"`
	UserID        string            `gorm:"type:uuid;not null" json:"userId"`
	CategoryID    *string           `gorm:"type:uuid" json:"categoryId"`
	CoverPhotoID  *string           `gorm:"type:uuid" json:"coverPhotoId"`
	Status        int               `gorm:"not null" json:"status"`
	StockQuantity int               `gorm:"not null" json:"stockQuantity"`
	Attributes    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"attributes"`
	ChangedBy     string            `gorm:"type:uuid;not null" json:"changedBy"`
	ChangeType    string            `gorm:"size:10;not null" json:"changeType"`
	ChangeReason  *string           `gorm:"type:text" json:"changeReason"`
	CreatedAt     time.Time         `json:"createdAt"`

	ChangedByUser *Author `gorm:"foreignKey:ChangedBy" json:"changedByUser,omitempty"`
}

// Snapshot 由帖子当前状态生成快照
func Snapshot(p *Post, number int, changeType, changedBy string, reason *string) *PostVersion {
	return &PostVersion{
		PostID:        p.ID,
		VersionNumber: number,
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price,
		UserID:        p.UserID,
		CategoryID:    p.CategoryID,
		CoverPhotoID:  p.CoverPhotoID,
		Status:        p.Status,
		StockQuantity: p.StockQuantity,
		Attributes:    copyAttributes(p.Attributes),
		ChangedBy:     changedBy,
		ChangeType:    changeType,
		ChangeReason:  reason,
	}
}

// ApplyTo 用快照覆盖帖子的可比较字段
func (v *PostVersion) ApplyTo(p *Post) {
	p.Title = v.Title
	p.Description = v.Description
	p.Price = v.Price
	p.CategoryID = v.CategoryID
	p.CoverPhotoID = v.CoverPhotoID
	p.Status = v.Status
	p.StockQuantity = v.StockQuantity
	p.Attributes = copyAttributes(v.Attributes)
}

// Field 参与比较的字段
type Field struct {
	Name  string
	Value interface{}
}

// ComparableFields 版本比较涉及的字段，顺序固定
func (v *PostVersion) ComparableFields() []Field {
	return []Field{
		{"title", v.Title},
		{"description", v.Description},
		{"price", v.Price},
		{"categoryId", v.CategoryID},
		{"coverPhotoId", v.CoverPhotoID},
		{"status", v.Status},
		{"stockQuantity", v.StockQuantity},
		{"attributes", v.Attributes},
	}
}

func copyAttributes(src datatypes.JSONMap) datatypes.JSONMap {
	dst := make(datatypes.JSONMap, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
