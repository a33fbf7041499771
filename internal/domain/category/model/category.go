package model

import (
	baseModel "post_market/pkg/model"

	"github.com/lib/pq"
)

// Category 分类，ParentID 为空表示根分类
type Category struct {
	baseModel.BaseModel
	Name     string  `gorm:"size:100;not null" json:"name"`
	ParentID *string `gorm:"type:uuid;index" json:"parentId"`
	Status   int     `gorm:"not null;default:1" json:"status"`

	Subcategories []Category `gorm:"foreignKey:ParentID" json:"subcategories,omitempty"`
}

// 过滤器类型
const (
	FilterSelect      = "select"
	FilterMultiSelect = "multiselect"
	FilterRange       = "range"
	FilterBoolean     = "boolean"
)

// CategoryFilter 分类下的属性定义，用于校验帖子的 attributes
type CategoryFilter struct {
	baseModel.BaseModel
	CategoryID string         `gorm:"type:uuid;index;not null" json:"categoryId"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	Type       string         `gorm:"size:20;not null" json:"type"`
	Options    pq.StringArray `gorm:"type:text[]" json:"options,omitempty"` // select / multiselect
	Min        *float64       `json:"min,omitempty"`                        // range
	Max        *float64       `json:"max,omitempty"`                        // range
	Required   bool           `gorm:"not null;default:false" json:"required"`
	SortOrder  int            `gorm:"not null;default:0" json:"order"`
	Status     int            `gorm:"not null;default:1" json:"status"`
}
