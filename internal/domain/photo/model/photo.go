package model

import baseModel "post_market/pkg/model"

// Photo 用户上传的图片
type Photo struct {
	baseModel.BaseModel
	UserID   string `gorm:"type:uuid;index;not null" json:"userId"`
	Filename string `gorm:"size:255;not null" json:"filename"` // 对象键
	URL      string `gorm:"size:1024;not null" json:"url"`
	Status   int    `gorm:"not null;default:1" json:"status"`
}
