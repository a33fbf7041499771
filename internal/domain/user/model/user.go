package model

import baseModel "post_market/pkg/model"

// User 用户模型
type User struct {
	baseModel.BaseModel
	Username string `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password string `gorm:"not null" json:"-"` // bcrypt 哈希，不返回给前端
	Status   int    `gorm:"not null;default:1" json:"status"`
}

// IsActive 是否为正常用户
func (u *User) IsActive() bool {
	return u.Status == baseModel.StatusActive
}
