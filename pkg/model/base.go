package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 通用状态值，删除均为软删除
const (
	StatusDisabled = 0
	StatusActive   = 1
	StatusDeleted  = -1
)

// BaseModel 基础模型，使用 UUID 作为主键
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate 钩子：生成 UUID
func (b *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return
}
