package repository

import (
	"context"

	"post_market/internal/domain/menu/model"

	"gorm.io/gorm"
)

// MenuRepository 菜单仓库
type MenuRepository interface {
	Create(ctx context.Context, m *model.Menu) error
	GetByID(ctx context.Context, id string) (*model.Menu, error)
	Save(ctx context.Context, m *model.Menu) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]model.Menu, error)
	// ReplaceCategoryItems 在一个事务中删除全部 category 类型菜单并按顺序写入 items
	ReplaceCategoryItems(ctx context.Context, items []model.Menu) error
}

type menuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) Create(ctx context.Context, m *model.Menu) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *menuRepository) GetByID(ctx context.Context, id string) (*model.Menu, error) {
	var m model.Menu
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *menuRepository) Save(ctx context.Context, m *model.Menu) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// Delete 子菜单的 parent_id 由外键置空
func (r *menuRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Menu{}).Error
}

func (r *menuRepository) ListAll(ctx context.Context) ([]model.Menu, error) {
	var menus []model.Menu
	err := r.db.WithContext(ctx).Order("type ASC").Order("sort_order ASC").Order("id ASC").Find(&menus).Error
	return menus, err
}

func (r *menuRepository) ReplaceCategoryItems(ctx context.Context, items []model.Menu) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("type = ?", model.TypeCategory).Delete(&model.Menu{}).Error; err != nil {
			return err
		}
		// 逐条写入，父级先于子级
		for i := range items {
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
