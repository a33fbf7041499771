package model

import (
	"fmt"
	"sort"

	catModel "post_market/internal/domain/category/model"
	baseModel "post_market/pkg/model"

	"github.com/google/uuid"
)

// 菜单类型
const (
	TypeCategory = "category"
	TypePage     = "page"
	TypeLink     = "link"
)

// ValidType 菜单类型是否合法
func ValidType(t string) bool {
	return t == TypeCategory || t == TypePage || t == TypeLink
}

// Menu 菜单项，ParentID 为空表示顶级菜单
type Menu struct {
	baseModel.BaseModel
	Title     string  `gorm:"size:100;not null" json:"title"`
	Type      string  `gorm:"size:20;not null;index" json:"type"`
	ParentID  *string `gorm:"type:uuid;index" json:"parentId"`
	URL       *string `gorm:"size:255" json:"url"`
	SortOrder int     `gorm:"not null;default:0" json:"order"`
	IsActive  bool    `gorm:"not null" json:"isActive"`
	Content   *string `gorm:"type:text" json:"content,omitempty"`
}

// Node 菜单树节点
type Node struct {
	Menu
	Children []*Node `json:"children"`
}

// BuildTree 按 ParentID 组装菜单树，同级按 type、order 排序
// 父节点不存在的菜单项不出现在树中
func BuildTree(items []Menu) []*Node {
	sorted := append([]Menu(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.ID < b.ID
	})

	nodes := make(map[string]*Node, len(sorted))
	for _, item := range sorted {
		nodes[item.ID] = &Node{Menu: item, Children: []*Node{}}
	}

	roots := make([]*Node, 0)
	for _, item := range sorted {
		node := nodes[item.ID]
		if item.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*item.ParentID]; ok && parent != node {
			parent.Children = append(parent.Children, node)
		}
	}
	return roots
}

// PlanCategoryMenus 将有效分类转换为 category 类型菜单，父级总在子级之前
// 父分类不在 categories 中的分类会被跳过，order 为同级内按创建时间的序号
func PlanCategoryMenus(categories []catModel.Category) []Menu {
	children := make(map[string][]catModel.Category)
	var roots []catModel.Category
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}
	for _, c := range categories {
		switch {
		case c.ParentID == nil:
			roots = append(roots, c)
		case known[*c.ParentID]:
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	byAge := func(list []catModel.Category) {
		sort.SliceStable(list, func(i, j int) bool {
			if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].CreatedAt.Before(list[j].CreatedAt)
			}
			return list[i].ID < list[j].ID
		})
	}

	type pending struct {
		category catModel.Category
		parent   *string
		order    int
	}

	byAge(roots)
	queue := make([]pending, 0, len(categories))
	for i, c := range roots {
		queue = append(queue, pending{category: c, order: i})
	}

	menus := make([]Menu, 0, len(categories))
	visited := make(map[string]bool, len(categories))
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if visited[next.category.ID] {
			continue
		}
		visited[next.category.ID] = true

		id := uuid.New().String()
		url := fmt.Sprintf("/categories/%s", next.category.ID)
		menus = append(menus, Menu{
			BaseModel: baseModel.BaseModel{ID: id},
			Title:     next.category.Name,
			Type:      TypeCategory,
			ParentID:  next.parent,
			URL:       &url,
			SortOrder: next.order,
			IsActive:  true,
		})

		kids := children[next.category.ID]
		byAge(kids)
		for i, c := range kids {
			queue = append(queue, pending{category: c, parent: &id, order: i})
		}
	}
	return menus
}
