package model

import (
	"testing"
	"time"

	catModel "post_market/internal/domain/category/model"
	baseModel "post_market/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func menu(id, typ string, parent *string, order int) Menu {
	return Menu{BaseModel: baseModel.BaseModel{ID: id}, Title: id, Type: typ, ParentID: parent, SortOrder: order, IsActive: true}
}

func TestBuildTree(t *testing.T) {
	items := []Menu{
		menu("about", TypePage, nil, 0),
		menu("shoes", TypeCategory, nil, 1),
		menu("boots", TypeCategory, strPtr("shoes"), 1),
		menu("sneakers", TypeCategory, strPtr("shoes"), 0),
		menu("clothes", TypeCategory, nil, 0),
		menu("orphan", TypeLink, strPtr("missing"), 0),
	}

	roots := BuildTree(items)
	require.Len(t, roots, 3)
	assert.Equal(t, "clothes", roots[0].ID)
	assert.Equal(t, "shoes", roots[1].ID)
	assert.Equal(t, "about", roots[2].ID)

	require.Len(t, roots[1].Children, 2)
	assert.Equal(t, "sneakers", roots[1].Children[0].ID)
	assert.Equal(t, "boots", roots[1].Children[1].ID)
	assert.NotNil(t, roots[0].Children)
}

func TestBuildTreeIgnoresSelfParent(t *testing.T) {
	roots := BuildTree([]Menu{menu("loop", TypeLink, strPtr("loop"), 0)})
	assert.Empty(t, roots)
}

func category(id string, parent *string, created time.Time) catModel.Category {
	return catModel.Category{
		BaseModel: baseModel.BaseModel{ID: id, CreatedAt: created},
		Name:      "cat-" + id,
		ParentID:  parent,
		Status:    baseModel.StatusActive,
	}
}

func TestPlanCategoryMenusParentsFirst(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	categories := []catModel.Category{
		category("heels", strPtr("women"), t0.Add(4*time.Hour)),
		category("women", strPtr("shoes"), t0.Add(2*time.Hour)),
		category("men", strPtr("shoes"), t0.Add(time.Hour)),
		category("shoes", nil, t0),
		category("stray", strPtr("inactive"), t0),
		category("books", nil, t0.Add(time.Minute)),
	}

	menus := PlanCategoryMenus(categories)
	require.Len(t, menus, 5)

	byURL := make(map[string]Menu)
	position := make(map[string]int)
	for i, m := range menus {
		assert.Equal(t, TypeCategory, m.Type)
		assert.True(t, m.IsActive)
		if m.ParentID != nil {
			_, seen := position[*m.ParentID]
			assert.True(t, seen, "parent of %s must come first", m.Title)
		}
		position[m.ID] = i
		byURL[*m.URL] = m
	}

	shoes := byURL["/categories/shoes"]
	assert.Nil(t, shoes.ParentID)
	assert.Equal(t, 0, shoes.SortOrder)
	assert.Equal(t, 1, byURL["/categories/books"].SortOrder)

	women := byURL["/categories/women"]
	assert.Equal(t, shoes.ID, *women.ParentID)
	assert.Equal(t, 1, women.SortOrder)
	assert.Equal(t, 0, byURL["/categories/men"].SortOrder)
	assert.Equal(t, women.ID, *byURL["/categories/heels"].ParentID)

	_, ok := byURL["/categories/stray"]
	assert.False(t, ok)
}

func TestPlanCategoryMenusTerminatesOnCycle(t *testing.T) {
	t0 := time.Now()
	menus := PlanCategoryMenus([]catModel.Category{
		category("root", nil, t0),
		category("a", strPtr("b"), t0),
		category("b", strPtr("a"), t0),
	})
	require.Len(t, menus, 1)
	assert.Equal(t, "cat-root", menus[0].Title)
}
