package search

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatusActive 只检索有效帖子
const StatusActive = 1

// 属性值为数字时才参与范围比较，正则中不能出现 ? 以免被当作占位符
const numericAttr = `(CASE WHEN (posts.attributes ->> ?::text) ~ '^[-]{0,1}[0-9]+([.][0-9]+){0,1}$' ` +
	`THEN (posts.attributes ->> ?::text)::numeric END)`

// Predicate 构造完整的 WHERE 条件，所有用户输入都以参数形式传递
// categoryIDs 为已展开的分类 ID（可能包含后代）
func Predicate(p Params, categoryIDs []string) sq.And {
	conds := sq.And{sq.Eq{"posts.status": StatusActive}}

	if p.Query != "" {
		like := "%" + escapeLike(p.Query) + "%"
		conds = append(conds, sq.Or{
			sq.Expr("posts.title ILIKE ?", like),
			sq.Expr("posts.description ILIKE ?", like),
			sq.Expr("EXISTS (SELECT 1 FROM jsonb_each_text(posts.attributes) AS kv WHERE kv.value ILIKE ?)", like),
		})
	}

	if len(categoryIDs) > 0 {
		conds = append(conds, sq.Eq{"posts.category_id": categoryIDs})
	}

	if p.MinPrice != nil {
		conds = append(conds, sq.GtOrEq{"posts.price": *p.MinPrice})
	}
	if p.MaxPrice != nil {
		conds = append(conds, sq.LtOrEq{"posts.price": *p.MaxPrice})
	}

	for _, f := range p.Attributes {
		conds = append(conds, attributePredicate(f))
	}
	return conds
}

func attributePredicate(f AttrFilter) sq.Sqlizer {
	switch f.Kind {
	case KindIn:
		lowered := make([]interface{}, len(f.Values))
		for i, v := range f.Values {
			lowered[i] = strings.ToLower(v)
		}
		placeholders := sq.Placeholders(len(lowered))
		args := []interface{}{f.Key, f.Key}
		args = append(args, lowered...)
		args = append(args, f.Key)
		args = append(args, lowered...)
		return sq.Expr(
			"(CASE jsonb_typeof(posts.attributes -> ?::text) "+
				"WHEN 'array' THEN EXISTS (SELECT 1 FROM jsonb_array_elements_text(posts.attributes -> ?::text) AS el WHERE LOWER(el) IN ("+placeholders+")) "+
				"ELSE LOWER(posts.attributes ->> ?::text) IN ("+placeholders+") END)",
			args...,
		)
	case KindRange:
		rng := sq.And{}
		if f.Min != nil {
			rng = append(rng, sq.Expr(numericAttr+" >= ?", f.Key, f.Key, *f.Min))
		}
		if f.Max != nil {
			rng = append(rng, sq.Expr(numericAttr+" <= ?", f.Key, f.Key, *f.Max))
		}
		return rng
	default:
		return sq.Expr("LOWER(posts.attributes ->> ?::text) = LOWER(?)", f.Key, f.Value)
	}
}

// Apply 在 db 上追加检索条件（不含排序与分页），用于计数和查询
func Apply(db *gorm.DB, p Params, categoryIDs []string) (*gorm.DB, error) {
	sql, args, err := Predicate(p, categoryIDs).ToSql()
	if err != nil {
		return nil, err
	}
	return db.Where(sql, args...), nil
}

// Page 追加排序和分页，posts.id 作为次级排序保证翻页稳定
func Page(db *gorm.DB, p Params) *gorm.DB {
	return db.
		Order(clause.OrderByColumn{Column: clause.Column{Table: "posts", Name: p.SortBy}, Desc: p.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "posts", Name: "id"}, Desc: p.Desc}).
		Offset(p.Offset()).
		Limit(p.Limit)
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
