package search

import (
	"net/url"
	"strings"
	"testing"

	"post_market/pkg/apperr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
		DryRun:               true,
	})
	require.NoError(t, err)
	return db
}

func fieldsOf(err error) []string {
	e, ok := apperr.As(err)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestParseDefaults(t *testing.T) {
	p, err := Parse(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, "created_at", p.SortBy)
	assert.True(t, p.Desc)
	assert.Empty(t, p.Attributes)
	assert.Equal(t, 0, p.Offset())
}

func TestParsePagination(t *testing.T) {
	p, err := Parse(url.Values{"page": {"3"}, "limit": {"500"}})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, 200, p.Offset())

	_, err = Parse(url.Values{"page": {"0"}, "limit": {"abc"}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, []string{"page", "limit"}, fieldsOf(err))
}

func TestParseSort(t *testing.T) {
	cases := []struct {
		sortBy, order string
		col           string
		desc          bool
	}{
		{"price", "asc", "price", false},
		{"createdAt", "", "created_at", true},
		{"title", "DESC", "title", true},
		{"password; DROP TABLE posts", "asc", "created_at", false},
	}
	for _, tc := range cases {
		p, err := Parse(url.Values{"sort_by": {tc.sortBy}, "sort_order": {tc.order}})
		require.NoError(t, err)
		assert.Equal(t, tc.col, p.SortBy, tc.sortBy)
		assert.Equal(t, tc.desc, p.Desc, tc.sortBy)
	}
}

func TestParseFiltersJSON(t *testing.T) {
	values := url.Values{"filters": {`{"Size":[38,"39"],"color":"Red","weight":{"min":1,"max":"5.5"},"waterproof":true,"price":{"max":100}}`}}
	p, err := Parse(values)
	require.NoError(t, err)

	require.Len(t, p.Attributes, 4)
	assert.Equal(t, AttrFilter{Key: "color", Kind: KindExact, Value: "Red"}, p.Attributes[0])
	assert.Equal(t, AttrFilter{Key: "size", Kind: KindIn, Values: []string{"38", "39"}}, p.Attributes[1])
	assert.Equal(t, AttrFilter{Key: "waterproof", Kind: KindExact, Value: "true"}, p.Attributes[2])

	weight := p.Attributes[3]
	assert.Equal(t, KindRange, weight.Kind)
	assert.Equal(t, 1.0, *weight.Min)
	assert.Equal(t, 5.5, *weight.Max)

	require.NotNil(t, p.MaxPrice)
	assert.Equal(t, 100.0, *p.MaxPrice)
	assert.Nil(t, p.MinPrice)
}

func TestParseFiltersRejected(t *testing.T) {
	cases := map[string]string{
		"not json":       `{size:`,
		"price scalar":   `{"price":10}`,
		"empty list":     `{"size":[]}`,
		"null value":     `{"size":null}`,
		"nested list":    `{"size":[[1]]}`,
		"empty range":    `{"weight":{}}`,
		"inverted range": `{"weight":{"min":5,"max":1}}`,
		"bad bound":      `{"weight":{"min":"heavy"}}`,
		"unknown bound":  `{"weight":{"gte":1}}`,
		"empty key":      `{"":"x"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(url.Values{"filters": {raw}})
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestParseAttrParams(t *testing.T) {
	p, err := Parse(url.Values{
		"attr.Color":      {"red, blue"},
		"attr.brand":      {"Acme"},
		"attr.weight.min": {"1"},
		"attr.weight.max": {"3"},
		"attr.empty":      {""},
	})
	require.NoError(t, err)
	require.Len(t, p.Attributes, 3)

	assert.Equal(t, AttrFilter{Key: "brand", Kind: KindExact, Value: "Acme"}, p.Attributes[0])
	assert.Equal(t, AttrFilter{Key: "color", Kind: KindIn, Values: []string{"red", "blue"}}, p.Attributes[1])
	assert.Equal(t, "weight", p.Attributes[2].Key)
	assert.Equal(t, 1.0, *p.Attributes[2].Min)
	assert.Equal(t, 3.0, *p.Attributes[2].Max)

	_, err = Parse(url.Values{"attr.weight.min": {"x"}})
	assert.Error(t, err)
	_, err = Parse(url.Values{"attr.weight.min": {"5"}, "attr.weight.max": {"1"}})
	assert.Error(t, err)
}

const (
	catA = "6f1c2a7e-3d4b-4c5a-9e8f-0a1b2c3d4e5f"
	catB = "7a2d3b8f-4e5c-4d6b-8f9a-1b2c3d4e5f60"
	catC = "8b3e4c9a-5f6d-4e7c-9a0b-2c3d4e5f6071"
)

func TestParseCategoriesAndPrice(t *testing.T) {
	p, err := Parse(url.Values{
		"category_ids":          {catA + "," + catB, catC},
		"include_subcategories": {"true"},
		"min_price":             {"10"},
		"max_price":             {"20.5"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{catA, catB, catC}, p.CategoryIDs)
	assert.True(t, p.IncludeSubcategories)
	assert.Equal(t, 10.0, *p.MinPrice)
	assert.Equal(t, 20.5, *p.MaxPrice)

	_, err = Parse(url.Values{"min_price": {"30"}, "max_price": {"20"}})
	assert.Equal(t, []string{"price"}, fieldsOf(err))

	_, err = Parse(url.Values{"include_subcategories": {"maybe"}})
	assert.Error(t, err)

	_, err = Parse(url.Values{"category_ids": {catA + ",abc"}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, []string{"category_ids"}, fieldsOf(err))
}

func TestPredicateOnlyActive(t *testing.T) {
	sql, args, err := Predicate(Params{}, nil).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(posts.status = ?)", sql)
	assert.Equal(t, []interface{}{StatusActive}, args)
}

func TestPredicateParameterizesUserInput(t *testing.T) {
	evil := `x' OR '1'='1`
	p := Params{
		Query: "50%_off",
		Attributes: []AttrFilter{
			{Key: evil, Kind: KindExact, Value: evil},
			{Key: "size", Kind: KindIn, Values: []string{"38", "M"}},
		},
	}
	sql, args, err := Predicate(p, []string{"c1", "c2"}).ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, evil)
	assert.NotContains(t, sql, "50%")
	assert.Contains(t, sql, "posts.title ILIKE ?")
	assert.Contains(t, sql, "jsonb_each_text(posts.attributes)")
	assert.Contains(t, sql, "posts.category_id IN (?,?)")
	assert.Contains(t, sql, "LOWER(posts.attributes ->> ?::text) = LOWER(?)")
	assert.Contains(t, sql, "jsonb_array_elements_text")
	assert.Equal(t, strings.Count(sql, "?"), len(args))

	assert.Contains(t, args, `%50\%\_off%`)
	assert.Contains(t, args, evil)
	assert.Contains(t, args, "m")
}

func TestPredicateRange(t *testing.T) {
	lo, hi := 1.0, 3.0
	sql, args, err := Predicate(Params{
		Attributes: []AttrFilter{{Key: "weight", Kind: KindRange, Min: &lo, Max: &hi}},
		MinPrice:   &lo,
	}, nil).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "posts.price >= ?")
	assert.Contains(t, sql, "::numeric END) >= ?")
	assert.Contains(t, sql, "::numeric END) <= ?")
	assert.Equal(t, strings.Count(sql, "?"), len(args))
	assert.Equal(t, []interface{}{StatusActive, lo, "weight", "weight", lo, "weight", "weight", hi}, args)
}

func TestApplyAndPageRenderForPostgres(t *testing.T) {
	db := dryRunDB(t)
	p, err := Parse(url.Values{
		"query":      {"boots"},
		"filters":    {`{"size":[38,39]}`},
		"sort_by":    {"price"},
		"sort_order": {"asc"},
		"page":       {"2"},
		"limit":      {"5"},
	})
	require.NoError(t, err)

	q, err := Apply(db.Table("posts"), p, []string{"c1"})
	require.NoError(t, err)

	var rows []map[string]interface{}
	stmt := Page(q, p).Find(&rows).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, `ORDER BY "posts"."price","posts"."id"`)
	assert.Contains(t, sql, "posts.category_id IN ($")
	assert.NotContains(t, sql, "boots")
	assert.NotContains(t, sql, "?")
	assert.Contains(t, stmt.Vars, "%boots%")
	assert.Contains(t, stmt.Vars, "c1")
}
