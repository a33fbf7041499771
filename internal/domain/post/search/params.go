// Package search 将查询参数解析为帖子检索条件，并构造参数化的 SQL 谓词。
package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"post_market/pkg/apperr"
	"post_market/pkg/response"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	maxKeyLength = 100
)

// Kind 属性过滤方式
type Kind int

const (
	KindExact Kind = iota // 精确匹配（字符串忽略大小写）
	KindIn                // 集合匹配，属性为标量或数组均可
	KindRange             // 数值范围
)

// AttrFilter 单个 JSON 属性过滤条件
type AttrFilter struct {
	Key    string
	Kind   Kind
	Value  string   // KindExact
	Values []string // KindIn
	Min    *float64 // KindRange
	Max    *float64 // KindRange
}

// Params 检索参数
type Params struct {
	Query                string
	CategoryIDs          []string
	IncludeSubcategories bool
	Attributes           []AttrFilter
	MinPrice             *float64
	MaxPrice             *float64
	SortBy               string // 列名，已经过白名单
	Desc                 bool
	Page                 int
	Limit                int
}

// Offset 分页偏移量
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// 可排序字段，其他值回退到 created_at
var sortColumns = map[string]string{
	"createdat":  "created_at",
	"created_at": "created_at",
	"price":      "price",
	"title":      "title",
}

// Parse 解析查询参数
//
//	query=...                      标题/描述/属性值模糊匹配
//	category_ids=a,b               分类过滤，可重复
//	include_subcategories=true     包含所有后代分类
//	filters={"size":[38,39],"weight":{"min":1}}
//	attr.color=red,blue  attr.weight.min=1  attr.weight.max=5
//	min_price / max_price
//	sort_by / sort_order / page / limit
func Parse(values url.Values) (Params, error) {
	p := Params{Page: 1, Limit: DefaultLimit, SortBy: "created_at", Desc: true}
	var errs []apperr.FieldError
	fail := func(field, format string, args ...interface{}) {
		errs = append(errs, apperr.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fail("page", "page must be a positive integer")
		} else {
			p.Page = n
		}
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fail("limit", "limit must be a positive integer")
		} else {
			p.Limit = min(n, MaxLimit)
		}
	}

	p.Query = strings.TrimSpace(values.Get("query"))

	for _, key := range []string{"category_ids", "category_id"} {
		for _, raw := range values[key] {
			for _, id := range strings.Split(raw, ",") {
				if id = strings.TrimSpace(id); id == "" {
					continue
				}
				if _, err := uuid.Parse(id); err != nil {
					fail(key, "invalid category id %q", id)
					continue
				}
				p.CategoryIDs = append(p.CategoryIDs, id)
			}
		}
	}
	if v := values.Get("include_subcategories"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fail("include_subcategories", "include_subcategories must be true or false")
		}
		p.IncludeSubcategories = b
	}

	if v := values.Get("min_price"); v != "" {
		if f, ok := parseFloat(v); ok {
			p.MinPrice = &f
		} else {
			fail("min_price", "min_price must be a number")
		}
	}
	if v := values.Get("max_price"); v != "" {
		if f, ok := parseFloat(v); ok {
			p.MaxPrice = &f
		} else {
			fail("max_price", "max_price must be a number")
		}
	}

	if raw := strings.TrimSpace(values.Get("filters")); raw != "" {
		errs = append(errs, parseFilterObject(raw, &p)...)
	}
	errs = append(errs, parseAttrParams(values, &p)...)

	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		fail("price", "min price must not exceed max price")
	}

	if col, ok := sortColumns[strings.ToLower(values.Get("sort_by"))]; ok {
		p.SortBy = col
	}
	if strings.EqualFold(values.Get("sort_order"), "asc") {
		p.Desc = false
	}

	sort.SliceStable(p.Attributes, func(i, j int) bool { return p.Attributes[i].Key < p.Attributes[j].Key })

	if len(errs) > 0 {
		return Params{}, apperr.Validation(response.ErrSearchInvalid, "invalid search parameters", errs...)
	}
	return p, nil
}

// parseFilterObject 解析 filters JSON：标量为精确匹配，数组为集合匹配，{min,max} 为范围
func parseFilterObject(raw string, p *Params) []apperr.FieldError {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return []apperr.FieldError{{Field: "filters", Message: "filters must be a JSON object: " + err.Error()}}
	}

	var errs []apperr.FieldError
	for _, rawKey := range sortedKeys(obj) {
		key := strings.ToLower(strings.TrimSpace(rawKey))
		if key == "" || len(key) > maxKeyLength {
			errs = append(errs, apperr.FieldError{Field: "filters", Message: fmt.Sprintf("invalid attribute key %q", rawKey)})
			continue
		}

		value := obj[rawKey]
		if key == "price" {
			bounds, ok := value.(map[string]interface{})
			if !ok {
				errs = append(errs, apperr.FieldError{Field: "price", Message: "price filter must be a range object with min and/or max"})
				continue
			}
			lo, hi, err := parseBounds(bounds)
			if err != nil {
				errs = append(errs, apperr.FieldError{Field: "price", Message: err.Error()})
				continue
			}
			if lo != nil {
				p.MinPrice = lo
			}
			if hi != nil {
				p.MaxPrice = hi
			}
			continue
		}

		f, err := filterFromJSON(key, value)
		if err != nil {
			errs = append(errs, apperr.FieldError{Field: key, Message: err.Error()})
			continue
		}
		p.Attributes = append(p.Attributes, f)
	}
	return errs
}

func filterFromJSON(key string, value interface{}) (AttrFilter, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		lo, hi, err := parseBounds(v)
		if err != nil {
			return AttrFilter{}, err
		}
		return AttrFilter{Key: key, Kind: KindRange, Min: lo, Max: hi}, nil
	case []interface{}:
		if len(v) == 0 {
			return AttrFilter{}, fmt.Errorf("%s: value list must not be empty", key)
		}
		vals := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := scalarText(item)
			if !ok {
				return AttrFilter{}, fmt.Errorf("%s: list values must be strings, numbers or booleans", key)
			}
			vals = append(vals, s)
		}
		return AttrFilter{Key: key, Kind: KindIn, Values: vals}, nil
	default:
		s, ok := scalarText(v)
		if !ok {
			return AttrFilter{}, fmt.Errorf("%s: value must not be null", key)
		}
		return AttrFilter{Key: key, Kind: KindExact, Value: s}, nil
	}
}

// parseBounds 解析 {min,max}，至少一个边界，且 min <= max
func parseBounds(obj map[string]interface{}) (*float64, *float64, error) {
	var lo, hi *float64
	for k, v := range obj {
		n, ok := numberValue(v)
		switch strings.ToLower(k) {
		case "min":
			if !ok {
				return nil, nil, fmt.Errorf("min must be a number")
			}
			lo = &n
		case "max":
			if !ok {
				return nil, nil, fmt.Errorf("max must be a number")
			}
			hi = &n
		default:
			return nil, nil, fmt.Errorf("unknown range bound %q", k)
		}
	}
	if lo == nil && hi == nil {
		return nil, nil, fmt.Errorf("range needs min and/or max")
	}
	if lo != nil && hi != nil && *lo > *hi {
		return nil, nil, fmt.Errorf("min must not exceed max")
	}
	return lo, hi, nil
}

// parseAttrParams 解析 attr.<key>=a,b 与 attr.<key>.min / attr.<key>.max
func parseAttrParams(values url.Values, p *Params) []apperr.FieldError {
	var errs []apperr.FieldError
	ranges := make(map[string]*AttrFilter)

	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.HasPrefix(k, "attr.") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, param := range keys {
		raw := strings.TrimSpace(values.Get(param))
		name := strings.ToLower(strings.TrimPrefix(param, "attr."))
		if raw == "" {
			continue
		}

		bound := ""
		if base, ok := strings.CutSuffix(name, ".min"); ok {
			name, bound = base, "min"
		} else if base, ok := strings.CutSuffix(name, ".max"); ok {
			name, bound = base, "max"
		}
		if name == "" || len(name) > maxKeyLength {
			errs = append(errs, apperr.FieldError{Field: param, Message: "invalid attribute key"})
			continue
		}

		if bound == "" {
			parts := splitList(raw)
			if len(parts) == 0 {
				continue
			}
			if len(parts) == 1 {
				p.Attributes = append(p.Attributes, AttrFilter{Key: name, Kind: KindExact, Value: parts[0]})
			} else {
				p.Attributes = append(p.Attributes, AttrFilter{Key: name, Kind: KindIn, Values: parts})
			}
			continue
		}

		n, ok := parseFloat(raw)
		if !ok {
			errs = append(errs, apperr.FieldError{Field: param, Message: param + " must be a number"})
			continue
		}
		f, exists := ranges[name]
		if !exists {
			f = &AttrFilter{Key: name, Kind: KindRange}
			ranges[name] = f
		}
		if bound == "min" {
			f.Min = &n
		} else {
			f.Max = &n
		}
	}

	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := ranges[name]
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			errs = append(errs, apperr.FieldError{Field: "attr." + name, Message: "min must not exceed max"})
			continue
		}
		p.Attributes = append(p.Attributes, *f)
	}
	return errs
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func scalarText(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

func numberValue(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		return parseFloat(val)
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
