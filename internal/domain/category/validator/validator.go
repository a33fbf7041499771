// Package validator 按分类过滤器定义校验帖子属性。
//
// 过滤器定义被转换为 Spec（Select / MultiSelect / Range / Boolean 之一），
// 校验按 Spec 的具体类型分派。包内函数均为纯函数，不访问数据库。
package validator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"post_market/internal/domain/category/model"
	"post_market/pkg/apperr"
)

// Spec 过滤器约束
type Spec interface {
	kind() string
}

// Select 单选，值必须是 Options 之一
type Select struct{ Options []string }

// MultiSelect 多选，每个值都必须是 Options 之一
type MultiSelect struct{ Options []string }

// Range 数值范围，Min / Max 为空表示不限
type Range struct{ Min, Max *float64 }

// Boolean 布尔值
type Boolean struct{}

func (Select) kind() string      { return model.FilterSelect }
func (MultiSelect) kind() string { return model.FilterMultiSelect }
func (Range) kind() string       { return model.FilterRange }
func (Boolean) kind() string     { return model.FilterBoolean }

// Field 一个可校验的属性
type Field struct {
	Name     string
	Required bool
	Spec     Spec
}

// FromFilter 将过滤器记录转换为 Field
func FromFilter(f model.CategoryFilter) (Field, error) {
	field := Field{Name: f.Name, Required: f.Required}
	switch f.Type {
	case model.FilterSelect:
		field.Spec = Select{Options: f.Options}
	case model.FilterMultiSelect:
		field.Spec = MultiSelect{Options: f.Options}
	case model.FilterRange:
		field.Spec = Range{Min: f.Min, Max: f.Max}
	case model.FilterBoolean:
		field.Spec = Boolean{}
	default:
		return Field{}, fmt.Errorf("filter %s has unknown type %q", f.Name, f.Type)
	}
	return field, nil
}

// FromFilters 批量转换
func FromFilters(filters []model.CategoryFilter) ([]Field, error) {
	fields := make([]Field, 0, len(filters))
	for _, f := range filters {
		field, err := FromFilter(f)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// Validate 校验属性，返回空切片表示通过
func Validate(fields []Field, attrs map[string]interface{}) []apperr.FieldError {
	var errs []apperr.FieldError

	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[strings.ToLower(f.Name)] = f
	}

	// 同一属性的大小写变体只能出现一次
	supplied := make(map[string]string, len(attrs))
	for _, key := range sortedKeys(attrs) {
		lower := strings.ToLower(key)
		if prev, dup := supplied[lower]; dup {
			errs = append(errs, apperr.FieldError{
				Field:   key,
				Message: fmt.Sprintf("%s is specified more than once (conflicts with %s)", key, prev),
			})
			continue
		}
		supplied[lower] = key
	}

	for _, f := range fields {
		if !f.Required {
			continue
		}
		key, ok := supplied[strings.ToLower(f.Name)]
		if !ok || isEmpty(attrs[key]) {
			errs = append(errs, apperr.FieldError{Field: f.Name, Message: fmt.Sprintf("%s is required", f.Name)})
		}
	}

	for _, key := range sortedKeys(attrs) {
		f, ok := byName[strings.ToLower(key)]
		if !ok {
			errs = append(errs, apperr.FieldError{
				Field:   key,
				Message: fmt.Sprintf("%s is not a valid attribute for this category", key),
			})
			continue
		}
		// 缺失的必填项已在上面报告
		if isEmpty(attrs[key]) {
			continue
		}
		errs = append(errs, check(f.Name, f.Spec, attrs[key])...)
	}

	return errs
}

// Normalize 将属性键替换为过滤器名称的小写形式，未知键原样保留
func Normalize(fields []Field, attrs map[string]interface{}) map[string]interface{} {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[strings.ToLower(f.Name)] = true
	}

	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		if known[strings.ToLower(k)] {
			out[strings.ToLower(k)] = v
			continue
		}
		out[k] = v
	}
	return out
}

func check(name string, spec Spec, value interface{}) []apperr.FieldError {
	switch s := spec.(type) {
	case Select:
		return checkSelect(name, s, value)
	case MultiSelect:
		return checkMultiSelect(name, s, value)
	case Range:
		return checkRange(name, s, value)
	case Boolean:
		if _, ok := value.(bool); !ok {
			return []apperr.FieldError{{Field: name, Message: fmt.Sprintf("%s must be a boolean value (true/false)", name)}}
		}
		return nil
	default:
		return []apperr.FieldError{{Field: name, Message: fmt.Sprintf("%s has an unsupported filter type", name)}}
	}
}

func checkSelect(name string, s Select, value interface{}) []apperr.FieldError {
	if list, ok := value.([]interface{}); ok {
		if len(list) != 1 {
			return []apperr.FieldError{{Field: name, Message: fmt.Sprintf("%s should be a single value, not multiple values", name)}}
		}
		value = list[0]
	}

	str, ok := scalarString(value)
	if !ok || !containsFold(s.Options, str) {
		return []apperr.FieldError{{
			Field:   name,
			Message: fmt.Sprintf("%s is not a valid option for %s. Valid options are: %s", display(value), name, strings.Join(s.Options, ", ")),
		}}
	}
	return nil
}

func checkMultiSelect(name string, s MultiSelect, value interface{}) []apperr.FieldError {
	list, ok := value.([]interface{})
	if !ok {
		list = []interface{}{value}
	}

	var errs []apperr.FieldError
	for _, item := range list {
		str, ok := scalarString(item)
		if ok && containsFold(s.Options, str) {
			continue
		}
		errs = append(errs, apperr.FieldError{
			Field:   name,
			Message: fmt.Sprintf("%s is not a valid option for %s. Valid options are: %s", display(item), name, strings.Join(s.Options, ", ")),
		})
	}
	return errs
}

func checkRange(name string, s Range, value interface{}) []apperr.FieldError {
	n, ok := toNumber(value)
	if !ok {
		return []apperr.FieldError{{Field: name, Message: fmt.Sprintf("%s must be a number", name)}}
	}

	var errs []apperr.FieldError
	if s.Min != nil && n < *s.Min {
		errs = append(errs, apperr.FieldError{Field: name, Message: fmt.Sprintf("%s must be at least %s", name, formatFloat(*s.Min))})
	}
	if s.Max != nil && n > *s.Max {
		errs = append(errs, apperr.FieldError{Field: name, Message: fmt.Sprintf("%s must be no more than %s", name, formatFloat(*s.Max))})
	}
	return errs
}

func isEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []interface{}:
		return len(val) == 0
	default:
		return false
	}
}

// scalarString 标量转字符串，数组/对象返回 false
func scalarString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return formatFloat(val), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

func toNumber(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func containsFold(options []string, v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, o := range options {
		if strings.ToLower(strings.TrimSpace(o)) == v {
			return true
		}
	}
	return false
}

func display(v interface{}) string {
	if s, ok := scalarString(v); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
