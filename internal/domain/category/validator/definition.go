package validator

import (
	"strings"

	"post_market/internal/domain/category/model"
	"post_market/pkg/apperr"
)

// CheckDefinition 校验过滤器定义本身，并清理与类型无关的字段
//   - select / multiselect 必须有非空 options，min/max 置空
//   - range 必须同时有 min 和 max 且 min < max，options 置空
//   - boolean 不需要任何约束
func CheckDefinition(f *model.CategoryFilter) []apperr.FieldError {
	var errs []apperr.FieldError

	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		errs = append(errs, apperr.FieldError{Field: "name", Message: "name is required"})
	}

	switch f.Type {
	case model.FilterSelect, model.FilterMultiSelect:
		opts := make([]string, 0, len(f.Options))
		for _, o := range f.Options {
			if o = strings.TrimSpace(o); o != "" {
				opts = append(opts, o)
			}
		}
		if len(opts) == 0 {
			errs = append(errs, apperr.FieldError{Field: "options", Message: "options must be a non-empty list for select/multiselect filters"})
		}
		f.Options = opts
		f.Min, f.Max = nil, nil
	case model.FilterRange:
		if f.Min == nil || f.Max == nil {
			errs = append(errs, apperr.FieldError{Field: "min", Message: "min and max are required for range filters"})
		} else if *f.Min >= *f.Max {
			errs = append(errs, apperr.FieldError{Field: "min", Message: "min must be less than max"})
		}
		f.Options = nil
	case model.FilterBoolean:
		f.Options = nil
		f.Min, f.Max = nil, nil
	default:
		errs = append(errs, apperr.FieldError{Field: "type", Message: "type must be one of select, multiselect, range, boolean"})
	}

	return errs
}
