package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL 错误码
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02" // 如 uuid 列收到非法字符串
)

// IsUniqueViolation 唯一约束冲突
func IsUniqueViolation(err error) bool {
	return hasCode(err, pgUniqueViolation) || errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsForeignKeyViolation 外键约束冲突
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, pgForeignKeyViolation) || errors.Is(err, gorm.ErrForeignKeyViolated)
}

// IsCheckViolation CHECK 约束失败（如库存为负）
func IsCheckViolation(err error) bool {
	return hasCode(err, pgCheckViolation) || errors.Is(err, gorm.ErrCheckConstraintViolated)
}

// IsNotFound 记录不存在；非法格式的主键不可能匹配任何行，同样视为不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || hasCode(err, pgInvalidText)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
