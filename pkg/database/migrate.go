package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// NewMigrator 基于 migrations 目录和 postgres:// URL 创建迁移器
func NewMigrator(dir, url string) (*migrate.Migrate, error) {
	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return nil, fmt.Errorf("open migrations %s: %w", dir, err)
	}
	return m, nil
}

// MigrateUp 执行全部未应用的迁移，没有变更不算错误
func MigrateUp(dir, url string) error {
	m, err := NewMigrator(dir, url)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
