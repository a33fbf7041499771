package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"post_market/internal/pkg/config"
	"post_market/pkg/database"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

var migrationsDir string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "数据库迁移工具",
	Long:  "按 configs/config.yaml（或 APP_ENV 对应文件）中的数据库配置执行 migrations 目录下的迁移。",
}

var upCmd = &cobra.Command{
	Use:   "up [n]",
	Short: "应用迁移，不带参数时应用全部",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrate.Migrate) error {
			if len(args) == 0 {
				return m.Up()
			}
			n, err := positive(args[0])
			if err != nil {
				return err
			}
			return m.Steps(n)
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down [n]",
	Short: "回滚迁移，不带参数时回滚一步",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 1
		if len(args) == 1 {
			var err error
			if n, err = positive(args[0]); err != nil {
				return err
			}
		}
		return withMigrator(func(m *migrate.Migrate) error {
			return m.Steps(-n)
		})
	},
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "强制设置版本并清除 dirty 标记",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return withMigrator(func(m *migrate.Migrate) error {
			return m.Force(v)
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示当前版本",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrate.Migrate) error {
			v, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("no migration applied")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("version %d (dirty=%t)\n", v, dirty)
			return nil
		})
	},
}

func withMigrator(fn func(m *migrate.Migrate) error) error {
	config.LoadConfig()
	m, err := database.NewMigrator(migrationsDir, config.GlobalConfig.Database.URL())
	if err != nil {
		return err
	}
	defer m.Close()

	if err := fn(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("no change")
			return nil
		}
		return err
	}
	log.Println("migration successful")
	return nil
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("step count must be a positive integer, got %q", s)
	}
	return n, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "迁移文件目录")
	rootCmd.AddCommand(upCmd, downCmd, forceCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
