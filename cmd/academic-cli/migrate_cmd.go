package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/YuYe10/DB-EX3/pkg/database"
)

func newMigrateCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库结构迁移",
	}
	cmd.AddCommand(
		newMigrateStepCmd(global, "up", "执行全部未应用的迁移", database.RunMigrations),
		newMigrateStepCmd(global, "down", "回滚全部迁移（会删除所有数据）", database.RollbackMigrations),
	)
	return cmd
}

func newMigrateStepCmd(global *globalOptions, use, short string, step func(*sql.DB, *zap.Logger) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(global, false)
			if err != nil {
				return err
			}
			defer a.Close()

			sqlDB, err := a.db.DB()
			if err != nil {
				return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
			}
			if err := step(sqlDB, a.logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s 完成\n", use)
			return nil
		},
	}
}
