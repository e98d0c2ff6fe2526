// academic-cli 教务数据命令行工具：迁移、导入、导出、统计与学期推进
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/YuYe10/DB-EX3/config"
	"github.com/YuYe10/DB-EX3/internal/repository"
	"github.com/YuYe10/DB-EX3/internal/service"
	"github.com/YuYe10/DB-EX3/pkg/database"
	"github.com/YuYe10/DB-EX3/pkg/jwt"
	applogger "github.com/YuYe10/DB-EX3/pkg/logger"
)

type globalOptions struct {
	configPath string
	logLevel   string
}

// app 每条命令共享的运行环境
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	repo   *repository.Repository
	svc    *service.Service
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "academic-cli",
		Short:         "教务成绩数据维护工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("ACADEMIC_CONFIG"), "配置文件路径（可选，默认读取环境变量）")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "日志级别 debug|info|warn|error")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newImportCmd(opts),
		newImportRosterCmd(opts),
		newRosterTemplateCmd(opts),
		newExportCmd(opts),
		newStatsCmd(opts),
		newAdvanceSemesterCmd(opts),
		newCreateAdminCmd(opts),
	)
	return cmd
}

// openApp 加载配置并连接数据库；withService 为 false 时只初始化到 DB 层
func openApp(opts *globalOptions, withService bool) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewCLILogger(opts.logLevel)
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db, repo: repository.NewRepository(db)}
	if withService {
		// 命令行不签发令牌，也不上报指标
		a.svc = service.NewService(cfg, a.repo, jwt.NewManager(&cfg.Auth), nil, logger)
	}
	return a, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
