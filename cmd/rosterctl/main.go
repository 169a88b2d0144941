// rosterctl 排班引擎运维命令行
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"planning-imset/config"
	"planning-imset/internal/repository"
	"planning-imset/internal/service"
	"planning-imset/pkg/database"
	applogger "planning-imset/pkg/logger"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:           "rosterctl",
		Short:         "planning-imset 运维命令",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认 ./config/config.yaml）")

	root.AddCommand(
		newMigrateCommand(),
		newTypicalWeekCommand(),
		newWeekCommand(),
		newTokenCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app 命令共享的依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log, "rosterctl")
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, logger, nil
}

func newApp() (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(&cfg.Database, logger, false)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	return &app{cfg: cfg, logger: logger, db: db}, nil
}

// services CLI 不使用缓存与指标
func (a *app) services() *service.Service {
	return service.NewService(a.cfg, repository.NewRepository(a.db), nil, nil, a.logger)
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}
