package cli

import (
	"fmt"
	"os"
	"syscall"

	"github.com/agro-backoffice/internal/app"
	"github.com/agro-backoffice/internal/config"
	"github.com/agro-backoffice/internal/i18n"
	"github.com/agro-backoffice/internal/logger"
	"github.com/agro-backoffice/internal/models"
	"github.com/agro-backoffice/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// NewRootCommand 构建 agroctl 根命令
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "agroctl",
		Short:         "Agro back office: allocation sync, purchase requests and stock receiving",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newConsolidatedCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newPurgeStaleCmd())

	return root
}

// Execute 运行 agroctl
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

// loadRuntime 加载配置、日志与数据库连接
func loadRuntime() (*config.Config, error) {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	i18n.SetDefaultLocale(cfg.App.DefaultLocale)
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogLevel, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return cfg, nil
}

// loadContainer 在 loadRuntime 基础上迁移并组装服务
func loadContainer() (*provider.Container, error) {
	cfg, err := loadRuntime()
	if err != nil {
		return nil, err
	}
	if err := models.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return provider.NewContainer(cfg), nil
}

// Serve 迁移数据库后运行 HTTP 服务，直到收到 SIGINT / SIGTERM
func Serve(mode string) error {
	cfg, err := loadRuntime()
	if err != nil {
		return err
	}
	if err := models.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	return app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	})
}

func newServeCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Serve(mode)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", app.ModeAll, "Run mode: all, api, metrics")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadRuntime(); err != nil {
				return err
			}
			if err := models.AutoMigrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
