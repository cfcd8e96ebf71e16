package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/agro-backoffice/internal/cache"
	"github.com/agro-backoffice/internal/config"
	"github.com/agro-backoffice/internal/logger"
	"github.com/agro-backoffice/internal/metrics"
	"github.com/agro-backoffice/internal/provider"
	"github.com/agro-backoffice/internal/router"

	"go.uber.org/zap"
)

// 启动模式
const (
	ModeAll     = "all"
	ModeAPI     = "api"
	ModeMetrics = "metrics"
)

const defaultShutdownTimeout = 10 * time.Second

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// BuildRunner 按模式组装 API 与指标服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	switch mode {
	case ModeAll, ModeAPI, ModeMetrics:
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	container := provider.NewContainer(cfg)
	var services []Service
	if mode != ModeMetrics {
		engine := router.SetupRouter(cfg, container)
		services = append(services, newHTTPService("api", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port), engine))
	}
	// 未配置独立地址时 /metrics 挂在 API 路由上
	if addr := strings.TrimSpace(cfg.Metrics.Addr); cfg.Metrics.Enabled && addr != "" && mode != ModeAPI {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		services = append(services, newHTTPService("metrics", addr, mux))
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("mode %q has nothing to serve", mode)
	}

	runner := NewRunner(services...)
	runner.AddCloser("redis", cache.Close)
	if container.DB != nil {
		if sqlDB, err := container.DB.DB(); err == nil {
			runner.AddCloser("database", sqlDB.Close)
		}
	}
	return runner, nil
}

// Run 应用启动入口，收到 Signals 中的信号后优雅退出
func Run(opts Options) error {
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, opts.Signals...)
		defer stop()
	}
	opts.Logger.Infow("app_start", "mode", opts.Mode, "addr", net.JoinHostPort(opts.Config.Server.Host, opts.Config.Server.Port))
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}
