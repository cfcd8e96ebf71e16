package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// errServiceExited 服务未出错但提前返回，用于触发整体停止
var errServiceExited = errors.New("service exited")

// Service 可启动、可停止的长运行服务
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type closer struct {
	name  string
	close func() error
}

// Runner 服务运行器：同生共死，退出后按注册逆序释放资源
type Runner struct {
	services []Service
	closers  []closer
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// AddCloser 注册退出时释放的资源（数据库、Redis）
func (r *Runner) AddCloser(name string, fn func() error) {
	if fn != nil {
		r.closers = append(r.closers, closer{name: name, close: fn})
	}
}

// Run 启动全部服务，任一服务退出或 ctx 结束时统一停止
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if stopTimeout <= 0 {
		stopTimeout = defaultShutdownTimeout
	}

	for _, svc := range r.services {
		if svc == nil {
			return errors.New("service is nil")
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, svc := range r.services {
		group.Go(func() error {
			log.Infow("service_start", "service", svc.Name())
			err := svc.Start(groupCtx)
			log.Infow("service_exit", "service", svc.Name(), "error", err)
			if err == nil && groupCtx.Err() == nil {
				return errServiceExited
			}
			return err
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		r.stopAll(stopTimeout, log)
		return nil
	})

	err := group.Wait()
	r.closeAll(log)
	if errors.Is(err, errServiceExited) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) stopAll(timeout time.Duration, log *zap.SugaredLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, svc := range r.services {
		if err := svc.Stop(ctx); err != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
}

func (r *Runner) closeAll(log *zap.SugaredLogger) {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].close(); err != nil {
			log.Warnw("resource_close_failed", "resource", r.closers[i].name, "error", err)
		}
	}
}
