package service

import (
	"context"
	"errors"
	"time"

	"github.com/agro-backoffice/internal/cache"

	"github.com/bsm/redislock"
)

// SubmitLocker 采购申请提交锁
type SubmitLocker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type noopSubmitLocker struct{}

func (noopSubmitLocker) Obtain(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

// RedisSubmitLocker 基于 redislock 的分布式锁
type RedisSubmitLocker struct {
	client *redislock.Client
}

// NewSubmitLocker Redis 未启用时返回空实现
func NewSubmitLocker() SubmitLocker {
	client := cache.Client()
	if client == nil {
		return noopSubmitLocker{}
	}
	return &RedisSubmitLocker{client: redislock.New(client)}
}

// Obtain 获取锁，未获得时返回 ErrSubmitLocked
func (l *RedisSubmitLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	lock, err := l.client.Obtain(ctx, cache.BuildKey(key), ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrSubmitLocked
	}
	if err != nil {
		return nil, err
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}
