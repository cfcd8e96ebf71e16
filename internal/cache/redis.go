package cache

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/agro-backoffice/internal/config"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "agro"

// store 进程内唯一的 Redis 连接，client 为 nil 时所有操作退化为空操作
type store struct {
	client *redis.Client
	prefix string
}

var current store

// InitRedis 按配置创建客户端；未启用时保持关闭
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		current = store{}
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	UseClient(redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	}), prefix)
	return nil
}

// UseClient 注入已有客户端
func UseClient(client *redis.Client, prefix string) {
	current = store{client: client, prefix: strings.TrimSpace(prefix)}
}

// Close 关闭连接
func Close() error {
	client := current.client
	current = store{}
	if client == nil {
		return nil
	}
	return client.Close()
}

// Enabled 是否可用
func Enabled() bool {
	return current.client != nil
}

// Client 未启用时返回 nil
func Client() *redis.Client {
	return current.client
}

// GetStrings 批量读取，只返回命中的键
func GetStrings(ctx context.Context, keys []string) (map[string]string, error) {
	hits := make(map[string]string, len(keys))
	if current.client == nil || len(keys) == 0 {
		return hits, nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = BuildKey(key)
	}
	values, err := current.client.MGet(ctx, full...).Result()
	if err != nil {
		return hits, err
	}
	for i, value := range values {
		if text, ok := value.(string); ok {
			hits[keys[i]] = text
		}
	}
	return hits, nil
}

// SetStrings 通过 pipeline 批量写入
func SetStrings(ctx context.Context, values map[string]string, ttl time.Duration) error {
	if current.client == nil || len(values) == 0 {
		return nil
	}
	_, err := current.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range values {
			pipe.Set(ctx, BuildKey(key), value, ttl)
		}
		return nil
	})
	return err
}

// BuildKey 拼接前缀，如 agro:names:unit:3
func BuildKey(key string) string {
	key = strings.TrimSpace(key)
	switch {
	case current.prefix == "":
		return key
	case key == "":
		return current.prefix
	default:
		return current.prefix + ":" + key
	}
}
