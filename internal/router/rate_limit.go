package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agro-backoffice/internal/http/response"
	"github.com/agro-backoffice/internal/i18n"
	"github.com/agro-backoffice/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
}

// Enabled 窗口与次数都为正数时生效
func (r RateLimitRule) Enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

// Throttle 基于 Redis 的固定窗口计数器
type Throttle struct {
	client *redis.Client
	rule   RateLimitRule
}

// NewThrottle client 为空或规则未启用时返回 nil
func NewThrottle(client *redis.Client, rule RateLimitRule) *Throttle {
	if client == nil || !rule.Enabled() {
		return nil
	}
	return &Throttle{client: client, rule: rule}
}

// Allow 计数一次，超限时返回需要等待的秒数
func (t *Throttle) Allow(ctx context.Context, key string) (bool, int, error) {
	if t == nil {
		return true, 0, nil
	}
	if t.rule.Prefix != "" {
		key = t.rule.Prefix + ":" + key
	}
	values, err := fixedWindowScript.Run(ctx, t.client, []string{key}, t.rule.WindowSeconds).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(values) < 2 {
		return false, 0, fmt.Errorf("unexpected rate limit reply: %v", values)
	}
	if values[0] <= int64(t.rule.MaxRequests) {
		return true, 0, nil
	}
	return false, retryAfter(values[1], t.rule.WindowSeconds), nil
}

func retryAfter(ttl int64, window int) int {
	if ttl >= 1 {
		return int(ttl)
	}
	if window >= 1 {
		return window
	}
	return 1
}

// RateLimitMiddleware 超限返回 429；Redis 不可用时放行并记录告警
func RateLimitMiddleware(throttle *Throttle, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if throttle == nil {
			c.Next()
			return
		}
		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}

		allowed, wait, err := throttle.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warnw("rate_limit_unavailable", "key", key, "path", c.FullPath(), "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(wait))
			response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), "error.rate_limited", wait))
			c.Abort()
			return
		}
		c.Next()
	}
}

// KeyByJSONField 使用请求体中的字段（如 company_id）作为限流 key，缺失时退回 IP
func KeyByJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := readJSONField(c, field)
		if value == "" {
			return c.ClientIP()
		}
		return field + ":" + value
	}
}

// readJSONField 读取顶层标量字段并还原请求体
func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	raw, ok := payload[field]
	if !ok {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.ToLower(strings.TrimSpace(text))
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}
	return ""
}
