package shared

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ParseUint 解析正整数 ID，0 与非法值返回 false。
func ParseUint(raw string) (uint, bool) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}

// QueryUint 读取可选的 uint 查询参数，缺省为 0。
func QueryUint(c *gin.Context, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, true
	}
	return ParseUint(raw)
}

// QueryBool 读取布尔查询参数
func QueryBool(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && value
}

// ParseTimeNullable 解析 RFC3339 或 YYYY-MM-DD 时间，空串返回 nil。
func ParseTimeNullable(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
