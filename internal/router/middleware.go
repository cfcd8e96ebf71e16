package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agro-backoffice/internal/config"
	"github.com/agro-backoffice/internal/http/response"
	"github.com/agro-backoffice/internal/i18n"
	"github.com/agro-backoffice/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Content-Type", "Content-Length", "Cache-Control", "X-Requested-With", "X-Request-ID", "X-Locale"}
)

// corsPolicy 预先计算好的跨域响应头
type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
	methods     string
	headers     string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:     strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
	}
	for _, origin := range orDefault(cfg.AllowedOrigins, []string{"*"}) {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			p.wildcard = true
		default:
			p.origins = append(p.origins, origin)
		}
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

// allowOrigin 带凭证时通配不能回 *，改为回显来源
func (p corsPolicy) allowOrigin(origin string) string {
	if p.wildcard {
		if p.credentials && origin != "" {
			return origin
		}
		return "*"
	}
	for _, allowed := range p.origins {
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

func (p corsPolicy) apply(h http.Header, origin string) {
	if allowed := p.allowOrigin(origin); allowed != "" {
		h.Set("Access-Control-Allow-Origin", allowed)
		if allowed != "*" {
			h.Add("Vary", "Origin")
		}
	}
	if p.credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	h.Set("Access-Control-Allow-Methods", p.methods)
	h.Set("Access-Control-Allow-Headers", p.headers)
	if p.maxAge != "" {
		h.Set("Access-Control-Max-Age", p.maxAge)
	}
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// CORSMiddleware 跨域中间件，OPTIONS 预检直接返回 204
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		policy.apply(c.Writer.Header(), c.GetHeader("Origin"))
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 沿用调用方的 X-Request-ID，缺失时生成
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// LocaleMiddleware 回写本次请求使用的语言
func LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Language", i18n.ResolveLocale(c))
		c.Next()
	}
}

// LoggerMiddleware 记录请求日志并按业务码计数
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := response.BusinessCode(c)
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(code)).Inc()

		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Int("code", code),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("client_ip", c.ClientIP()),
		}
		switch {
		case len(c.Errors) > 0:
			log.Error("request", append(fields, zap.String("errors", c.Errors.String()))...)
		case code >= response.CodeInternal:
			log.Error("request", fields...)
		case code != response.CodeOK:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func getRequestID(c *gin.Context) string {
	id, _ := c.Get(requestIDKey)
	value, _ := id.(string)
	return value
}
