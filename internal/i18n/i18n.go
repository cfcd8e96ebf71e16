package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 支持的语言
const (
	LocaleUK = "uk-UA"
	LocaleEN = "en-US"
)

// DefaultLocale 默认语言
var DefaultLocale = LocaleUK

// SetDefaultLocale 设置默认语言，不支持的语言被忽略
func SetDefaultLocale(locale string) {
	if normalized, ok := normalize(locale); ok {
		DefaultLocale = normalized
	}
}

// T 翻译消息键，缺失时回退到默认语言，再回退到键本身
func T(locale, key string) string {
	if normalized, ok := normalize(locale); ok {
		if msg, ok := catalogs[normalized][key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

// ResolveLocale 从 X-Locale、lang 参数或 Accept-Language 解析语言
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	candidates := []string{
		c.GetHeader("X-Locale"),
		c.Query("lang"),
	}
	for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		candidates = append(candidates, tag)
	}
	for _, candidate := range candidates {
		if normalized, ok := normalize(candidate); ok {
			return normalized
		}
	}
	return DefaultLocale
}

func normalize(raw string) (string, bool) {
	tag := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, "_", "-")))
	switch {
	case tag == "":
		return "", false
	case tag == "uk" || strings.HasPrefix(tag, "uk-") || tag == "ua":
		return LocaleUK, true
	case tag == "en" || strings.HasPrefix(tag, "en-"):
		return LocaleEN, true
	}
	return "", false
}
