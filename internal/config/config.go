package config

import (
	"fmt"
	"strings"

	"github.com/agro-backoffice/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Purchase PurchaseConfig `mapstructure:"purchase"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// AppConfig 应用基础信息
type AppConfig struct {
	Name          string `mapstructure:"name"`
	DefaultLocale string `mapstructure:"default_locale"` // uk-UA / en-US
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string             `mapstructure:"driver"` // sqlite / postgres
	DSN      string             `mapstructure:"dsn"`
	LogLevel string             `mapstructure:"log_level"` // silent / error / warn / info
	Pool     DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	// 名称字典缓存时长（秒），0 表示不缓存
	NameCacheTTLSeconds int `mapstructure:"name_cache_ttl_seconds"`
}

// PurchaseConfig 采购与入库配置
type PurchaseConfig struct {
	PackageRounding         bool `mapstructure:"package_rounding"`           // 按包装规格向上取整剩余量
	SubmitLockTTLSeconds    int  `mapstructure:"submit_lock_ttl_seconds"`    // 提交申请分布式锁时长
	AutoSyncOnApprove       bool `mapstructure:"auto_sync_on_approve"`       // 审批计划后自动同步地块分配
	DefaultWarehouseID      uint `mapstructure:"default_warehouse_id"`       // 入库未指定仓库时使用
	SubmitRateWindowSeconds int  `mapstructure:"submit_rate_window_seconds"` // 提交申请频率限制窗口，依赖 Redis
	SubmitRateMaxRequests   int  `mapstructure:"submit_rate_max_requests"`   // 窗口内最大提交次数
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"` // 为空时挂载到主 HTTP 服务
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	// .env 仅用于本地开发，缺失时忽略
	if err := godotenv.Load(); err == nil {
		logger.Infow("dotenv_loaded", "file", ".env")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./etc")
	v.AddConfigPath("../")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // server.port -> SERVER_PORT

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("config unmarshal failed: %w", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "agro-backoffice")
	v.SetDefault("app.default_locale", "uk-UA")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "agro.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/agro.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "agro")
	v.SetDefault("redis.name_cache_ttl_seconds", 300)
	v.SetDefault("purchase.package_rounding", true)
	v.SetDefault("purchase.submit_lock_ttl_seconds", 30)
	v.SetDefault("purchase.auto_sync_on_approve", true)
	v.SetDefault("purchase.default_warehouse_id", 1)
	v.SetDefault("purchase.submit_rate_window_seconds", 60)
	v.SetDefault("purchase.submit_rate_max_requests", 20)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
		"X-Locale",
	})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)
}
