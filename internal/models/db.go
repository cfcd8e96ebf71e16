package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/agro-backoffice/internal/logger"

	"github.com/glebarez/sqlite" // 纯 Go SQLite 驱动（基于 modernc.org/sqlite）
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 500 * time.Millisecond

// DB 进程级数据库连接，仅在启动阶段注入到各服务
var DB *gorm.DB

// DBPoolConfig 数据库连接池配置
type DBPoolConfig struct {
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeSeconds int
	ConnMaxIdleTimeSeconds int
}

// InitDB 初始化数据库连接
func InitDB(driver, dsn, logLevel string, pool DBPoolConfig) error {
	db, err := Open(driver, dsn, logLevel)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	applyDBPool(sqlDB, pool)
	DB = db
	return nil
}

// Open 按驱动打开数据库连接
func Open(driver, dsn, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	// SQL 日志走 zap，未找到记录属于正常分支不记录
	return gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(logger.StdLogger(), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  parseLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
		}),
	})
}

func parseLogLevel(raw string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func applyDBPool(sqlDB *sql.DB, pool DBPoolConfig) {
	if sqlDB == nil {
		return
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeSeconds) * time.Second)
	}
	if pool.ConnMaxIdleTimeSeconds > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeSeconds) * time.Second)
	}
}

// AllModels 返回需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&Company{},
		&Payer{},
		&Warehouse{},
		&Culture{},
		&Field{},
		&Unit{},
		&Manufacturer{},
		&Product{},
		&Plan{},
		&Treatment{},
		&PayerAllocation{},
		&PurchaseOrder{},
		&PurchaseOrderLine{},
		&StockTransaction{},
	}
}

// AutoMigrate 自动迁移所有数据库表
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate 对指定连接执行迁移
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return db.AutoMigrate(AllModels()...)
}
