package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogDirName    = "logs"
	defaultLogFilename   = "agro.log"
	defaultLogMaxSizeMB  = 100
	defaultLogMaxBackups = 7
	defaultLogMaxAgeDays = 30
)

// Options 日志输出配置
type Options struct {
	Level      string // debug / info / warn / error，为空时按运行模式推断
	Dir        string
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// L 全局结构化日志实例，未初始化时为 nil
var L *zap.Logger

var stdoutLogger = sync.OnceValue(func() *zap.Logger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(os.Stdout), zap.InfoLevel)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
})

// Init 初始化全局日志并替换 zap 全局实例
func Init(mode string, options Options) *zap.Logger {
	L = New(mode, options)
	zap.ReplaceGlobals(L)
	return L
}

// New 创建日志实例
// debug 模式写彩色控制台，配置了 Dir 时另写一份 JSON 文件；其他模式只写 JSON 文件。
func New(mode string, options Options) *zap.Logger {
	debug := strings.EqualFold(strings.TrimSpace(mode), "debug")
	level := resolveLevel(options.Level, debug)

	var cores []zapcore.Core
	if debug {
		console := encoderConfig()
		console.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(console), zapcore.AddSync(os.Stdout), level))
	}
	if !debug || strings.TrimSpace(options.Dir) != "" {
		sink, err := rotatingFile(options)
		if err != nil {
			if debug {
				fmt.Fprintf(os.Stderr, "log file disabled: %v\n", err)
				return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
			}
			fmt.Fprintf(os.Stderr, "log file unavailable, writing to stdout: %v\n", err)
			sink = zapcore.AddSync(os.Stdout)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), sink, level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

func current() *zap.Logger {
	if L != nil {
		return L
	}
	return stdoutLogger()
}

// StdLogger 供 net/http 等标准库组件使用
func StdLogger() *log.Logger {
	return zap.NewStdLog(current())
}

// S 返回 SugaredLogger
func S() *zap.SugaredLogger {
	return current().Sugar()
}

// SW 返回附带字段的 SugaredLogger
func SW(kv ...interface{}) *zap.SugaredLogger {
	return S().With(kv...)
}

// Infow info 级别
func Infow(message string, kv ...interface{}) {
	S().Infow(message, kv...)
}

// Warnw warn 级别
func Warnw(message string, kv ...interface{}) {
	S().Warnw(message, kv...)
}

// Errorw error 级别
func Errorw(message string, kv ...interface{}) {
	S().Errorw(message, kv...)
}

func resolveLevel(raw string, debug bool) zap.AtomicLevel {
	if raw = strings.TrimSpace(raw); raw != "" {
		if parsed, err := zapcore.ParseLevel(strings.ToLower(raw)); err == nil {
			return zap.NewAtomicLevelAt(parsed)
		}
	}
	if debug {
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zap.NewAtomicLevelAt(zap.InfoLevel)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

// rotatingFile 按大小切分的日志文件
func rotatingFile(options Options) (zapcore.WriteSyncer, error) {
	path, err := logFilePath(options)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    positiveOr(options.MaxSizeMB, defaultLogMaxSizeMB),
		MaxBackups: positiveOr(options.MaxBackups, defaultLogMaxBackups),
		MaxAge:     positiveOr(options.MaxAgeDays, defaultLogMaxAgeDays),
		Compress:   options.Compress,
	}), nil
}

// logFilePath Dir 为空时使用工作目录下的 logs/
func logFilePath(options Options) (string, error) {
	dir := strings.TrimSpace(options.Dir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve workdir: %w", err)
		}
		dir = filepath.Join(wd, defaultLogDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	name := strings.TrimSpace(options.Filename)
	if name == "" {
		name = defaultLogFilename
	}
	return filepath.Join(dir, name), nil
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
