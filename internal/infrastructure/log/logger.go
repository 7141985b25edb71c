package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	debugMode     bool
	logFile       *os.File
)

// Init 初始化全局 logger
// 可重复调用，后一次覆盖前一次
func Init(cfg *Config) {
	if cfg == nil {
		cfg = NewConfigFromEnv()
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	out := openOutput(cfg.Output)

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(h.WithAttrs([]slog.Attr{
		slog.String("service", "docmind-backend"),
	}))

	mu.Lock()
	defaultLogger = logger
	debugMode = strings.EqualFold(cfg.Level, "debug")
	mu.Unlock()

	slog.SetDefault(logger)
}

// openOutput 解析输出目标，文件打开失败时退回 stdout
func openOutput(output string) io.Writer {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	path := strings.TrimPrefix(output, "file:")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return os.Stdout
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return os.Stdout
	}

	mu.Lock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	mu.Unlock()
	return f
}

// GetLogger 返回全局 logger，未初始化时按环境变量初始化
func GetLogger() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		Init(nil)
		mu.RLock()
		l = defaultLogger
		mu.RUnlock()
	}
	return l
}

// With 创建带附加字段的 logger
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

// NewModuleLogger 为模块创建 logger
func NewModuleLogger(module, component string) *slog.Logger {
	return GetLogger().With(
		slog.String("module", module),
		slog.String("component", component),
	)
}

// IsDebugMode 是否为调试级别
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debugMode
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
