package log

import (
	"os"
	"strconv"
	"strings"
)

// Config 日志配置
type Config struct {
	// Level 日志级别：debug, info, warn, error
	Level string `json:"level" koanf:"level"`

	// Format 日志格式：text, json
	Format string `json:"format" koanf:"format"`

	// Output 输出目标：stdout, stderr 或文件路径
	Output string `json:"output" koanf:"output"`

	// AddSource 是否输出源码位置
	AddSource bool `json:"add_source" koanf:"add_source"`
}

// NewConfigFromEnv 从环境变量创建配置
func NewConfigFromEnv() *Config {
	cfg := &Config{
		Level:     envOr("LOG_LEVEL", "info"),
		Format:    envOr("LOG_FORMAT", "text"),
		Output:    envOr("LOG_OUTPUT", "stdout"),
		AddSource: envBool("LOG_ADD_SOURCE", false),
	}

	// 开发环境强制 debug + 文本格式
	if strings.EqualFold(os.Getenv("ENV"), "development") {
		cfg.Level = "debug"
		cfg.Format = "text"
		cfg.AddSource = true
	}

	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
