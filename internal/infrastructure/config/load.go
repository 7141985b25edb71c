package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 环境变量覆盖前缀
// 层级用双下划线分隔：DOCMIND_STORAGE__MAX_FILE_SIZE -> storage.max_file_size
const EnvPrefix = "DOCMIND_"

// Load 在默认值之上依次叠加 YAML 配置文件和环境变量
// path 为空或文件不存在时只叠加环境变量
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := NewConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// 列表整体替换而不是逐项覆盖默认值
	if k.Exists("storage.allowed_extensions") {
		cfg.Storage.AllowedExtensions = nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	if c.Storage.MaxFileSize <= 0 {
		return fmt.Errorf("storage.max_file_size must be positive")
	}
	if c.Storage.MaxTotalSizePerUser < c.Storage.MaxFileSize {
		return fmt.Errorf("storage.max_total_size_per_user must be >= max_file_size")
	}
	if c.Storage.UploadChunkSize <= 0 {
		return fmt.Errorf("storage.upload_chunk_size must be positive")
	}
	if c.Storage.MaxVersions < 0 {
		return fmt.Errorf("storage.max_versions must not be negative")
	}
	switch c.Vector.Backend {
	case "chromem", "qdrant", "none", "":
	default:
		return fmt.Errorf("unknown vector backend %q", c.Vector.Backend)
	}
	for i, ext := range c.Storage.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Storage.AllowedExtensions[i] = ext
	}
	return nil
}
