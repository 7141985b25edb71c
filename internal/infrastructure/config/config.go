package config

import (
	"path/filepath"
	"time"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Topics    TopicsConfig    `koanf:"topics"`
	Index     IndexConfig     `koanf:"index"`
	Database  DatabaseConfig  `koanf:"database"`
	Vector    VectorConfig    `koanf:"vector"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Converter ConverterConfig `koanf:"converter"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Watcher   WatcherConfig   `koanf:"watcher"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort        string `koanf:"http_port"` // 固定端口，同时用于单实例检测
	ReadBufferSize  int    `koanf:"read_buffer_size"`
	WriteBufferSize int    `koanf:"write_buffer_size"`
}

// StorageConfig 文档存储配置
type StorageConfig struct {
	BaseDir             string   `koanf:"base_dir"`
	MaxFileSize         int64    `koanf:"max_file_size"`
	MaxTotalSizePerUser int64    `koanf:"max_total_size_per_user"`
	MaxVersions         int      `koanf:"max_versions"`
	UploadChunkSize     int      `koanf:"upload_chunk_size"`
	AllowedExtensions   []string `koanf:"allowed_extensions"`
	MaxChunkTokens      int      `koanf:"max_chunk_tokens"`
}

// TopicsConfig 主题树配置
type TopicsConfig struct {
	BaseDir string `koanf:"base_dir"`
}

// IndexConfig 文档路径索引配置
type IndexConfig struct {
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	CachePath       string        `koanf:"cache_path"`
	SaveInterval    time.Duration `koanf:"save_interval"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// VectorConfig 向量索引配置
type VectorConfig struct {
	Backend    string `koanf:"backend"` // chromem / qdrant / none
	Collection string `koanf:"collection"`
	ChromemDir string `koanf:"chromem_dir"`
	QdrantHost string `koanf:"qdrant_host"`
	QdrantPort int    `koanf:"qdrant_port"`
}

// EmbeddingConfig 向量化服务配置（OpenAI 兼容接口）
type EmbeddingConfig struct {
	URL    string `koanf:"url"`
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
}

// ConverterConfig 文档转换服务配置
type ConverterConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// PipelineConfig 后台处理流水线配置
type PipelineConfig struct {
	Workers      int           `koanf:"workers"`
	PollInterval time.Duration `koanf:"poll_interval"`
	BatchSize    int           `koanf:"batch_size"`
	AutoSubmit   bool          `koanf:"auto_submit"`
}

// WatcherConfig 主题树监听配置
type WatcherConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Debounce          time.Duration `koanf:"debounce"`
	FullScanThreshold time.Duration `koanf:"full_scan_threshold"`
}

// DefaultAllowedExtensions 默认允许上传的扩展名
var DefaultAllowedExtensions = []string{
	".pdf", ".docx", ".doc", ".pptx", ".xlsx",
	".txt", ".md", ".html", ".htm", ".csv", ".json",
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	dataDir := GetDataDir()
	return &Config{
		Server: ServerConfig{
			HTTPPort:        ":19970",
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Storage: StorageConfig{
			BaseDir:             filepath.Join(dataDir, "documents"),
			MaxFileSize:         50 << 20,
			MaxTotalSizePerUser: 1 << 30,
			MaxVersions:         5,
			UploadChunkSize:     1 << 20,
			AllowedExtensions:   append([]string(nil), DefaultAllowedExtensions...),
			MaxChunkTokens:      512,
		},
		Topics: TopicsConfig{
			BaseDir: filepath.Join(dataDir, "topics"),
		},
		Index: IndexConfig{
			RefreshInterval: 300 * time.Second,
			CachePath:       filepath.Join(dataDir, "topics", "index_cache.json"),
			SaveInterval:    5 * time.Minute,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(dataDir, "docmind.db"),
		},
		Vector: VectorConfig{
			Backend:    "chromem",
			Collection: "documents",
			ChromemDir: filepath.Join(dataDir, "vectors"),
			QdrantHost: "localhost",
			QdrantPort: 6334,
		},
		Embedding: EmbeddingConfig{
			URL:   "http://localhost:11434/v1",
			Model: "nomic-embed-text",
		},
		Converter: ConverterConfig{
			Timeout: 600 * time.Second,
		},
		Pipeline: PipelineConfig{
			Workers:      2,
			PollInterval: 5 * time.Second,
			BatchSize:    10,
			AutoSubmit:   true,
		},
		Watcher: WatcherConfig{
			Enabled:           true,
			Debounce:          500 * time.Millisecond,
			FullScanThreshold: 24 * time.Hour,
		},
	}
}

// NewStorageConfig 提供存储配置
func NewStorageConfig(cfg *Config) *StorageConfig {
	return &cfg.Storage
}

// NewServerConfig 提供服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewDatabaseConfig 提供数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewVectorConfig 提供向量索引配置
func NewVectorConfig(cfg *Config) *VectorConfig {
	return &cfg.Vector
}

// NewEmbeddingConfig 提供向量化服务配置
func NewEmbeddingConfig(cfg *Config) *EmbeddingConfig {
	return &cfg.Embedding
}
