// Package document 编排文档生命周期：上传、markdown 转换、分块、QA 抽取、向量化与删除
package document

import (
	"context"
	"log/slog"
	"time"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/domain/events"
	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/docmind/backend/internal/infrastructure/log"
)

// Config 文档服务配置
type Config struct {
	MaxFileSize         int64
	MaxTotalSizePerUser int64
	MaxVersions         int
	UploadChunkSize     int
	AllowedExtensions   []string
	Collection          string
	ConverterTimeout    time.Duration
}

// ConfigFrom 从应用配置提取文档服务配置
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		MaxFileSize:         cfg.Storage.MaxFileSize,
		MaxTotalSizePerUser: cfg.Storage.MaxTotalSizePerUser,
		MaxVersions:         cfg.Storage.MaxVersions,
		UploadChunkSize:     cfg.Storage.UploadChunkSize,
		AllowedExtensions:   cfg.Storage.AllowedExtensions,
		Collection:          cfg.Vector.Collection,
		ConverterTimeout:    cfg.Converter.Timeout,
	}
}

// Chunker 把 markdown 切分为分块
type Chunker interface {
	Chunk(source string) []domainDoc.Chunk
}

// CatalogRebuilder 以元数据为准重建目录表
type CatalogRebuilder interface {
	Rebuild(userID string) (int, error)
}

// Service 文档服务
// 所有驱动状态机的操作按 (user, document) 串行执行
type Service struct {
	cfg       Config
	layout    *docfs.Layout
	meta      domainDoc.MetadataRepository
	converter domainDoc.Converter
	vectors   domainDoc.VectorIndex

	catalog     domainDoc.CatalogRepository
	rebuilder   CatalogRebuilder
	transitions domainDoc.TransitionLogRepository
	chunker     Chunker
	bus         events.EventBus

	locks  *documentLocks
	now    func() time.Time
	logger *slog.Logger
}

// Option 服务可选依赖
type Option func(*Service)

// WithCatalog 列表查询走目录表
func WithCatalog(catalog domainDoc.CatalogRepository) Option {
	return func(s *Service) {
		s.catalog = catalog
	}
}

// WithCatalogRebuilder 启用目录重建
func WithCatalogRebuilder(r CatalogRebuilder) Option {
	return func(s *Service) {
		s.rebuilder = r
	}
}

// WithTransitionLog 记录状态转换审计
func WithTransitionLog(repo domainDoc.TransitionLogRepository) Option {
	return func(s *Service) {
		s.transitions = repo
	}
}

// WithChunker 设置自动分块器
func WithChunker(c Chunker) Option {
	return func(s *Service) {
		s.chunker = c
	}
}

// WithEventBus 发布状态变化事件
func WithEventBus(bus events.EventBus) Option {
	return func(s *Service) {
		s.bus = bus
	}
}

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService 创建文档服务
// vectors 为 nil 表示未配置向量索引：检索返回空结果，向量化阶段失败
func NewService(
	cfg Config,
	layout *docfs.Layout,
	meta domainDoc.MetadataRepository,
	converter domainDoc.Converter,
	vectors domainDoc.VectorIndex,
	opts ...Option,
) *Service {
	if cfg.UploadChunkSize <= 0 {
		cfg.UploadChunkSize = 1 << 20
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	s := &Service{
		cfg:       cfg,
		layout:    layout,
		meta:      meta,
		converter: converter,
		vectors:   vectors,
		locks:     newDocumentLocks(),
		now:       time.Now,
		logger:    log.NewModuleLogger("document", "service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// loggerFor 附带用户和文档字段的 logger
func (s *Service) loggerFor(ctx context.Context, userID, documentID string) *slog.Logger {
	return log.FromContext(log.WithDocument(ctx, userID, documentID), s.logger)
}
