package storage

import (
	"github.com/docmind/backend/internal/domain/document"
	"github.com/google/wire"
)

// ProvideMetadataRepository 组合 JSON 元数据存储与目录镜像
func ProvideMetadataRepository(store *MetadataStore, catalog document.CatalogRepository) *CatalogMirror {
	return NewCatalogMirror(store, catalog)
}

// ProviderSet Storage 基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideDB,                  // 提供数据库连接
	NewMetadataStore,           // 元数据 JSON 存储
	NewCatalogRepository,       // 文档目录仓储
	NewTransitionLogRepository, // 状态转换审计仓储
	NewTaskQueueRepository,     // 处理任务队列仓储
	ProvideMetadataRepository,  // 带目录镜像的元数据仓储
	wire.Bind(new(document.MetadataRepository), new(*CatalogMirror)),
)
