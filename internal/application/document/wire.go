package document

import (
	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/domain/events"
	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/docmind/backend/internal/infrastructure/markdown"
	"github.com/docmind/backend/internal/infrastructure/storage"
	"github.com/google/wire"
)

// ProvideService 组装带目录镜像、审计日志和自动分块的文档服务
func ProvideService(
	cfg *config.Config,
	layout *docfs.Layout,
	meta domainDoc.MetadataRepository,
	converter domainDoc.Converter,
	vectors domainDoc.VectorIndex,
	catalog domainDoc.CatalogRepository,
	mirror *storage.CatalogMirror,
	transitions domainDoc.TransitionLogRepository,
	chunker *markdown.Chunker,
	bus events.EventBus,
) *Service {
	return NewService(ConfigFrom(cfg), layout, meta, converter, vectors,
		WithCatalog(catalog),
		WithCatalogRebuilder(mirror),
		WithTransitionLog(transitions),
		WithChunker(chunker),
		WithEventBus(bus),
	)
}

// ProviderSet 文档应用服务 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideService,
)
