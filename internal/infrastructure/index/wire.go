package index

import (
	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/docmind/backend/internal/infrastructure/markdown"
	"github.com/google/wire"
)

// ProvideDocumentIndex 主题树文档索引，修复时通过 front matter 回写主题路径
func ProvideDocumentIndex(cfg *config.Config, resolver *docfs.PathResolver, store *markdown.FrontMatterStore) *DocumentIndex {
	opts := []Option{WithRefreshInterval(cfg.Index.RefreshInterval)}
	if cfg.Index.CachePath != "" {
		opts = append(opts, WithCachePath(cfg.Index.CachePath))
	}
	return NewDocumentIndex(resolver, store, opts...)
}

// ProviderSet index ProviderSet
var ProviderSet = wire.NewSet(
	ProvideDocumentIndex,
)
