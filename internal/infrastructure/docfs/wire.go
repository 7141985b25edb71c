package docfs

import (
	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/google/wire"
)

// ProvideLayout 文档存储布局，根目录为 storage.base_dir
func ProvideLayout(cfg *config.StorageConfig) *Layout {
	return NewLayout(NewPathResolver(cfg.BaseDir))
}

// ProvideTopicResolver 主题树路径解析器，根目录为 topics.base_dir
func ProvideTopicResolver(cfg *config.Config) *PathResolver {
	return NewPathResolver(cfg.Topics.BaseDir)
}

// ProviderSet docfs ProviderSet
var ProviderSet = wire.NewSet(
	ProvideLayout,
	ProvideTopicResolver,
)
