package markdown

import (
	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/docmind/backend/internal/infrastructure/log"
	"github.com/docmind/backend/internal/infrastructure/tokenizer"
	"github.com/google/wire"
)

// ProvideChunker 按配置的 token 上限创建分块器
// 词表加载失败时退化为按字符计数
func ProvideChunker(cfg *config.StorageConfig) *Chunker {
	counter, err := tokenizer.Default()
	if err != nil {
		log.NewModuleLogger("markdown", "chunker").Warn("tiktoken unavailable, counting runes instead", "error", err)
		return NewChunker(cfg.MaxChunkTokens, tokenizer.RuneCounter{})
	}
	return NewChunker(cfg.MaxChunkTokens, counter)
}

// ProviderSet markdown ProviderSet
var ProviderSet = wire.NewSet(
	ProvideChunker,
	NewFrontMatterStore,
)
