package vector

import (
	"fmt"

	"github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/docmind/backend/internal/infrastructure/embedding"
	"github.com/docmind/backend/internal/infrastructure/log"
)

// 向量后端
const (
	BackendChromem = "chromem"
	BackendQdrant  = "qdrant"
	BackendNone    = "none"
)

// ProvideVectorIndex 按配置创建向量索引
// 后端为 none 时返回 nil，检索退化为空结果
func ProvideVectorIndex(cfg *config.VectorConfig, client *embedding.Client) (document.VectorIndex, func(), error) {
	logger := log.NewModuleLogger("vector", "provider")

	switch cfg.Backend {
	case BackendChromem, "":
		idx, err := OpenChromemIndex(cfg.ChromemDir, embedding.ToChromemFunc(client))
		if err != nil {
			return nil, nil, err
		}
		logger.Info("vector index ready", "backend", BackendChromem, "dir", cfg.ChromemDir)
		return idx, func() {}, nil
	case BackendQdrant:
		idx, err := NewQdrantIndex(cfg.QdrantHost, cfg.QdrantPort, client)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("vector index ready", "backend", BackendQdrant, "host", cfg.QdrantHost, "port", cfg.QdrantPort)
		return idx, func() { idx.Close() }, nil
	case BackendNone:
		logger.Warn("vector index disabled")
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.Backend)
	}
}
