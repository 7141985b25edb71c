package pipeline

import (
	"github.com/docmind/backend/internal/application/document"
	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/google/wire"
)

// ProvideService 按配置创建流水线服务
func ProvideService(cfg *config.Config, queue domainDoc.TaskQueueRepository, docs *document.Service) *Service {
	return NewService(queue, docs,
		WithWorkers(cfg.Pipeline.Workers, cfg.Pipeline.PollInterval, cfg.Pipeline.BatchSize),
		WithAutoSubmit(cfg.Pipeline.AutoSubmit),
	)
}

// ProviderSet 流水线 ProviderSet
var ProviderSet = wire.NewSet(ProvideService)
