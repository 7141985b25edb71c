package watcher

import (
	"github.com/docmind/backend/internal/domain/events"
	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/google/wire"
)

// ProviderSet watcher 的 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideEventBus,
	ProvideFileWatcher,
)

// ProvideEventBus 提供事件总线实例
func ProvideEventBus() events.EventBus {
	return NewEventBus()
}

// ProvideFileWatcher 按配置提供主题树监听器
func ProvideFileWatcher(cfg *config.Config, eventBus events.EventBus) (*FileWatcher, error) {
	wc := DefaultWatchConfig(cfg.Topics.BaseDir)
	if cfg.Watcher.Debounce > 0 {
		wc.DebounceDelay = cfg.Watcher.Debounce
	}
	if cfg.Watcher.FullScanThreshold > 0 {
		wc.FullScanThreshold = cfg.Watcher.FullScanThreshold
	}
	return NewFileWatcher(wc, eventBus)
}
