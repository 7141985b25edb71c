package watcher

import (
	"github.com/docmind/backend/internal/domain/events"
	"github.com/docmind/backend/internal/infrastructure/log"
)

// IndexRefresher 路径索引的刷新入口
type IndexRefresher interface {
	RefreshIndex(userID string, force bool, specificPath string) error
}

// SubscribeIndexRefresh 把 topic.changed 转成索引刷新
// 全量扫描事件刷新整个用户，其余只强制刷新受影响的主题子树
func SubscribeIndexRefresh(bus events.EventBus, refresher IndexRefresher) (unsubscribe func()) {
	logger := log.NewModuleLogger("watcher", "index_sync")

	return bus.Subscribe(events.TopicChanged, events.HandlerFunc(func(event events.Event) error {
		e, ok := event.(*events.TopicChangedEvent)
		if !ok {
			return nil
		}
		scope := e.TopicPath
		if e.FullScan {
			scope = ""
		}
		if err := refresher.RefreshIndex(e.UserID, true, scope); err != nil {
			logger.Warn("refresh index after topic change failed",
				"user_id", e.UserID,
				"topic_path", scope,
				"error", err,
			)
			return err
		}
		return nil
	}))
}
