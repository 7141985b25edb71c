// Package events 定义进程内领域事件与事件总线接口
package events

import "time"

// EventType 事件类型
type EventType string

const (
	// DocumentStateChanged 文档状态机发生转换
	DocumentStateChanged EventType = "document.state_changed"
	// DocumentDeleted 文档被删除
	DocumentDeleted EventType = "document.deleted"
	// TopicChanged 主题目录树在磁盘上发生变化
	TopicChanged EventType = "topic.changed"
)

// Event 领域事件
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// Handler 事件处理器
// 返回的错误只用于日志记录，不会重投
type Handler interface {
	HandleEvent(event Event) error
}

// HandlerFunc 函数适配器
type HandlerFunc func(event Event) error

// HandleEvent 实现 Handler
func (f HandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// EventBus 事件总线
type EventBus interface {
	// Subscribe 订阅一种事件，返回取消订阅函数
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())
	// SubscribeMultiple 订阅多种事件
	SubscribeMultiple(eventTypes []EventType, handler Handler) (unsubscribe func())
	// Publish 异步分发给全部订阅者
	Publish(event Event)
	// Close 停止接收新事件并等待处理中的事件完成
	Close()
}
