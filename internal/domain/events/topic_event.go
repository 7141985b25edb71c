package events

import "time"

// TopicChangedEvent 主题目录变化
// 由文件监听器在去抖后发出，TopicPath 为受影响的父主题（"" 表示用户根目录）
type TopicChangedEvent struct {
	UserID    string
	TopicPath string
	FullScan  bool
	EventTime time.Time
}

// Type 实现 Event
func (e *TopicChangedEvent) Type() EventType {
	return TopicChanged
}

// Timestamp 实现 Event
func (e *TopicChangedEvent) Timestamp() time.Time {
	return e.EventTime
}
