package events

import "time"

// DocumentStateChangedEvent 文档状态变化
type DocumentStateChangedEvent struct {
	UserID     string    `json:"user_id"`
	DocumentID string    `json:"document_id"`
	Event      string    `json:"event"`
	FromState  string    `json:"from_state"`
	ToState    string    `json:"to_state"`
	Error      string    `json:"error,omitempty"`
	EventTime  time.Time `json:"event_time"`
}

// Type 实现 Event
func (e *DocumentStateChangedEvent) Type() EventType {
	return DocumentStateChanged
}

// Timestamp 实现 Event
func (e *DocumentStateChangedEvent) Timestamp() time.Time {
	return e.EventTime
}

// DocumentDeletedEvent 文档删除
type DocumentDeletedEvent struct {
	UserID     string    `json:"user_id"`
	DocumentID string    `json:"document_id"`
	Complete   bool      `json:"complete"` // 所有删除步骤均成功
	EventTime  time.Time `json:"event_time"`
}

// Type 实现 Event
func (e *DocumentDeletedEvent) Type() EventType {
	return DocumentDeleted
}

// Timestamp 实现 Event
func (e *DocumentDeletedEvent) Timestamp() time.Time {
	return e.EventTime
}
