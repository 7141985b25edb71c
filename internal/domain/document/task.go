package document

import "time"

// ProcessingTask 文档流水线任务
// 同一文档只保留一条任务记录，以 (user_id, document_id) 为键
type ProcessingTask struct {
	UserID      string
	DocumentID  string
	Priority    int    // 数值越大越优先
	Status      string // pending/processing/completed/failed
	RetryCount  int
	MaxRetries  int
	CreatedAt   int64
	NextRetryAt int64 // Unix 时间戳，0 表示立即可处理
	LastError   string
}

// 任务状态
const (
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

const (
	DefaultTaskMaxRetries = 3
	DefaultTaskPriority   = 0
)

// 重试退避
var taskRetryDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
}

// NewProcessingTask 创建任务
func NewProcessingTask(userID, documentID string) *ProcessingTask {
	return &ProcessingTask{
		UserID:     userID,
		DocumentID: documentID,
		Priority:   DefaultTaskPriority,
		Status:     TaskStatusPending,
		MaxRetries: DefaultTaskMaxRetries,
		CreatedAt:  time.Now().Unix(),
	}
}

// CanRetry 是否还能重试
func (t *ProcessingTask) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

// ShouldProcess 是否到了可处理时间
func (t *ProcessingTask) ShouldProcess(now time.Time) bool {
	if t.Status != TaskStatusPending {
		return false
	}
	return t.NextRetryAt == 0 || now.Unix() >= t.NextRetryAt
}

// MarkProcessing 标记处理中
func (t *ProcessingTask) MarkProcessing() {
	t.Status = TaskStatusProcessing
}

// MarkCompleted 标记完成
func (t *ProcessingTask) MarkCompleted() {
	t.Status = TaskStatusCompleted
	t.LastError = ""
}

// MarkFailed 记录失败，未超过次数时按退避重新排队
func (t *ProcessingTask) MarkFailed(err string, now time.Time) {
	t.RetryCount++
	t.LastError = err

	if !t.CanRetry() {
		t.Status = TaskStatusFailed
		return
	}
	t.Status = TaskStatusPending
	idx := t.RetryCount - 1
	if idx >= len(taskRetryDelays) {
		idx = len(taskRetryDelays) - 1
	}
	t.NextRetryAt = now.Add(taskRetryDelays[idx]).Unix()
}

// Reset 手动重试
func (t *ProcessingTask) Reset() {
	t.Status = TaskStatusPending
	t.RetryCount = 0
	t.NextRetryAt = 0
	t.LastError = ""
}

// QueueStats 队列统计
type QueueStats struct {
	PendingCount    int `json:"pending_count"`
	ProcessingCount int `json:"processing_count"`
	CompletedCount  int `json:"completed_count"`
	FailedCount     int `json:"failed_count"`
}
