package storage

import (
	"database/sql"
	"time"

	"github.com/docmind/backend/internal/domain/document"
)

// 确保 TaskQueueRepositoryImpl 实现了 document.TaskQueueRepository 接口
var _ document.TaskQueueRepository = (*TaskQueueRepositoryImpl)(nil)

// TaskQueueRepositoryImpl 处理任务队列实现
type TaskQueueRepositoryImpl struct {
	db *sql.DB
}

// NewTaskQueueRepository 创建任务队列仓库实例
func NewTaskQueueRepository(db *sql.DB) document.TaskQueueRepository {
	return &TaskQueueRepositoryImpl{db: db}
}

const taskColumns = `user_id, document_id, priority, status, retry_count, max_retries,
		       created_at, next_retry_at, last_error`

// EnqueueTask 添加任务到队列，同一文档的旧任务被覆盖
func (r *TaskQueueRepositoryImpl) EnqueueTask(task *document.ProcessingTask) error {
	query := `
		INSERT OR REPLACE INTO processing_tasks (
			user_id, document_id, priority, status, retry_count, max_retries,
			created_at, next_retry_at, last_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(
		query,
		task.UserID,
		task.DocumentID,
		task.Priority,
		task.Status,
		task.RetryCount,
		task.MaxRetries,
		task.CreatedAt,
		task.NextRetryAt,
		task.LastError,
	)

	return err
}

// DequeueTasks 获取待处理的任务
func (r *TaskQueueRepositoryImpl) DequeueTasks(limit int) ([]*document.ProcessingTask, error) {
	now := time.Now().Unix()

	// 查询待处理的任务：状态为 pending 且 next_retry_at 为空或已到期
	query := `
		SELECT ` + taskColumns + `
		FROM processing_tasks
		WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY priority DESC, created_at ASC
		LIMIT ?`

	rows, err := r.db.Query(query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*document.ProcessingTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, task)
	}

	return results, rows.Err()
}

// GetTask 获取任务，不存在时返回 nil
func (r *TaskQueueRepositoryImpl) GetTask(userID, documentID string) (*document.ProcessingTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM processing_tasks
		WHERE user_id = ? AND document_id = ?`

	task, err := scanTask(r.db.QueryRow(query, userID, documentID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask 更新任务状态
func (r *TaskQueueRepositoryImpl) UpdateTask(task *document.ProcessingTask) error {
	query := `
		UPDATE processing_tasks
		SET priority = ?, status = ?, retry_count = ?, max_retries = ?,
		    next_retry_at = ?, last_error = ?
		WHERE user_id = ? AND document_id = ?`

	_, err := r.db.Exec(
		query,
		task.Priority,
		task.Status,
		task.RetryCount,
		task.MaxRetries,
		task.NextRetryAt,
		task.LastError,
		task.UserID,
		task.DocumentID,
	)

	return err
}

// DeleteTask 删除任务
func (r *TaskQueueRepositoryImpl) DeleteTask(userID, documentID string) error {
	_, err := r.db.Exec(`DELETE FROM processing_tasks WHERE user_id = ? AND document_id = ?`, userID, documentID)
	return err
}

// ResetFailedTasks 重置失败的任务
func (r *TaskQueueRepositoryImpl) ResetFailedTasks() (int, error) {
	query := `
		UPDATE processing_tasks
		SET status = 'pending', retry_count = 0, next_retry_at = NULL, last_error = NULL
		WHERE status = 'failed'`

	result, err := r.db.Exec(query)
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

// GetQueueStats 获取队列统计
func (r *TaskQueueRepositoryImpl) GetQueueStats() (*document.QueueStats, error) {
	query := `
		SELECT
			SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END) as pending_count,
			SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END) as processing_count,
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) as completed_count,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) as failed_count
		FROM processing_tasks`

	var stats document.QueueStats
	var pending, processing, completed, failed sql.NullInt64

	err := r.db.QueryRow(query).Scan(&pending, &processing, &completed, &failed)
	if err != nil {
		return nil, err
	}

	stats.PendingCount = int(pending.Int64)
	stats.ProcessingCount = int(processing.Int64)
	stats.CompletedCount = int(completed.Int64)
	stats.FailedCount = int(failed.Int64)

	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*document.ProcessingTask, error) {
	var task document.ProcessingTask
	var nextRetryAt sql.NullInt64
	var lastError sql.NullString

	err := row.Scan(
		&task.UserID,
		&task.DocumentID,
		&task.Priority,
		&task.Status,
		&task.RetryCount,
		&task.MaxRetries,
		&task.CreatedAt,
		&nextRetryAt,
		&lastError,
	)
	if err != nil {
		return nil, err
	}

	if nextRetryAt.Valid {
		task.NextRetryAt = nextRetryAt.Int64
	}
	if lastError.Valid {
		task.LastError = lastError.String
	}
	return &task, nil
}
