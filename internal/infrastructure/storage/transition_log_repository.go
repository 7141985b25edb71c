package storage

import (
	"database/sql"
	"time"

	"github.com/docmind/backend/internal/domain/document"
)

// 确保 TransitionLogRepositoryImpl 实现了 document.TransitionLogRepository 接口
var _ document.TransitionLogRepository = (*TransitionLogRepositoryImpl)(nil)

// TransitionLogRepositoryImpl 状态转换审计日志实现
type TransitionLogRepositoryImpl struct {
	db *sql.DB
}

// NewTransitionLogRepository 创建审计日志仓库实例
func NewTransitionLogRepository(db *sql.DB) document.TransitionLogRepository {
	return &TransitionLogRepositoryImpl{db: db}
}

// Append 追加一条转换记录
func (r *TransitionLogRepositoryImpl) Append(record *document.TransitionRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(`
		INSERT INTO document_transitions (
			user_id, document_id, event, from_state, to_state, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.UserID,
		record.DocumentID,
		string(record.Event),
		string(record.FromState),
		string(record.ToState),
		record.Error,
		record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err == nil {
		record.ID = id
	}
	return nil
}

// ListByDocument 按发生顺序列出文档的转换记录
func (r *TransitionLogRepositoryImpl) ListByDocument(userID, documentID string) ([]*document.TransitionRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, document_id, event, from_state, to_state, error, created_at
		FROM document_transitions
		WHERE user_id = ? AND document_id = ?
		ORDER BY id ASC`, userID, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*document.TransitionRecord
	for rows.Next() {
		var rec document.TransitionRecord
		var event, from, to string
		var errMsg sql.NullString
		var createdAt int64

		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.DocumentID, &event, &from, &to, &errMsg, &createdAt); err != nil {
			return nil, err
		}
		rec.Event = document.Event(event)
		rec.FromState = document.State(from)
		rec.ToState = document.State(to)
		if errMsg.Valid {
			rec.Error = errMsg.String
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		results = append(results, &rec)
	}
	return results, rows.Err()
}

// DeleteByDocument 删除文档的全部转换记录
func (r *TransitionLogRepositoryImpl) DeleteByDocument(userID, documentID string) error {
	_, err := r.db.Exec(`DELETE FROM document_transitions WHERE user_id = ? AND document_id = ?`, userID, documentID)
	return err
}
