package storage

import (
	"database/sql"
	"strings"
	"time"

	"github.com/docmind/backend/internal/domain/document"
)

// 确保 CatalogRepositoryImpl 实现了 document.CatalogRepository 接口
var _ document.CatalogRepository = (*CatalogRepositoryImpl)(nil)

// CatalogRepositoryImpl 文档目录仓库实现
type CatalogRepositoryImpl struct {
	db *sql.DB
}

// NewCatalogRepository 创建文档目录仓库实例
func NewCatalogRepository(db *sql.DB) document.CatalogRepository {
	return &CatalogRepositoryImpl{db: db}
}

// Upsert 写入或覆盖目录行
func (r *CatalogRepositoryImpl) Upsert(entry *document.CatalogEntry) error {
	query := `
		INSERT OR REPLACE INTO document_catalog (
			user_id, document_id, original_name, source_type, status, state, size,
			has_markdown, has_chunks, has_qa_pairs, has_embeddings,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(
		query,
		entry.UserID,
		entry.DocumentID,
		entry.OriginalName,
		string(entry.SourceType),
		string(entry.Status),
		string(entry.State),
		entry.Size,
		boolToInt(entry.HasMarkdown),
		boolToInt(entry.HasChunks),
		boolToInt(entry.HasQAPairs),
		boolToInt(entry.HasEmbeddings),
		entry.CreatedAt.UnixMilli(),
		entry.UpdatedAt.UnixMilli(),
	)
	return err
}

// Delete 删除目录行
func (r *CatalogRepositoryImpl) Delete(userID, documentID string) error {
	_, err := r.db.Exec(`DELETE FROM document_catalog WHERE user_id = ? AND document_id = ?`, userID, documentID)
	return err
}

// DeleteUser 删除用户的全部目录行（重建目录前使用）
func (r *CatalogRepositoryImpl) DeleteUser(userID string) error {
	_, err := r.db.Exec(`DELETE FROM document_catalog WHERE user_id = ?`, userID)
	return err
}

// List 按条件列出目录行，按更新时间倒序
func (r *CatalogRepositoryImpl) List(userID string, filter document.CatalogFilter) ([]*document.CatalogEntry, error) {
	var conds []string
	args := []interface{}{userID}
	conds = append(conds, "user_id = ?")

	if filter.State != "" {
		conds = append(conds, "state = ?")
		args = append(args, string(filter.State))
	}
	if filter.SourceType != "" {
		conds = append(conds, "source_type = ?")
		args = append(args, string(filter.SourceType))
	}
	if filter.HasEmbeddings != nil {
		conds = append(conds, "has_embeddings = ?")
		args = append(args, boolToInt(*filter.HasEmbeddings))
	}

	query := `
		SELECT user_id, document_id, original_name, source_type, status, state, size,
		       has_markdown, has_chunks, has_qa_pairs, has_embeddings,
		       created_at, updated_at
		FROM document_catalog
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY updated_at DESC, document_id ASC`

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*document.CatalogEntry
	for rows.Next() {
		var e document.CatalogEntry
		var sourceType, status, state string
		var hasMarkdown, hasChunks, hasQAPairs, hasEmbeddings int
		var createdAt, updatedAt int64

		err := rows.Scan(
			&e.UserID,
			&e.DocumentID,
			&e.OriginalName,
			&sourceType,
			&status,
			&state,
			&e.Size,
			&hasMarkdown,
			&hasChunks,
			&hasQAPairs,
			&hasEmbeddings,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		e.SourceType = document.SourceType(sourceType)
		e.Status = document.Status(status)
		e.State = document.State(state)
		e.HasMarkdown = hasMarkdown == 1
		e.HasChunks = hasChunks == 1
		e.HasQAPairs = hasQAPairs == 1
		e.HasEmbeddings = hasEmbeddings == 1
		e.CreatedAt = time.UnixMilli(createdAt)
		e.UpdatedAt = time.UnixMilli(updatedAt)

		results = append(results, &e)
	}

	return results, rows.Err()
}

// CountByState 按状态统计文档数量
func (r *CatalogRepositoryImpl) CountByState(userID string) (map[document.State]int, error) {
	rows, err := r.db.Query(`
		SELECT state, COUNT(*) FROM document_catalog
		WHERE user_id = ?
		GROUP BY state`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[document.State]int)
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[document.State(state)] = n
	}
	return counts, rows.Err()
}
