// Package vector 提供文档分块的向量索引实现
package vector

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/log"
	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
)

// 确保 ChromemIndex 实现了 document.VectorIndex 接口
var _ document.VectorIndex = (*ChromemIndex)(nil)

const defaultQueryLimit = 10

// 写入向量索引时自动附加的元数据键
const (
	MetaUserID     = "user_id"
	MetaDocumentID = "document_id"
	MetaChunkIndex = "chunk_index"
)

// ChromemIndex 基于 chromem-go 的嵌入式向量索引
// 每个 (collection, user) 对应一个 chromem 集合
type ChromemIndex struct {
	db     *chromem.DB
	embed  chromem.EmbeddingFunc
	logger *slog.Logger
}

// NewChromemIndex 使用已有的 chromem 数据库创建索引
func NewChromemIndex(db *chromem.DB, embed chromem.EmbeddingFunc) *ChromemIndex {
	return &ChromemIndex{
		db:     db,
		embed:  embed,
		logger: log.NewModuleLogger("vector", "chromem"),
	}
}

// OpenChromemIndex 打开持久化在 dir 中的索引
func OpenChromemIndex(dir string, embed chromem.EmbeddingFunc) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	return NewChromemIndex(db, embed), nil
}

func collectionName(collection, userID string) string {
	return collection + "__" + userID
}

// Add 写入文本，空白文本计为 skipped
func (x *ChromemIndex) Add(ctx context.Context, collection, userID string, texts []string, metadatas []map[string]string) (*document.AddResult, error) {
	if metadatas != nil && len(metadatas) != len(texts) {
		return nil, fmt.Errorf("got %d texts but %d metadatas", len(texts), len(metadatas))
	}
	col, err := x.db.GetOrCreateCollection(collectionName(collection, userID), nil, x.embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	result := &document.AddResult{}
	docs := make([]chromem.Document, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			result.Skipped++
			continue
		}
		var meta map[string]string
		if metadatas != nil {
			meta = metadatas[i]
		}
		md := withUser(meta, userID)
		docs = append(docs, chromem.Document{
			ID:       pointKey(userID, md, i),
			Content:  text,
			Metadata: md,
		})
	}
	if len(docs) == 0 {
		return result, nil
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("add documents: %w", err)
	}
	result.Added = len(docs)

	x.logger.Debug("vectors added",
		"collection", collection,
		"user_id", userID,
		"added", result.Added,
		"skipped", result.Skipped,
	)
	return result, nil
}

// Delete 删除文档的全部向量
func (x *ChromemIndex) Delete(ctx context.Context, collection, userID, documentID string) error {
	col := x.db.GetCollection(collectionName(collection, userID), x.embed)
	if col == nil {
		return nil
	}
	if err := col.Delete(ctx, map[string]string{MetaDocumentID: documentID}, nil); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

// Query 检索，多个查询文本的结果合并后按距离升序截断
func (x *ChromemIndex) Query(ctx context.Context, req document.QueryRequest) ([]document.QueryResult, error) {
	col := x.db.GetCollection(collectionName(req.Collection, req.UserID), x.embed)
	if col == nil {
		return nil, nil
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	n := limit
	// chromem 要求 nResults 不超过集合大小
	if n > count {
		n = count
	}

	var where map[string]string
	if len(req.Filter) > 0 {
		where = req.Filter
	}

	var results []document.QueryResult
	for _, text := range req.QueryTexts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		hits, err := col.Query(ctx, text, n, where, nil)
		if err != nil {
			return nil, fmt.Errorf("chromem query: %w", err)
		}
		for _, h := range hits {
			results = append(results, document.QueryResult{
				Text:     h.Content,
				Distance: 1 - h.Similarity,
				Metadata: h.Metadata,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// withUser 复制元数据并附加用户 ID
func withUser(meta map[string]string, userID string) map[string]string {
	out := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out[MetaUserID] = userID
	return out
}

// pointKey 生成稳定的向量 ID，同一文档分块重复写入时覆盖旧向量
func pointKey(userID string, meta map[string]string, position int) string {
	docID := meta[MetaDocumentID]
	if docID == "" {
		return uuid.NewString()
	}
	idx := meta[MetaChunkIndex]
	if idx == "" {
		idx = strconv.Itoa(position)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID+"/"+docID+"/"+idx)).String()
}
