package document

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	domainDoc "github.com/docmind/backend/internal/domain/document"
)

// 向量化的输入来源
const (
	IndexSourceChunks = "chunks"
	IndexSourceQA     = "qa"
)

const defaultSearchLimit = 10

// CreateDocumentIndex 把分块或问答对写入向量索引
// sourceKind 为空时按文档标记自动选择
func (s *Service) CreateDocumentIndex(ctx context.Context, userID, documentID, sourceKind string) (*domainDoc.Document, error) {
	unlock := s.locks.lock(userID, documentID)
	defer unlock()
	return s.createIndexLocked(ctx, userID, documentID, sourceKind)
}

func (s *Service) createIndexLocked(ctx context.Context, userID, documentID, sourceKind string) (*domainDoc.Document, error) {
	const op = "create_document_index"
	doc, m, err := s.getDocumentMachine(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	if sourceKind == "" {
		switch {
		case doc.SourceType == domainDoc.SourceChat || doc.HasQAPairs:
			sourceKind = IndexSourceQA
		case doc.HasChunks:
			sourceKind = IndexSourceChunks
		default:
			return doc, domainDoc.NewError(domainDoc.KindValidation, op,
				"document %s has neither chunks nor qa pairs", documentID)
		}
	}

	var start domainDoc.Event
	switch sourceKind {
	case IndexSourceChunks:
		start = domainDoc.EventStartEmbeddingFromChunks
	case IndexSourceQA:
		start = domainDoc.EventStartEmbeddingFromQA
	default:
		return doc, domainDoc.NewError(domainDoc.KindValidation, op, "unknown index source %q", sourceKind)
	}

	event, ok := firstAvailable(m, start, domainDoc.EventRetryEmbedding)
	if !ok {
		return doc, domainDoc.NewError(domainDoc.KindIllegalTransition, op,
			"cannot index from %s in state %s", sourceKind, m.State())
	}
	if err := m.Fire(ctx, event, domainDoc.TransitionArgs{}); err != nil {
		return doc, err
	}

	result, stageErr := s.indexContent(ctx, userID, doc, sourceKind)
	if stageErr != nil {
		s.loggerFor(ctx, userID, documentID).Error("embedding stage failed", "error", stageErr)
		if ferr := m.Fire(ctx, domainDoc.EventFailEmbedding, domainDoc.TransitionArgs{Error: stageErr.Error()}); ferr != nil {
			s.loggerFor(ctx, userID, documentID).Error("failed to record embedding failure", "error", ferr)
		}
		stageErr = domainDoc.WrapError(domainDoc.KindStageFailed, op, stageErr, "embedding failed")
	} else {
		details := map[string]interface{}{
			"indexed_chunks": result.Added,
			"skipped":        result.Skipped,
			"source":         sourceKind,
		}
		if err := m.Fire(ctx, domainDoc.EventCompleteEmbedding, domainDoc.TransitionArgs{Details: details}); err != nil {
			stageErr = err
		}
	}

	latest, err := s.meta.Get(userID, documentID)
	if err != nil {
		if stageErr == nil {
			stageErr = err
		}
		return nil, stageErr
	}
	return latest, stageErr
}

// indexContent 先清掉文档旧向量再写入，保证重复向量化不会留下重复条目
func (s *Service) indexContent(ctx context.Context, userID string, doc *domainDoc.Document, sourceKind string) (*domainDoc.AddResult, error) {
	if s.vectors == nil {
		return nil, errors.New("vector index is not configured")
	}

	texts, metadatas, err := s.indexInputs(userID, doc, sourceKind)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("no %s to index", sourceKind)
	}

	if err := s.vectors.Delete(ctx, s.cfg.Collection, userID, doc.DocumentID); err != nil {
		return nil, fmt.Errorf("clear previous vectors: %w", err)
	}
	result, err := s.vectors.Add(ctx, s.cfg.Collection, userID, texts, metadatas)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Added == 0 {
		return nil, errors.New("vector index accepted no entries")
	}
	return result, nil
}

func (s *Service) indexInputs(userID string, doc *domainDoc.Document, sourceKind string) ([]string, []map[string]string, error) {
	var texts []string
	var metadatas []map[string]string

	switch sourceKind {
	case IndexSourceQA:
		pairs, err := s.GetQAPairs(userID, doc.DocumentID)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range pairs {
			texts = append(texts, "Q: "+p.Question+"\nA: "+p.Answer)
			metadatas = append(metadatas, map[string]string{
				"document_id": doc.DocumentID,
				"chunk_index": strconv.Itoa(p.Index),
				"source":      IndexSourceQA,
			})
		}
	default:
		for _, c := range doc.Chunks {
			if strings.TrimSpace(c.Content) == "" {
				continue
			}
			md := map[string]string{
				"document_id": doc.DocumentID,
				"chunk_index": strconv.Itoa(c.Index),
				"source":      IndexSourceChunks,
			}
			if c.Heading != "" {
				md["heading"] = c.Heading
			}
			texts = append(texts, c.Content)
			metadatas = append(metadatas, md)
		}
	}
	return texts, metadatas, nil
}

// SearchDocuments 在用户的向量集合中检索
// 未配置向量索引、查询为空或检索出错时返回空列表
func (s *Service) SearchDocuments(ctx context.Context, userID, query, documentID string, limit int) []domainDoc.QueryResult {
	if s.vectors == nil || strings.TrimSpace(query) == "" {
		return []domainDoc.QueryResult{}
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	req := domainDoc.QueryRequest{
		QueryTexts: []string{query},
		Collection: s.cfg.Collection,
		UserID:     userID,
		Limit:      limit,
	}
	if documentID != "" {
		req.Filter = map[string]string{"document_id": documentID}
	}

	results, err := s.vectors.Query(ctx, req)
	if err != nil {
		s.loggerFor(ctx, userID, documentID).Warn("vector search failed", "error", err)
		return []domainDoc.QueryResult{}
	}
	if results == nil {
		return []domainDoc.QueryResult{}
	}
	return results
}
