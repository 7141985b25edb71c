package document

import (
	"errors"
	"os"
	"sort"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/docfs"
)

// GetDocument 读取文档元数据
func (s *Service) GetDocument(userID, documentID string) (*domainDoc.Document, error) {
	return s.meta.Get(userID, documentID)
}

// DocumentExists 元数据是否存在
func (s *Service) DocumentExists(userID, documentID string) bool {
	return s.meta.Exists(userID, documentID)
}

// ListDocuments 列出用户文档
// 配置了目录表时直接查询，否则逐个读取元数据后在内存中过滤
func (s *Service) ListDocuments(userID string, filter domainDoc.CatalogFilter) ([]*domainDoc.CatalogEntry, error) {
	if err := docfs.ValidateUserID(userID); err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindValidation, "list_documents", err, "invalid user")
	}
	if s.catalog != nil {
		return s.catalog.List(userID, filter)
	}

	docs, err := s.meta.List(userID)
	if err != nil {
		return nil, err
	}
	var entries []*domainDoc.CatalogEntry
	for _, doc := range docs {
		if !matchFilter(doc, filter) {
			continue
		}
		entries = append(entries, domainDoc.CatalogEntryFromDocument(userID, doc))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(entries) {
			return []*domainDoc.CatalogEntry{}, nil
		}
		entries = entries[filter.Offset:]
	}
	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

func matchFilter(doc *domainDoc.Document, filter domainDoc.CatalogFilter) bool {
	if filter.State != "" && doc.State != filter.State {
		return false
	}
	if filter.SourceType != "" && doc.SourceType != filter.SourceType {
		return false
	}
	if filter.HasEmbeddings != nil && doc.HasEmbeddings != *filter.HasEmbeddings {
		return false
	}
	return true
}

// StateCounts 按状态统计文档数量
func (s *Service) StateCounts(userID string) (map[domainDoc.State]int, error) {
	if s.catalog != nil {
		return s.catalog.CountByState(userID)
	}
	docs, err := s.meta.List(userID)
	if err != nil {
		return nil, err
	}
	counts := make(map[domainDoc.State]int)
	for _, doc := range docs {
		counts[doc.State]++
	}
	return counts, nil
}

// GetDocumentHistory 返回文档的状态转换记录，未启用审计时返回空列表
func (s *Service) GetDocumentHistory(userID, documentID string) ([]*domainDoc.TransitionRecord, error) {
	if s.transitions == nil {
		return []*domainDoc.TransitionRecord{}, nil
	}
	return s.transitions.ListByDocument(userID, documentID)
}

// RebuildCatalog 以元数据文件为准重建用户的目录表
func (s *Service) RebuildCatalog(userID string) (int, error) {
	if s.rebuilder == nil {
		return 0, domainDoc.NewError(domainDoc.KindValidation, "rebuild_catalog", "catalog is not configured")
	}
	if err := docfs.ValidateUserID(userID); err != nil {
		return 0, domainDoc.WrapError(domainDoc.KindValidation, "rebuild_catalog", err, "invalid user")
	}
	return s.rebuilder.Rebuild(userID)
}

// CalculateStorageUsage 统计 raw、md、chunks 目录的总字节数
func (s *Service) CalculateStorageUsage(userID string) (int64, error) {
	dirs, err := s.layout.UsageDirs(userID)
	if err != nil {
		return 0, domainDoc.WrapError(domainDoc.KindValidation, "calculate_storage_usage", err, "invalid user")
	}
	var total int64
	for _, dir := range dirs {
		size, err := docfs.DirSize(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return 0, domainDoc.WrapError(domainDoc.KindIO, "calculate_storage_usage", err, "walk %s", dir)
		}
		total += size
	}
	return total, nil
}
