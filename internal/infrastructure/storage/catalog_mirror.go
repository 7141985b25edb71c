package storage

import (
	"log/slog"

	"github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/log"
)

// 确保 CatalogMirror 实现了 document.MetadataRepository 接口
var _ document.MetadataRepository = (*CatalogMirror)(nil)

// CatalogMirror 在元数据写入成功后同步目录表
// 目录写入失败只记录日志，元数据 JSON 始终是权威来源
type CatalogMirror struct {
	document.MetadataRepository
	catalog document.CatalogRepository
	logger  *slog.Logger
}

// NewCatalogMirror 创建带目录镜像的元数据仓库
func NewCatalogMirror(store document.MetadataRepository, catalog document.CatalogRepository) *CatalogMirror {
	return &CatalogMirror{
		MetadataRepository: store,
		catalog:            catalog,
		logger:             log.NewModuleLogger("storage", "catalog_mirror"),
	}
}

// Save 写入元数据并同步目录
func (m *CatalogMirror) Save(userID string, doc *document.Document) error {
	if err := m.MetadataRepository.Save(userID, doc); err != nil {
		return err
	}
	m.sync(userID, doc)
	return nil
}

// Update 合并元数据并同步目录
func (m *CatalogMirror) Update(userID, documentID string, patch map[string]interface{}) (*document.Document, error) {
	doc, err := m.MetadataRepository.Update(userID, documentID, patch)
	if err != nil {
		return nil, err
	}
	m.sync(userID, doc)
	return doc, nil
}

// Delete 删除元数据并移除目录行
func (m *CatalogMirror) Delete(userID, documentID string) error {
	if err := m.MetadataRepository.Delete(userID, documentID); err != nil {
		return err
	}
	if err := m.catalog.Delete(userID, documentID); err != nil {
		m.logger.Warn("failed to remove catalog entry",
			"user_id", userID,
			"document_id", documentID,
			"error", err,
		)
	}
	return nil
}

// Rebuild 以元数据为准重建用户目录，返回写入的行数
func (m *CatalogMirror) Rebuild(userID string) (int, error) {
	docs, err := m.MetadataRepository.List(userID)
	if err != nil {
		return 0, err
	}
	if err := m.catalog.DeleteUser(userID); err != nil {
		return 0, document.WrapError(document.KindIO, "catalog.rebuild", err, "clear catalog")
	}
	for _, doc := range docs {
		if err := m.catalog.Upsert(document.CatalogEntryFromDocument(userID, doc)); err != nil {
			return 0, document.WrapError(document.KindIO, "catalog.rebuild", err, "upsert %s", doc.DocumentID)
		}
	}
	m.logger.Info("catalog rebuilt", "user_id", userID, "documents", len(docs))
	return len(docs), nil
}

func (m *CatalogMirror) sync(userID string, doc *document.Document) {
	if err := m.catalog.Upsert(document.CatalogEntryFromDocument(userID, doc)); err != nil {
		m.logger.Warn("failed to sync catalog entry",
			"user_id", userID,
			"document_id", doc.DocumentID,
			"error", err,
		)
	}
}
