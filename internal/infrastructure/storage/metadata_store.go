package storage

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/docmind/backend/internal/infrastructure/log"
)

// 确保 MetadataStore 实现了 document.MetadataRepository 接口
var _ document.MetadataRepository = (*MetadataStore)(nil)

// MetadataStore 以 meta/<id>.json 保存文档元数据
// 调用方负责同一文档的写入互斥
type MetadataStore struct {
	layout *docfs.Layout
	logger *slog.Logger
}

// NewMetadataStore 创建元数据存储
func NewMetadataStore(layout *docfs.Layout) *MetadataStore {
	return &MetadataStore{
		layout: layout,
		logger: log.NewModuleLogger("storage", "metadata_store"),
	}
}

func (s *MetadataStore) path(op, userID, documentID string) (string, error) {
	path, err := s.layout.MetaPath(userID, documentID)
	if err != nil {
		return "", document.WrapError(document.KindValidation, op, err, "invalid document reference")
	}
	return path, nil
}

// Get 读取元数据
func (s *MetadataStore) Get(userID, documentID string) (*document.Document, error) {
	const op = "metadata.get"
	path, err := s.path(op, userID, documentID)
	if err != nil {
		return nil, err
	}
	return s.readFile(op, path, documentID)
}

func (s *MetadataStore) readFile(op, path, documentID string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, document.NewError(document.KindNotFound, op, "document %s not found", documentID)
		}
		return nil, document.WrapError(document.KindIO, op, err, "read metadata")
	}
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, document.WrapError(document.KindIO, op, err, "decode metadata of %s", documentID)
	}
	return &doc, nil
}

// Save 整体写入元数据
func (s *MetadataStore) Save(userID string, doc *document.Document) error {
	const op = "metadata.save"
	path, err := s.path(op, userID, doc.DocumentID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return document.WrapError(document.KindIO, op, err, "encode metadata")
	}
	if err := docfs.WriteFileAtomic(path, data, 0644); err != nil {
		return document.WrapError(document.KindIO, op, err, "write metadata")
	}
	return nil
}

// Update 读取、深度合并、写回
// patch 中的嵌套对象逐键合并，其余值直接覆盖
func (s *MetadataStore) Update(userID, documentID string, patch map[string]interface{}) (*document.Document, error) {
	const op = "metadata.update"
	path, err := s.path(op, userID, documentID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, document.NewError(document.KindNotFound, op, "document %s not found", documentID)
		}
		return nil, document.WrapError(document.KindIO, op, err, "read metadata")
	}

	var current map[string]interface{}
	if err := json.Unmarshal(data, &current); err != nil {
		return nil, document.WrapError(document.KindIO, op, err, "decode metadata of %s", documentID)
	}

	normalized, err := normalizePatch(patch)
	if err != nil {
		return nil, document.WrapError(document.KindValidation, op, err, "invalid patch")
	}
	merged := DeepMerge(current, normalized)

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return nil, document.WrapError(document.KindIO, op, err, "encode metadata")
	}

	var doc document.Document
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, document.WrapError(document.KindValidation, op, err, "patch produced invalid metadata")
	}
	if err := docfs.WriteFileAtomic(path, out, 0644); err != nil {
		return nil, document.WrapError(document.KindIO, op, err, "write metadata")
	}
	return &doc, nil
}

// Delete 删除元数据文件，不存在时不报错
func (s *MetadataStore) Delete(userID, documentID string) error {
	const op = "metadata.delete"
	path, err := s.path(op, userID, documentID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return document.WrapError(document.KindIO, op, err, "remove metadata")
	}
	return nil
}

// Exists 元数据是否存在
func (s *MetadataStore) Exists(userID, documentID string) bool {
	path, err := s.layout.MetaPath(userID, documentID)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// List 列出用户全部文档，按创建时间升序；无法解析的文件被跳过
func (s *MetadataStore) List(userID string) ([]*document.Document, error) {
	const op = "metadata.list"
	dir, err := s.layout.MetaDirPath(userID)
	if err != nil {
		return nil, document.WrapError(document.KindValidation, op, err, "invalid user")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, document.WrapError(document.KindIO, op, err, "read metadata dir")
	}

	var docs []*document.Document
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		path, err := s.layout.MetaPath(userID, id)
		if err != nil {
			continue
		}
		doc, err := s.readFile(op, path, id)
		if err != nil {
			s.logger.Warn("skip unreadable metadata",
				"user_id", userID,
				"document_id", id,
				"error", err,
			)
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].DocumentID < docs[j].DocumentID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

// normalizePatch 把带类型的 patch 值转换为 JSON 通用结构
func normalizePatch(patch map[string]interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeepMerge 把 src 合并进 dst 并返回 dst
// 两边都是对象的键递归合并，其余情况 src 覆盖 dst
func DeepMerge(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]interface{})
		dstMap, dstIsMap := dst[k].(map[string]interface{})
		if srcIsMap && dstIsMap {
			dst[k] = DeepMerge(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
	return dst
}
