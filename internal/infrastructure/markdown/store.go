package markdown

import (
	"path/filepath"
	"time"

	"github.com/docmind/backend/internal/infrastructure/docfs"
)

// FrontMatterStore 通过 front matter 读写文档记录的主题路径
type FrontMatterStore struct {
	now func() time.Time
}

// NewFrontMatterStore 创建存储
func NewFrontMatterStore() *FrontMatterStore {
	return &FrontMatterStore{now: time.Now}
}

// ReadTopicPath 读取文档记录的主题路径
// present 为 false 表示文件没有 front matter
func (s *FrontMatterStore) ReadTopicPath(path string) (topicPath string, present bool, err error) {
	fm, _, err := ReadFile(path)
	if err != nil {
		return "", false, err
	}
	if fm == nil {
		return "", false, nil
	}
	normalized, err := docfs.NormalizeTopicPath(fm.TopicPath)
	if err != nil {
		// 记录的路径本身非法，按缺失处理以便修复
		return "", false, nil
	}
	return normalized, true, nil
}

// WriteTopicPath 更新文档的主题路径，缺少 front matter 时补全
func (s *FrontMatterStore) WriteTopicPath(path, topicPath string) error {
	fm, body, err := ReadFile(path)
	if err != nil {
		return err
	}
	now := s.now()
	if fm == nil {
		fm = &FrontMatter{CreatedAt: now}
		if id, ok := docfs.ExtractDocumentID(filepath.Base(path)); ok {
			fm.DocumentID = id
		}
	}
	fm.TopicPath = topicPath
	fm.UpdatedAt = now
	return WriteFile(path, fm, body)
}
