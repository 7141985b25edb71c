package topic

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domainTopic "github.com/docmind/backend/internal/domain/topic"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/docmind/backend/internal/infrastructure/markdown"
	"github.com/google/uuid"
)

// UpdateRequest 文档更新内容，nil 字段保持不变
type UpdateRequest struct {
	Title   *string
	Content *string
	Extra   map[string]interface{}
}

// CreateDocument 在主题下创建文档
func (s *Service) CreateDocument(userID, topicPath, title, content string, extra map[string]interface{}) (*domainTopic.Document, error) {
	rel, err := s.normalize(userID, topicPath)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domainTopic.ErrInvalidDocument)
	}
	if _, err := s.resolver.GetTopicPath(userID, rel); err != nil {
		return nil, fmt.Errorf("%w: %v", domainTopic.ErrOperationFailed, err)
	}

	now := s.now()
	id := uuid.NewString()
	fm := &markdown.FrontMatter{
		DocumentID: id,
		Title:      title,
		TopicPath:  rel,
		CreatedAt:  now,
		UpdatedAt:  now,
		Extra:      extra,
	}
	path, err := s.resolver.DocumentPath(userID, rel, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainTopic.ErrInvalidPath, err)
	}
	if err := markdown.WriteFile(path, fm, []byte(content)); err != nil {
		return nil, fmt.Errorf("%w: %v", domainTopic.ErrOperationFailed, err)
	}
	if err := s.index.AddDocument(userID, id, rel); err != nil {
		s.logger.Warn("failed to index new document", "user_id", userID, "document_id", id, "error", err)
	}

	s.logger.Info("topic document created", "user_id", userID, "document_id", id, "topic_path", rel)
	return toDocument(fm, []byte(content)), nil
}

// locate 通过索引定位文档，找不到时强制全量刷新后再试一次
func (s *Service) locate(userID, documentID string) (string, error) {
	if err := docfs.ValidateUserID(userID); err != nil {
		return "", fmt.Errorf("%w: %v", domainTopic.ErrInvalidPath, err)
	}
	if path, ok := s.index.GetDocumentPath(userID, documentID); ok {
		return path, nil
	}
	s.refresh(userID, "")
	if path, ok := s.index.GetDocumentPath(userID, documentID); ok {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s", domainTopic.ErrDocumentNotFound, documentID)
}

// ReadDocument 读取文档
// front matter 记录的主题与实际位置不一致时按实际位置修复后返回
func (s *Service) ReadDocument(userID, documentID string) (*domainTopic.Document, error) {
	path, err := s.locate(userID, documentID)
	if err != nil {
		return nil, err
	}
	fm, body, err := s.readAndRepair(userID, documentID, path)
	if err != nil {
		return nil, err
	}
	return toDocument(fm, body), nil
}

func (s *Service) readAndRepair(userID, documentID, path string) (*markdown.FrontMatter, []byte, error) {
	fm, body, err := markdown.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", domainTopic.ErrDocumentNotFound, documentID)
		}
		return nil, nil, fmt.Errorf("%w: %v", domainTopic.ErrOperationFailed, err)
	}
	actual, err := s.resolver.RelativeTopic(userID, filepath.Dir(path))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domainTopic.ErrOperationFailed, err)
	}

	recorded := ""
	if fm != nil {
		recorded, _ = docfs.NormalizeTopicPath(fm.TopicPath)
	}
	if fm != nil && recorded == actual && fm.DocumentID == documentID {
		fm.TopicPath = actual
		return fm, body, nil
	}

	s.logger.Warn("document metadata out of sync with location, repairing",
		"user_id", userID,
		"document_id", documentID,
		"recorded", recorded,
		"actual", actual,
	)
	now := s.now()
	if fm == nil {
		fm = &markdown.FrontMatter{CreatedAt: now}
	}
	fm.DocumentID = documentID
	fm.TopicPath = actual
	fm.UpdatedAt = now
	if err := markdown.WriteFile(path, fm, body); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domainTopic.ErrOperationFailed, err)
	}
	if err := s.index.UpdateDocumentPath(userID, documentID, actual); err != nil {
		s.logger.Warn("failed to update index", "user_id", userID, "document_id", documentID, "error", err)
	}
	return fm, body, nil
}

// UpdateDocument 更新标题、正文或附加字段
func (s *Service) UpdateDocument(userID, documentID string, req UpdateRequest) (*domainTopic.Document, error) {
	path, err := s.locate(userID, documentID)
	if err != nil {
		return nil, err
	}
	fm, body, err := s.readAndRepair(userID, documentID, path)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", domainTopic.ErrInvalidDocument)
		}
		fm.Title = title
	}
	if req.Content != nil {
		body = []byte(*req.Content)
	}
	if len(req.Extra) > 0 {
		if fm.Extra == nil {
			fm.Extra = make(map[string]interface{}, len(req.Extra))
		}
		for k, v := range req.Extra {
			if v == nil {
				delete(fm.Extra, k)
				continue
			}
			fm.Extra[k] = v
		}
	}
	fm.UpdatedAt = s.now()

	if err := markdown.WriteFile(path, fm, body); err != nil {
		return nil, fmt.Errorf("%w: %v", domainTopic.ErrOperationFailed, err)
	}
	return toDocument(fm, body), nil
}

// MoveDocument 把文档移动到另一个主题
func (s *Service) MoveDocument(userID, documentID, newTopicPath string) (*domainTopic.Document, error) {
	path, err := s.locate(userID, documentID)
	if err != nil {
		return nil, err
	}
	target, err := s.normalize(userID, newTopicPath)
	if err != nil {
		return nil, err
	}
	fm, body, err := s.readAndRepair(userID, documentID, path)
	if err != nil {
		return nil, err
	}
	if fm.TopicPath == target {
		return toDocument(fm, body), nil
	}

	if _, err := s.resolver.GetTopicPath(userID, target); err != nil {
		return nil, fmt.Errorf("%w: %v", domainTopic.ErrOperationFailed, err)
	}
	newPath, err := s.resolver.DocumentPath(userID, target, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainTopic.ErrInvalidPath, err)
	}
	if _, err := os.Lstat(newPath); err == nil {
		return nil, fmt.Errorf("%w: %s", domainTopic.ErrDocumentExists, newPath)
	}

	fm.TopicPath = target
	fm.UpdatedAt = s.now()
	if err := markdown.WriteFile(newPath, fm, body); err != nil {
		return nil, fmt.Errorf("%w: %v", domainTopic.ErrOperationFailed, err)
	}
	if err := os.Remove(path); err != nil {
		_ = os.Remove(newPath)
		return nil, fmt.Errorf("%w: %v", domainTopic.ErrOperationFailed, err)
	}
	if err := s.index.UpdateDocumentPath(userID, documentID, target); err != nil {
		s.logger.Warn("failed to update index", "user_id", userID, "document_id", documentID, "error", err)
	}

	s.logger.Info("topic document moved", "user_id", userID, "document_id", documentID, "topic_path", target)
	return toDocument(fm, body), nil
}

// DeleteDocument 删除文档文件及索引条目
func (s *Service) DeleteDocument(userID, documentID string) error {
	path, err := s.locate(userID, documentID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", domainTopic.ErrOperationFailed, err)
	}
	s.index.RemoveDocument(userID, documentID)
	s.logger.Info("topic document deleted", "user_id", userID, "document_id", documentID)
	return nil
}

func toDocument(fm *markdown.FrontMatter, body []byte) *domainTopic.Document {
	return &domainTopic.Document{
		DocumentID: fm.DocumentID,
		Title:      fm.Title,
		TopicPath:  fm.TopicPath,
		CreatedAt:  fm.CreatedAt,
		UpdatedAt:  fm.UpdatedAt,
		Extra:      fm.Extra,
		Content:    string(body),
	}
}
