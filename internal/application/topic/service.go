// Package topic 管理主题树：目录操作、文档读写以及索引同步与修复
package topic

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	domainTopic "github.com/docmind/backend/internal/domain/topic"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/docmind/backend/internal/infrastructure/index"
	"github.com/docmind/backend/internal/infrastructure/log"
	"github.com/docmind/backend/internal/infrastructure/markdown"
	"github.com/google/uuid"
)

// Service 主题树服务
// 目录变更先落到文件系统，再同步索引；索引始终可以从磁盘重建
type Service struct {
	resolver *docfs.PathResolver
	index    *index.DocumentIndex
	store    *markdown.FrontMatterStore
	now      func() time.Time
	logger   *slog.Logger
}

// NewService 创建主题树服务
func NewService(resolver *docfs.PathResolver, idx *index.DocumentIndex, store *markdown.FrontMatterStore) *Service {
	return &Service{
		resolver: resolver,
		index:    idx,
		store:    store,
		now:      time.Now,
		logger:   log.NewModuleLogger("topic", "service"),
	}
}

// normalize 校验用户并规范化主题路径
func (s *Service) normalize(userID, topicPath string) (string, error) {
	if err := docfs.ValidateUserID(userID); err != nil {
		return "", fmt.Errorf("%w: %v", domainTopic.ErrInvalidPath, err)
	}
	rel, err := docfs.NormalizeTopicPath(topicPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domainTopic.ErrInvalidPath, err)
	}
	return rel, nil
}

// existing 规范化路径并确认主题目录存在
func (s *Service) existing(userID, topicPath string) (string, string, error) {
	rel, err := s.normalize(userID, topicPath)
	if err != nil {
		return "", "", err
	}
	dir, err := s.resolver.TopicDir(userID, rel)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domainTopic.ErrInvalidPath, err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", "", fmt.Errorf("%w: %q", domainTopic.ErrTopicNotFound, rel)
	}
	return rel, dir, nil
}

func (s *Service) topicExists(userID, rel string) bool {
	dir, err := s.resolver.TopicDir(userID, rel)
	if err != nil {
		return false
	}
	_, err = os.Lstat(dir)
	return err == nil
}

// CreateTopic 创建主题（已存在视为成功），返回规范化路径
func (s *Service) CreateTopic(userID, topicPath string) (string, error) {
	rel, err := s.normalize(userID, topicPath)
	if err != nil {
		return "", err
	}
	if !s.resolver.CreateTopicDir(userID, rel) {
		return "", fmt.Errorf("%w: create %q", domainTopic.ErrOperationFailed, rel)
	}
	s.logger.Info("topic created", "user_id", userID, "topic_path", rel)
	return rel, nil
}

// DeleteTopic 删除主题及其全部文档，并清理子树内的索引条目
func (s *Service) DeleteTopic(userID, topicPath string) error {
	rel, _, err := s.existing(userID, topicPath)
	if err != nil {
		return err
	}
	if rel == "" {
		return domainTopic.ErrRootTopic
	}
	if !s.resolver.DeleteTopicDir(userID, rel) {
		return fmt.Errorf("%w: delete %q", domainTopic.ErrOperationFailed, rel)
	}
	s.refresh(userID, rel)
	s.logger.Info("topic deleted", "user_id", userID, "topic_path", rel)
	return nil
}

// RenameTopic 在同一父主题下重命名，返回新路径
func (s *Service) RenameTopic(userID, topicPath, newName string) (string, error) {
	rel, _, err := s.existing(userID, topicPath)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", domainTopic.ErrRootTopic
	}
	if !validName(newName) {
		return "", fmt.Errorf("%w: name %q", domainTopic.ErrInvalidPath, newName)
	}
	target := docfs.JoinTopic(docfs.ParentTopic(rel), newName)
	if target != rel && s.topicExists(userID, target) {
		return "", fmt.Errorf("%w: %q", domainTopic.ErrTopicExists, target)
	}

	newRel, ok := s.resolver.RenameTopicDir(userID, rel, newName)
	if !ok {
		return "", fmt.Errorf("%w: rename %q", domainTopic.ErrOperationFailed, rel)
	}
	s.relocated(userID, rel, newRel)
	return newRel, nil
}

// MoveTopic 把主题移动到 newParent 下，返回新路径
func (s *Service) MoveTopic(userID, topicPath, newParent string) (string, error) {
	rel, _, err := s.existing(userID, topicPath)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", domainTopic.ErrRootTopic
	}
	parent, err := s.normalize(userID, newParent)
	if err != nil {
		return "", err
	}
	if docfs.IsWithinTopic(parent, rel) {
		return "", fmt.Errorf("%w: cannot move %q into itself", domainTopic.ErrInvalidPath, rel)
	}
	target := docfs.JoinTopic(parent, path.Base(rel))
	if target != rel && s.topicExists(userID, target) {
		return "", fmt.Errorf("%w: %q", domainTopic.ErrTopicExists, target)
	}

	newRel, ok := s.resolver.MoveTopicDir(userID, rel, parent)
	if !ok {
		return "", fmt.Errorf("%w: move %q", domainTopic.ErrOperationFailed, rel)
	}
	s.relocated(userID, rel, newRel)
	return newRel, nil
}

// relocated 子树整体换了前缀：先批量改写索引，再以磁盘为准修复 front matter
func (s *Service) relocated(userID, oldRel, newRel string) {
	if oldRel == newRel {
		return
	}
	updated, err := s.index.UpdateDocumentsInPath(userID, oldRel, newRel)
	if err != nil {
		s.logger.Warn("failed to update index paths", "user_id", userID, "old", oldRel, "new", newRel, "error", err)
	}
	report, err := s.index.VerifyAndRepairDocumentPaths(userID, newRel)
	if err != nil {
		s.logger.Warn("failed to repair moved topic", "user_id", userID, "topic_path", newRel, "error", err)
		return
	}
	s.logger.Info("topic relocated",
		"user_id", userID,
		"old", oldRel,
		"new", newRel,
		"index_updated", updated,
		"repaired", len(report.Repaired),
	)
}

// CopyTopic 复制主题到 dstPath
// 副本中的文档全部换发新 ID，保证 ID 到路径的映射仍是单射
func (s *Service) CopyTopic(userID, srcPath, dstPath string) (string, map[string]string, error) {
	rel, _, err := s.existing(userID, srcPath)
	if err != nil {
		return "", nil, err
	}
	dstRel, err := s.normalize(userID, dstPath)
	if err != nil {
		return "", nil, err
	}
	if dstRel == "" || docfs.IsWithinTopic(dstRel, rel) {
		return "", nil, fmt.Errorf("%w: cannot copy %q to %q", domainTopic.ErrInvalidPath, rel, dstRel)
	}
	if s.topicExists(userID, dstRel) {
		return "", nil, fmt.Errorf("%w: %q", domainTopic.ErrTopicExists, dstRel)
	}

	copied, ok := s.resolver.CopyTopicDir(userID, rel, dstRel)
	if !ok {
		return "", nil, fmt.Errorf("%w: copy %q", domainTopic.ErrOperationFailed, rel)
	}
	ids, err := s.reassignIDs(userID, copied)
	if err != nil {
		s.logger.Warn("failed to reassign copied document ids", "user_id", userID, "topic_path", copied, "error", err)
	}
	s.refresh(userID, copied)
	s.logger.Info("topic copied", "user_id", userID, "src", rel, "dst", copied, "documents", len(ids))
	return copied, ids, err
}

// reassignIDs 为子树内每个文档换发新 ID：重命名文件并改写 front matter
func (s *Service) reassignIDs(userID, topicPath string) (map[string]string, error) {
	root, err := s.resolver.TopicDir(userID, topicPath)
	if err != nil {
		return nil, err
	}

	type docFile struct {
		path string
		id   string
	}
	var files []docFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if id, ok := docfs.ExtractDocumentID(d.Name()); ok {
			files = append(files, docFile{path: path, id: id})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make(map[string]string, len(files))
	now := s.now()
	for _, f := range files {
		newID := uuid.NewString()
		fm, body, err := markdown.ReadFile(f.path)
		if err != nil {
			// 损坏的 front matter 按无元数据处理，正文保持原样
			data, rerr := os.ReadFile(f.path)
			if rerr != nil {
				return ids, rerr
			}
			fm, body = nil, data
		}
		if fm == nil {
			fm = &markdown.FrontMatter{CreatedAt: now}
		}
		dir := filepath.Dir(f.path)
		actual, err := s.resolver.RelativeTopic(userID, dir)
		if err != nil {
			return ids, err
		}
		fm.DocumentID = newID
		fm.TopicPath = actual
		fm.UpdatedAt = now

		target := filepath.Join(dir, docfs.DocumentFileName(newID))
		if err := markdown.WriteFile(target, fm, body); err != nil {
			return ids, err
		}
		if err := os.Remove(f.path); err != nil {
			return ids, err
		}
		ids[f.id] = newID
	}
	return ids, nil
}

// MergeTopics 把 src 合并进 dst 并删除 src
func (s *Service) MergeTopics(userID, srcPath, dstPath string, overwrite bool) error {
	rel, _, err := s.existing(userID, srcPath)
	if err != nil {
		return err
	}
	if rel == "" {
		return domainTopic.ErrRootTopic
	}
	dstRel, err := s.normalize(userID, dstPath)
	if err != nil {
		return err
	}
	if docfs.IsWithinTopic(dstRel, rel) {
		return fmt.Errorf("%w: cannot merge %q into itself", domainTopic.ErrInvalidPath, rel)
	}

	if !s.resolver.MergeTopicDirs(userID, rel, dstRel, overwrite) {
		return fmt.Errorf("%w: merge %q into %q", domainTopic.ErrOperationFailed, rel, dstRel)
	}
	s.refresh(userID, rel)
	s.refresh(userID, dstRel)
	report, err := s.index.VerifyAndRepairDocumentPaths(userID, dstRel)
	if err != nil {
		s.logger.Warn("failed to repair merged topic", "user_id", userID, "topic_path", dstRel, "error", err)
		return nil
	}
	s.logger.Info("topics merged",
		"user_id", userID,
		"src", rel,
		"dst", dstRel,
		"overwrite", overwrite,
		"repaired", len(report.Repaired),
	)
	return nil
}

// ListTopic 列出主题的直接子主题与文档
func (s *Service) ListTopic(userID, topicPath string) (*domainTopic.Listing, error) {
	rel, dir, err := s.existing(userID, topicPath)
	if err != nil {
		return nil, err
	}
	listing := &domainTopic.Listing{
		TopicPath: rel,
		Topics:    s.resolver.ListSubTopics(userID, rel),
		Documents: []domainTopic.Summary{},
	}
	if listing.Topics == nil {
		listing.Topics = []string{}
	}
	for _, id := range s.resolver.PhysicalDocumentIDs(userID, rel, false) {
		summary := domainTopic.Summary{DocumentID: id, TopicPath: rel}
		if fm, _, err := markdown.ReadFile(filepath.Join(dir, docfs.DocumentFileName(id))); err == nil && fm != nil {
			summary.Title = fm.Title
			summary.UpdatedAt = fm.UpdatedAt
		}
		listing.Documents = append(listing.Documents, summary)
	}
	return listing, nil
}

// RepairTopic 以磁盘为准修复主题子树的索引与文档元数据
func (s *Service) RepairTopic(userID, topicPath string) (*domainTopic.RepairReport, error) {
	rel, _, err := s.existing(userID, topicPath)
	if err != nil {
		return nil, err
	}
	return s.index.VerifyAndRepairDocumentPaths(userID, rel)
}

// validName 单段主题名
func validName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// refresh 强制刷新子树索引，失败只记录
func (s *Service) refresh(userID, topicPath string) {
	if err := s.index.RefreshIndex(userID, true, topicPath); err != nil {
		s.logger.Warn("failed to refresh index", "user_id", userID, "topic_path", topicPath, "error", err)
	}
}
