package docfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// 主题目录操作只修改文件系统，不触碰索引
// 任何错误都会记录日志并以 false 返回

// CreateTopicDir 创建主题目录（已存在视为成功）
func (p *PathResolver) CreateTopicDir(userID, topicPath string) bool {
	if _, err := p.GetTopicPath(userID, topicPath); err != nil {
		p.logger.Warn("create topic failed", "user_id", userID, "topic_path", topicPath, "error", err)
		return false
	}
	return true
}

// DeleteTopicDir 删除主题目录及其全部内容；根目录不可删除
func (p *PathResolver) DeleteTopicDir(userID, topicPath string) bool {
	rel, dir, ok := p.existingTopic(userID, topicPath)
	if !ok || rel == "" {
		return false
	}
	if err := os.RemoveAll(dir); err != nil {
		p.logger.Warn("delete topic failed", "user_id", userID, "topic_path", rel, "error", err)
		return false
	}
	return true
}

// RenameTopicDir 在同一父目录下重命名主题，返回新路径
func (p *PathResolver) RenameTopicDir(userID, topicPath, newName string) (string, bool) {
	if !validSegment(newName) {
		p.logger.Warn("invalid topic name", "user_id", userID, "name", newName)
		return "", false
	}
	rel, dir, ok := p.existingTopic(userID, topicPath)
	if !ok || rel == "" {
		return "", false
	}
	newRel := JoinTopic(ParentTopic(rel), newName)
	if newRel == rel {
		return rel, true
	}
	target := filepath.Join(filepath.Dir(dir), newName)
	if _, err := os.Lstat(target); err == nil {
		p.logger.Warn("rename target exists", "user_id", userID, "target", newRel)
		return "", false
	}
	if err := os.Rename(dir, target); err != nil {
		p.logger.Warn("rename topic failed", "user_id", userID, "topic_path", rel, "error", err)
		return "", false
	}
	return newRel, true
}

// MoveTopicDir 把主题移动到新的父主题下，返回新路径
// 不能移动根目录，也不能移动到自身子树中
func (p *PathResolver) MoveTopicDir(userID, topicPath, newParent string) (string, bool) {
	rel, dir, ok := p.existingTopic(userID, topicPath)
	if !ok || rel == "" {
		return "", false
	}
	parentRel, err := NormalizeTopicPath(newParent)
	if err != nil {
		return "", false
	}
	if IsWithinTopic(parentRel, rel) {
		p.logger.Warn("cannot move topic into itself", "user_id", userID, "topic_path", rel, "new_parent", parentRel)
		return "", false
	}
	newRel := JoinTopic(parentRel, filepath.Base(dir))
	if newRel == rel {
		return rel, true
	}
	parentDir, err := p.GetTopicPath(userID, parentRel)
	if err != nil {
		return "", false
	}
	target := filepath.Join(parentDir, filepath.Base(dir))
	if _, err := os.Lstat(target); err == nil {
		p.logger.Warn("move target exists", "user_id", userID, "target", newRel)
		return "", false
	}
	if err := os.Rename(dir, target); err != nil {
		p.logger.Warn("move topic failed", "user_id", userID, "topic_path", rel, "error", err)
		return "", false
	}
	return newRel, true
}

// CopyTopicDir 把主题完整复制到 dstPath，返回规范化后的目标路径
// 目标必须不存在，且不能位于源子树中
func (p *PathResolver) CopyTopicDir(userID, srcPath, dstPath string) (string, bool) {
	rel, dir, ok := p.existingTopic(userID, srcPath)
	if !ok {
		return "", false
	}
	dstRel, err := NormalizeTopicPath(dstPath)
	if err != nil || dstRel == "" || IsWithinTopic(dstRel, rel) {
		p.logger.Warn("invalid copy target", "user_id", userID, "src", rel, "dst", dstPath)
		return "", false
	}
	target, err := p.TopicDir(userID, dstRel)
	if err != nil {
		return "", false
	}
	if _, err := os.Lstat(target); err == nil {
		p.logger.Warn("copy target exists", "user_id", userID, "dst", dstRel)
		return "", false
	}
	if err := copyDir(dir, target); err != nil {
		p.logger.Warn("copy topic failed", "user_id", userID, "src", rel, "dst", dstRel, "error", err)
		_ = os.RemoveAll(target)
		return "", false
	}
	return dstRel, true
}

// MergeTopicDirs 把 src 合并进 dst 后删除 src
// 同名子目录递归合并；同名文件在 overwrite=false 时保留目标，否则用源文件替换
func (p *PathResolver) MergeTopicDirs(userID, srcPath, dstPath string, overwrite bool) bool {
	rel, dir, ok := p.existingTopic(userID, srcPath)
	if !ok || rel == "" {
		return false
	}
	dstRel, err := NormalizeTopicPath(dstPath)
	if err != nil || IsWithinTopic(dstRel, rel) {
		p.logger.Warn("invalid merge target", "user_id", userID, "src", rel, "dst", dstPath)
		return false
	}
	target, err := p.GetTopicPath(userID, dstRel)
	if err != nil {
		return false
	}
	if err := mergeDir(dir, target, overwrite); err != nil {
		p.logger.Warn("merge topic failed", "user_id", userID, "src", rel, "dst", dstRel, "error", err)
		return false
	}
	if err := os.RemoveAll(dir); err != nil {
		p.logger.Warn("remove merged source failed", "user_id", userID, "src", rel, "error", err)
		return false
	}
	return true
}

// existingTopic 规范化路径并确认目录存在
func (p *PathResolver) existingTopic(userID, topicPath string) (string, string, bool) {
	rel, err := NormalizeTopicPath(topicPath)
	if err != nil {
		p.logger.Warn("invalid topic path", "user_id", userID, "topic_path", topicPath, "error", err)
		return "", "", false
	}
	dir, err := p.TopicDir(userID, rel)
	if err != nil {
		p.logger.Warn("invalid user", "user_id", userID, "error", err)
		return "", "", false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", "", false
	}
	return rel, dir, true
}

func validSegment(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func mergeDir(src, dst string, overwrite bool) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		s := filepath.Join(src, e.Name())
		d := filepath.Join(dst, e.Name())

		dInfo, statErr := os.Lstat(d)
		exists := statErr == nil
		if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
			return statErr
		}

		switch {
		case !exists:
			if err := os.Rename(s, d); err != nil {
				return fmt.Errorf("move %s: %w", e.Name(), err)
			}
		case e.IsDir() && dInfo.IsDir():
			if err := mergeDir(s, d, overwrite); err != nil {
				return err
			}
		case overwrite:
			if err := os.RemoveAll(d); err != nil {
				return err
			}
			if err := os.Rename(s, d); err != nil {
				return fmt.Errorf("replace %s: %w", e.Name(), err)
			}
		}
	}
	return nil
}
