// Package docfs 负责用户文档树在文件系统上的路径计算与目录操作
package docfs

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docmind/backend/internal/infrastructure/log"
)

const (
	docFilePrefix = "__id_"
	docFileSuffix = "__.md"
)

// PathResolver 用户文档树路径解析器
// 除根目录外不持有任何状态；所有主题路径都是以 "/" 分隔的相对路径，"" 表示用户根目录
type PathResolver struct {
	baseDir string
	logger  *slog.Logger
}

// NewPathResolver 创建路径解析器
func NewPathResolver(baseDir string) *PathResolver {
	return &PathResolver{
		baseDir: filepath.Clean(baseDir),
		logger:  log.NewModuleLogger("docfs", "path_resolver"),
	}
}

// BaseDir 返回根目录
func (p *PathResolver) BaseDir() string {
	return p.baseDir
}

// DocumentFileName 返回文档文件名 __id_<id>__.md
func DocumentFileName(documentID string) string {
	return docFilePrefix + documentID + docFileSuffix
}

// ExtractDocumentID 从文件名解析文档 ID，不符合命名约定时返回 false
func ExtractDocumentID(name string) (string, bool) {
	if !strings.HasPrefix(name, docFilePrefix) || !strings.HasSuffix(name, docFileSuffix) {
		return "", false
	}
	if len(name) <= len(docFilePrefix)+len(docFileSuffix) {
		return "", false
	}
	return name[len(docFilePrefix) : len(name)-len(docFileSuffix)], true
}

// IsDocumentFile 是否符合文档命名约定
func IsDocumentFile(name string) bool {
	_, ok := ExtractDocumentID(name)
	return ok
}

// ValidateUserID 校验用户 ID 可以安全地作为目录名
func ValidateUserID(userID string) error {
	if userID == "" || userID == "." || userID == ".." {
		return fmt.Errorf("invalid user id %q", userID)
	}
	if strings.ContainsAny(userID, `/\`) || strings.ContainsRune(userID, 0) {
		return fmt.Errorf("invalid user id %q", userID)
	}
	return nil
}

// NormalizeTopicPath 规范化主题路径
// "."、"/" 与 "" 都表示根目录；越出根目录的路径返回错误
func NormalizeTopicPath(topicPath string) (string, error) {
	p := strings.ReplaceAll(topicPath, `\`, "/")
	p = path.Clean("/" + p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		p = ""
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("topic path %q escapes user root", topicPath)
		}
	}
	return p, nil
}

// ParentTopic 返回父主题路径，根目录的父目录仍为根目录
func ParentTopic(topicPath string) string {
	dir := path.Dir(topicPath)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// JoinTopic 拼接主题路径
func JoinTopic(parent, name string) string {
	if parent == "" {
		return name
	}
	if name == "" {
		return parent
	}
	return parent + "/" + name
}

// IsWithinTopic topicPath 是否等于 prefix 或位于其子树中
func IsWithinTopic(topicPath, prefix string) bool {
	if prefix == "" {
		return true
	}
	return topicPath == prefix || strings.HasPrefix(topicPath, prefix+"/")
}

// UserBaseDir 返回用户根目录路径（不创建）
func (p *PathResolver) UserBaseDir(userID string) (string, error) {
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	return filepath.Join(p.baseDir, userID), nil
}

// GetUserBase 确保并返回用户根目录
func (p *PathResolver) GetUserBase(userID string) (string, error) {
	dir, err := p.UserBaseDir(userID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create user base: %w", err)
	}
	return dir, nil
}

// TopicDir 返回主题目录的绝对路径（不创建）
func (p *PathResolver) TopicDir(userID, topicPath string) (string, error) {
	base, err := p.UserBaseDir(userID)
	if err != nil {
		return "", err
	}
	rel, err := NormalizeTopicPath(topicPath)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return base, nil
	}
	return filepath.Join(base, filepath.FromSlash(rel)), nil
}

// GetTopicPath 确保并返回主题目录
func (p *PathResolver) GetTopicPath(userID, topicPath string) (string, error) {
	dir, err := p.TopicDir(userID, topicPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create topic dir: %w", err)
	}
	return dir, nil
}

// DocumentPath 返回文档文件的绝对路径
func (p *PathResolver) DocumentPath(userID, topicPath, documentID string) (string, error) {
	dir, err := p.TopicDir(userID, topicPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DocumentFileName(documentID)), nil
}

// RelativeTopic 把用户根目录下的绝对目录转换为主题路径
func (p *PathResolver) RelativeTopic(userID, absDir string) (string, error) {
	base, err := p.UserBaseDir(userID)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, absDir)
	if err != nil {
		return "", err
	}
	return NormalizeTopicPath(filepath.ToSlash(rel))
}

// PhysicalDocumentIDs 扫描主题目录下符合命名约定的文档
// 目录不存在时返回空列表
func (p *PathResolver) PhysicalDocumentIDs(userID, topicPath string, recursive bool) []string {
	dir, err := p.TopicDir(userID, topicPath)
	if err != nil {
		p.logger.Warn("invalid topic path", "user_id", userID, "topic_path", topicPath, "error", err)
		return nil
	}

	var ids []string
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if id, ok := ExtractDocumentID(e.Name()); ok {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		return ids
	}

	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if id, ok := ExtractDocumentID(d.Name()); ok {
			ids = append(ids, id)
		}
		return nil
	})
	sort.Strings(ids)
	return ids
}

// ListSubTopics 列出直接子主题
func (p *PathResolver) ListSubTopics(userID, topicPath string) []string {
	dir, err := p.TopicDir(userID, topicPath)
	if err != nil {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var topics []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			topics = append(topics, e.Name())
		}
	}
	sort.Strings(topics)
	return topics
}

// ListUsers 列出根目录下的用户
func (p *PathResolver) ListUsers() []string {
	entries, err := os.ReadDir(p.baseDir)
	if err != nil {
		return nil
	}
	var users []string
	for _, e := range entries {
		if e.IsDir() && ValidateUserID(e.Name()) == nil && !strings.HasPrefix(e.Name(), ".") {
			users = append(users, e.Name())
		}
	}
	return users
}
