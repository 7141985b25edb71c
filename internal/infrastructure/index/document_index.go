// Package index 维护 文档 ID -> 主题路径 的内存索引，并在索引与文件系统不一致时自愈
package index

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/docmind/backend/internal/infrastructure/log"
)

// DefaultRefreshInterval 默认刷新间隔
const DefaultRefreshInterval = 300 * time.Second

// Entry 索引条目
type Entry struct {
	TopicPath   string  `json:"topic_path"`
	FileName    string  `json:"file_name"`
	LastChecked float64 `json:"last_checked"` // Unix 秒
}

// MetadataPatcher 读写文档自身记录的主题路径
type MetadataPatcher interface {
	ReadTopicPath(path string) (topicPath string, present bool, err error)
	WriteTopicPath(path, topicPath string) error
}

// userIndex 单个用户的索引，由自身的互斥锁保护
type userIndex struct {
	mu          sync.Mutex
	entries     map[string]Entry
	lastRefresh time.Time
}

// DocumentIndex 按用户分片的文档路径索引
// 同一用户的操作串行执行，不同用户之间互不阻塞；用户分片首次访问时创建，之后不再移除
type DocumentIndex struct {
	resolver        *docfs.PathResolver
	patcher         MetadataPatcher
	refreshInterval time.Duration
	cachePath       string
	now             func() time.Time
	logger          *slog.Logger

	mu    sync.Mutex
	users map[string]*userIndex
}

// Option 索引选项
type Option func(*DocumentIndex)

// WithRefreshInterval 设置刷新间隔
func WithRefreshInterval(d time.Duration) Option {
	return func(x *DocumentIndex) {
		if d > 0 {
			x.refreshInterval = d
		}
	}
}

// WithCachePath 设置快照文件路径
func WithCachePath(path string) Option {
	return func(x *DocumentIndex) {
		x.cachePath = path
	}
}

// WithClock 替换时钟（测试使用）
func WithClock(now func() time.Time) Option {
	return func(x *DocumentIndex) {
		x.now = now
	}
}

// NewDocumentIndex 创建索引
// patcher 为 nil 时修复只更新索引，不改写文档元数据
func NewDocumentIndex(resolver *docfs.PathResolver, patcher MetadataPatcher, opts ...Option) *DocumentIndex {
	x := &DocumentIndex{
		resolver:        resolver,
		patcher:         patcher,
		refreshInterval: DefaultRefreshInterval,
		cachePath:       filepath.Join(resolver.BaseDir(), "index_cache.json"),
		now:             time.Now,
		logger:          log.NewModuleLogger("index", "document_index"),
		users:           make(map[string]*userIndex),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// user 返回用户分片，不存在时创建
func (x *DocumentIndex) user(userID string) *userIndex {
	x.mu.Lock()
	defer x.mu.Unlock()
	ui, ok := x.users[userID]
	if !ok {
		ui = &userIndex{entries: make(map[string]Entry)}
		x.users[userID] = ui
	}
	return ui
}

func (x *DocumentIndex) stamp() float64 {
	return float64(x.now().UnixNano()) / float64(time.Second)
}

// RefreshIndex 从文件系统刷新索引
// 未强制且距上次全量刷新不足间隔时不做任何事；specificPath 非空时只对该子树负责
func (x *DocumentIndex) RefreshIndex(userID string, force bool, specificPath string) error {
	if err := docfs.ValidateUserID(userID); err != nil {
		return err
	}
	ui := x.user(userID)
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return x.refreshLocked(userID, ui, force, specificPath)
}

func (x *DocumentIndex) refreshLocked(userID string, ui *userIndex, force bool, specificPath string) error {
	now := x.now()
	if !force && !ui.lastRefresh.IsZero() && now.Sub(ui.lastRefresh) < x.refreshInterval {
		return nil
	}

	scope, err := docfs.NormalizeTopicPath(specificPath)
	if err != nil {
		return err
	}

	found := x.scan(userID, scope)
	stamp := x.stamp()
	for id, topicPath := range found {
		ui.entries[id] = Entry{TopicPath: topicPath, FileName: docfs.DocumentFileName(id), LastChecked: stamp}
	}

	removed := 0
	for id, e := range ui.entries {
		if _, ok := found[id]; ok {
			continue
		}
		if docfs.IsWithinTopic(e.TopicPath, scope) {
			delete(ui.entries, id)
			removed++
		}
	}

	if scope == "" {
		ui.lastRefresh = now
	}

	x.logger.Debug("index refreshed",
		"user_id", userID,
		"scope", scope,
		"found", len(found),
		"removed", removed,
	)
	return nil
}

// scan 遍历主题子树，返回 文档 ID -> 所在主题
func (x *DocumentIndex) scan(userID, scope string) map[string]string {
	found := make(map[string]string)
	root, err := x.resolver.TopicDir(userID, scope)
	if err != nil {
		return found
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		id, ok := docfs.ExtractDocumentID(d.Name())
		if !ok {
			return nil
		}
		topicPath, err := x.resolver.RelativeTopic(userID, filepath.Dir(path))
		if err != nil {
			return nil
		}
		if prev, dup := found[id]; dup && prev != topicPath {
			x.logger.Warn("duplicate document id on disk",
				"user_id", userID,
				"document_id", id,
				"first", prev,
				"second", topicPath,
			)
		}
		found[id] = topicPath
		return nil
	})
	return found
}

// search 在整个用户目录中查找文档文件
func (x *DocumentIndex) search(userID, documentID string) (string, bool) {
	root, err := x.resolver.UserBaseDir(userID)
	if err != nil {
		return "", false
	}
	target := docfs.DocumentFileName(documentID)

	var topicPath string
	var ok bool
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Name() != target {
			return nil
		}
		if rel, err := x.resolver.RelativeTopic(userID, filepath.Dir(path)); err == nil {
			topicPath, ok = rel, true
			return filepath.SkipAll
		}
		return nil
	})
	return topicPath, ok
}

// lookupLocked 先查索引，缺失或已失效时回退为全目录搜索
func (x *DocumentIndex) lookupLocked(userID string, ui *userIndex, documentID string) (Entry, bool) {
	if e, ok := ui.entries[documentID]; ok {
		path, err := x.resolver.DocumentPath(userID, e.TopicPath, documentID)
		if err == nil && fileExists(path) {
			return e, true
		}
		delete(ui.entries, documentID)
	}

	topicPath, ok := x.search(userID, documentID)
	if !ok {
		return Entry{}, false
	}
	e := Entry{TopicPath: topicPath, FileName: docfs.DocumentFileName(documentID), LastChecked: x.stamp()}
	ui.entries[documentID] = e
	x.logger.Info("document recovered by filesystem search",
		"user_id", userID,
		"document_id", documentID,
		"topic_path", topicPath,
	)
	return e, true
}

// GetDocumentPath 返回文档文件的绝对路径
// 只有文档确实不在磁盘上时返回 false
func (x *DocumentIndex) GetDocumentPath(userID, documentID string) (string, bool) {
	e, ok := x.GetDocumentEntry(userID, documentID)
	if !ok {
		return "", false
	}
	path, err := x.resolver.DocumentPath(userID, e.TopicPath, documentID)
	if err != nil {
		return "", false
	}
	return path, true
}

// GetDocumentEntry 返回文档的索引条目
func (x *DocumentIndex) GetDocumentEntry(userID, documentID string) (Entry, bool) {
	if docfs.ValidateUserID(userID) != nil || !docfs.IsDocumentFile(docfs.DocumentFileName(documentID)) {
		return Entry{}, false
	}
	ui := x.user(userID)
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return x.lookupLocked(userID, ui, documentID)
}

// AddDocument 记录文档所在主题
func (x *DocumentIndex) AddDocument(userID, documentID, topicPath string) error {
	rel, err := docfs.NormalizeTopicPath(topicPath)
	if err != nil {
		return err
	}
	ui := x.user(userID)
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.entries[documentID] = Entry{TopicPath: rel, FileName: docfs.DocumentFileName(documentID), LastChecked: x.stamp()}
	return nil
}

// UpdateDocumentPath 更新文档所在主题
func (x *DocumentIndex) UpdateDocumentPath(userID, documentID, newTopicPath string) error {
	return x.AddDocument(userID, documentID, newTopicPath)
}

// RemoveDocument 删除条目，返回条目是否存在
func (x *DocumentIndex) RemoveDocument(userID, documentID string) bool {
	ui := x.user(userID)
	ui.mu.Lock()
	defer ui.mu.Unlock()
	_, ok := ui.entries[documentID]
	delete(ui.entries, documentID)
	return ok
}

// UpdateDocumentsInPath 把 oldPrefix 子树下所有条目的路径前缀替换为 newPrefix，返回更新数量
// 用于主题重命名或移动之后，无需重新扫描磁盘
func (x *DocumentIndex) UpdateDocumentsInPath(userID, oldPrefix, newPrefix string) (int, error) {
	oldRel, err := docfs.NormalizeTopicPath(oldPrefix)
	if err != nil {
		return 0, err
	}
	newRel, err := docfs.NormalizeTopicPath(newPrefix)
	if err != nil {
		return 0, err
	}
	if oldRel == "" {
		return 0, nil
	}

	ui := x.user(userID)
	ui.mu.Lock()
	defer ui.mu.Unlock()

	stamp := x.stamp()
	updated := 0
	for id, e := range ui.entries {
		if !docfs.IsWithinTopic(e.TopicPath, oldRel) {
			continue
		}
		suffix := e.TopicPath[len(oldRel):]
		e.TopicPath = docfs.JoinTopic(newRel, trimSlash(suffix))
		e.LastChecked = stamp
		ui.entries[id] = e
		updated++
	}
	return updated, nil
}

// Entries 返回用户索引的副本
func (x *DocumentIndex) Entries(userID string) map[string]Entry {
	ui := x.user(userID)
	ui.mu.Lock()
	defer ui.mu.Unlock()
	out := make(map[string]Entry, len(ui.entries))
	for id, e := range ui.entries {
		out[id] = e
	}
	return out
}

// DocumentsInTopic 返回索引中位于主题下的文档 ID
func (x *DocumentIndex) DocumentsInTopic(userID, topicPath string, recursive bool) []string {
	rel, err := docfs.NormalizeTopicPath(topicPath)
	if err != nil {
		return nil
	}
	var ids []string
	for id, e := range x.Entries(userID) {
		if e.TopicPath == rel || (recursive && docfs.IsWithinTopic(e.TopicPath, rel)) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Users 返回已加载的用户
func (x *DocumentIndex) Users() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	users := make([]string, 0, len(x.users))
	for u := range x.users {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

func trimSlash(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
