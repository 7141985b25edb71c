package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/docmind/backend/internal/domain/events"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/docmind/backend/internal/infrastructure/log"
	"github.com/fsnotify/fsnotify"
)

// WatchConfig FileWatcher 配置
type WatchConfig struct {
	// TopicsDir 主题树根目录，其下第一级为用户目录
	TopicsDir string
	// DebounceDelay 防抖延迟
	DebounceDelay time.Duration
	// FullScanThreshold 全量扫描阈值（距上次扫描超过此时间则执行全量扫描）
	FullScanThreshold time.Duration
	// ScanMetadataPath 扫描元数据文件，为空时放在 TopicsDir 下
	ScanMetadataPath string
}

// DefaultWatchConfig 返回默认配置
func DefaultWatchConfig(topicsDir string) WatchConfig {
	return WatchConfig{
		TopicsDir:         topicsDir,
		DebounceDelay:     500 * time.Millisecond,
		FullScanThreshold: 24 * time.Hour,
	}
}

// topicKey 防抖键：用户 + 受影响的父主题
type topicKey struct {
	userID    string
	topicPath string
}

// FileWatcher 主题树监听器
// 文档文件或目录的变化按 (用户, 父主题) 去抖后发布 topic.changed
type FileWatcher struct {
	config   WatchConfig
	eventBus events.EventBus
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// 已监听的目录
	watched   map[string]struct{}
	watchedMu sync.Mutex

	// 防抖相关
	debounceTimers map[topicKey]*time.Timer
	debounceMu     sync.Mutex

	// 控制
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// 扫描元数据
	metadata *ScanMetadata
}

// NewFileWatcher 创建文件监听器
func NewFileWatcher(config WatchConfig, eventBus events.EventBus) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	metaPath := config.ScanMetadataPath
	if metaPath == "" {
		metaPath = filepath.Join(config.TopicsDir, ".scan_metadata.json")
	}

	return &FileWatcher{
		config:         config,
		eventBus:       eventBus,
		watcher:        watcher,
		logger:         log.NewModuleLogger("watcher", "file_watcher"),
		watched:        make(map[string]struct{}),
		debounceTimers: make(map[topicKey]*time.Timer),
		stopCh:         make(chan struct{}),
		metadata:       NewScanMetadata(metaPath),
	}, nil
}

// Start 启动文件监听
func (fw *FileWatcher) Start() error {
	fw.logger.Info("starting file watcher", "topics_dir", fw.config.TopicsDir)

	if err := os.MkdirAll(fw.config.TopicsDir, 0755); err != nil {
		return err
	}

	if fw.needsFullScan() {
		fw.logger.Info("performing full scan on startup")
		fw.performFullScan()
	}

	fw.addDirRecursive(fw.config.TopicsDir)

	fw.wg.Add(1)
	go fw.watchLoop()

	return nil
}

// Stop 停止文件监听，可重复调用
func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() {
		fw.logger.Info("stopping file watcher")

		close(fw.stopCh)
		fw.watcher.Close()
		fw.wg.Wait()

		fw.debounceMu.Lock()
		for key, timer := range fw.debounceTimers {
			timer.Stop()
			delete(fw.debounceTimers, key)
		}
		fw.debounceMu.Unlock()

		fw.logger.Info("file watcher stopped")
	})
}

// needsFullScan 判断是否需要全量扫描
func (fw *FileWatcher) needsFullScan() bool {
	lastScan := fw.metadata.GetLastScanTime()

	if lastScan.IsZero() {
		fw.logger.Info("no previous scan found, full scan required")
		return true
	}

	elapsed := time.Since(lastScan)
	if elapsed > fw.config.FullScanThreshold {
		fw.logger.Info("last scan too old, full scan required",
			"last_scan", lastScan,
			"elapsed", elapsed,
			"threshold", fw.config.FullScanThreshold,
		)
		return true
	}

	fw.logger.Info("recent scan found, skipping full scan",
		"last_scan", lastScan,
		"elapsed", elapsed,
	)
	return false
}

// performFullScan 为每个用户发布一次全量刷新事件
func (fw *FileWatcher) performFullScan() {
	startTime := time.Now()

	users := docfs.NewPathResolver(fw.config.TopicsDir).ListUsers()
	for _, userID := range users {
		fw.eventBus.Publish(&events.TopicChangedEvent{
			UserID:    userID,
			FullScan:  true,
			EventTime: time.Now(),
		})
	}

	fw.metadata.SetLastScanTime(time.Now())

	fw.logger.Info("full scan completed",
		"users", len(users),
		"duration", time.Since(startTime),
	)
}

// addDirRecursive 递归添加目录监听，隐藏目录除外
func (fw *FileWatcher) addDirRecursive(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		fw.addWatch(path)
		return nil
	})
}

func (fw *FileWatcher) addWatch(path string) {
	fw.watchedMu.Lock()
	defer fw.watchedMu.Unlock()

	if _, ok := fw.watched[path]; ok {
		return
	}
	if err := fw.watcher.Add(path); err != nil {
		fw.logger.Debug("failed to add directory to watch", "path", path, "error", err)
		return
	}
	fw.watched[path] = struct{}{}
}

// forgetWatch 目录被删除或移走后清理记录，返回之前是否在监听
func (fw *FileWatcher) forgetWatch(path string) bool {
	fw.watchedMu.Lock()
	defer fw.watchedMu.Unlock()

	if _, ok := fw.watched[path]; !ok {
		return false
	}
	prefix := path + string(filepath.Separator)
	for p := range fw.watched {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(fw.watched, p)
		}
	}
	return true
}

// watchLoop 事件监听循环
func (fw *FileWatcher) watchLoop() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("watcher error", "error", err)
		}
	}
}

// handleFsEvent 处理文件系统事件
// 只关心文档文件与目录；临时文件和隐藏文件直接忽略
func (fw *FileWatcher) handleFsEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	switch {
	case isDir:
		if event.Has(fsnotify.Create) {
			// 移动进来的目录可能已带有子目录
			fw.addDirRecursive(event.Name)
		}
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if !fw.forgetWatch(event.Name) && !docfs.IsDocumentFile(name) {
			return
		}
	case !docfs.IsDocumentFile(name):
		return
	}

	userID, topicPath, ok := fw.parseTopicPath(event.Name)
	if !ok {
		return
	}
	fw.schedule(topicKey{userID: userID, topicPath: topicPath})
}

// parseTopicPath 把绝对路径解析为 (用户, 父主题)
// 输入：<topics>/alice/a/b/__id_x__.md
// 输出：userID="alice", topicPath="a/b"
func (fw *FileWatcher) parseTopicPath(path string) (userID, topicPath string, ok bool) {
	rel, err := filepath.Rel(fw.config.TopicsDir, path)
	if err != nil {
		return "", "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", "", false
	}

	segments := strings.Split(rel, "/")
	userID = segments[0]
	if docfs.ValidateUserID(userID) != nil {
		return "", "", false
	}
	if len(segments) == 1 {
		// 用户目录本身
		return userID, "", true
	}
	return userID, docfs.ParentTopic(strings.Join(segments[1:], "/")), true
}

// schedule 同一 (用户, 主题) 在延迟内的多次变化只发布一次
func (fw *FileWatcher) schedule(key topicKey) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, exists := fw.debounceTimers[key]; exists {
		timer.Stop()
	}

	fw.debounceTimers[key] = time.AfterFunc(fw.config.DebounceDelay, func() {
		fw.debounceMu.Lock()
		delete(fw.debounceTimers, key)
		fw.debounceMu.Unlock()

		select {
		case <-fw.stopCh:
			return
		default:
		}

		fw.eventBus.Publish(&events.TopicChangedEvent{
			UserID:    key.userID,
			TopicPath: key.topicPath,
			EventTime: time.Now(),
		})
		fw.logger.Debug("topic change emitted",
			"user_id", key.userID,
			"topic_path", key.topicPath,
		)
	})
}
