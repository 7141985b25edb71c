package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docmind/backend/internal/infrastructure/docfs"
)

// cacheFile 快照文件格式
type cacheFile struct {
	Timestamp float64                     `json:"timestamp"`
	Index     map[string]map[string]Entry `json:"index"`
}

// rawCacheFile 读取快照时使用的宽松格式，单个条目损坏不影响其他条目
type rawCacheFile struct {
	Timestamp float64                    `json:"timestamp"`
	Index     map[string]json.RawMessage `json:"index"`
}

// CachePath 返回快照文件路径
func (x *DocumentIndex) CachePath() string {
	return x.cachePath
}

// SaveCache 把所有用户的索引写入快照文件
func (x *DocumentIndex) SaveCache() error {
	x.mu.Lock()
	users := make(map[string]*userIndex, len(x.users))
	for id, ui := range x.users {
		users[id] = ui
	}
	x.mu.Unlock()

	snapshot := cacheFile{
		Timestamp: x.stamp(),
		Index:     make(map[string]map[string]Entry, len(users)),
	}
	for userID, ui := range users {
		ui.mu.Lock()
		entries := make(map[string]Entry, len(ui.entries))
		for id, e := range ui.entries {
			if e.TopicPath == "" {
				e.TopicPath = "."
			}
			entries[id] = e
		}
		ui.mu.Unlock()
		snapshot.Index[userID] = entries
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(x.cachePath), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := docfs.WriteFileAtomic(x.cachePath, data, 0644); err != nil {
		return fmt.Errorf("write index cache: %w", err)
	}

	x.logger.Debug("index cache saved", "path", x.cachePath, "users", len(users))
	return nil
}

// LoadCache 从快照文件恢复索引，文件不存在时什么都不做
// 字段缺失或类型错误的条目以根主题补齐；无法识别的用户被跳过
func (x *DocumentIndex) LoadCache() error {
	data, err := os.ReadFile(x.cachePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read index cache: %w", err)
	}

	var raw rawCacheFile
	if err := json.Unmarshal(data, &raw); err != nil {
		x.logger.Warn("index cache is corrupt, ignored", "path", x.cachePath, "error", err)
		return nil
	}

	loaded := 0
	for userID, userRaw := range raw.Index {
		if docfs.ValidateUserID(userID) != nil {
			x.logger.Warn("skip invalid user in index cache", "user_id", userID)
			continue
		}
		var docs map[string]json.RawMessage
		if err := json.Unmarshal(userRaw, &docs); err != nil {
			x.logger.Warn("skip malformed user index in cache", "user_id", userID, "error", err)
			continue
		}

		entries := make(map[string]Entry, len(docs))
		for documentID, docRaw := range docs {
			if !docfs.IsDocumentFile(docfs.DocumentFileName(documentID)) {
				continue
			}
			entries[documentID] = decodeEntry(documentID, docRaw)
		}

		ui := x.user(userID)
		ui.mu.Lock()
		for id, e := range entries {
			ui.entries[id] = e
		}
		ui.mu.Unlock()
		loaded += len(entries)
	}

	x.logger.Info("index cache loaded", "path", x.cachePath, "users", len(raw.Index), "documents", loaded)
	return nil
}

// decodeEntry 宽松解析单个条目
func decodeEntry(documentID string, raw json.RawMessage) Entry {
	e := Entry{FileName: docfs.DocumentFileName(documentID)}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return e
	}
	if v, ok := fields["topic_path"].(string); ok {
		if rel, err := docfs.NormalizeTopicPath(v); err == nil {
			e.TopicPath = rel
		}
	}
	if v, ok := fields["file_name"].(string); ok && v != "" {
		e.FileName = v
	}
	if v, ok := fields["last_checked"].(float64); ok {
		e.LastChecked = v
	}
	return e
}

// Run 周期性保存快照，ctx 结束时做最后一次保存
func (x *DocumentIndex) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := x.SaveCache(); err != nil {
				x.logger.Warn("failed to save index cache on shutdown", "error", err)
			}
			return
		case <-ticker.C:
			if err := x.SaveCache(); err != nil {
				x.logger.Warn("failed to save index cache", "error", err)
			}
		}
	}
}
