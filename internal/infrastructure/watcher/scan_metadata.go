package watcher

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/docmind/backend/internal/infrastructure/docfs"
)

// ScanMetadata 扫描元数据管理
// 用于记录上次扫描时间，决定启动时是否需要全量扫描
type ScanMetadata struct {
	mu           sync.RWMutex
	lastScanTime time.Time
	filePath     string
}

// scanMetadataData 元数据文件结构
type scanMetadataData struct {
	LastScanTime time.Time `json:"last_scan_time"`
}

// NewScanMetadata 创建扫描元数据管理器并从文件加载
func NewScanMetadata(filePath string) *ScanMetadata {
	sm := &ScanMetadata{
		filePath: filePath,
	}
	sm.load()
	return sm
}

// GetLastScanTime 获取上次扫描时间
func (sm *ScanMetadata) GetLastScanTime() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.lastScanTime
}

// SetLastScanTime 设置上次扫描时间并持久化
func (sm *ScanMetadata) SetLastScanTime(t time.Time) {
	sm.mu.Lock()
	sm.lastScanTime = t
	sm.mu.Unlock()

	sm.save()
}

// load 文件不存在或损坏时保持零值
func (sm *ScanMetadata) load() {
	data, err := os.ReadFile(sm.filePath)
	if err != nil {
		return
	}

	var metadata scanMetadataData
	if err := json.Unmarshal(data, &metadata); err != nil {
		return
	}

	sm.mu.Lock()
	sm.lastScanTime = metadata.LastScanTime
	sm.mu.Unlock()
}

func (sm *ScanMetadata) save() {
	sm.mu.RLock()
	metadata := scanMetadataData{
		LastScanTime: sm.lastScanTime,
	}
	sm.mu.RUnlock()

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return
	}
	_ = docfs.WriteFileAtomic(sm.filePath, data, 0644)
}
