package config

import (
	"os"
	"path/filepath"
	"sync"
)

const (
	// EnvDataDir 数据目录环境变量
	EnvDataDir = "DOCMIND_DATA_DIR"
	// DefaultDataDirName 默认数据目录名
	DefaultDataDirName = ".docmind"
)

var (
	dataDirOnce sync.Once
	dataDirPath string
)

// GetDataDir 返回数据根目录
// 优先读取 DOCMIND_DATA_DIR，默认 ~/.docmind；结果在进程内缓存
func GetDataDir() string {
	dataDirOnce.Do(func() {
		if dir := os.Getenv(EnvDataDir); dir != "" {
			dataDirPath = dir
			return
		}
		home, err := os.UserHomeDir()
		if err != nil {
			dataDirPath = DefaultDataDirName
			return
		}
		dataDirPath = filepath.Join(home, DefaultDataDirName)
	})
	return dataDirPath
}

// ResetDataDir 清除缓存（仅测试使用）
func ResetDataDir() {
	dataDirOnce = sync.Once{}
	dataDirPath = ""
}
