package singleton

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LockFileName 数据目录下的实例信息文件
const LockFileName = "docmind.lock"

// LockInfo 锁文件内容
type LockInfo struct {
	PID  int
	Addr string
}

// WriteLockFile 在数据目录写入当前进程 pid 与监听地址
// 端口锁才是真正的互斥手段，锁文件只供外部工具定位实例
func WriteLockFile(dataDir, addr string) (release func(), err error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, LockFileName)
	content := fmt.Sprintf("%d\n%s\n", os.Getpid(), addr)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("write lock file: %w", err)
	}

	pid := os.Getpid()
	return func() {
		// 只删除自己写入的锁文件
		if info, err := ReadLockFile(dataDir); err == nil && info.PID == pid {
			_ = os.Remove(path)
		}
	}, nil
}

// ReadLockFile 读取锁文件
func ReadLockFile(dataDir string) (*LockInfo, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, LockFileName))
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid lock file: %w", err)
	}
	info := &LockInfo{PID: pid}
	if len(lines) > 1 {
		info.Addr = strings.TrimSpace(lines[1])
	}
	return info, nil
}
