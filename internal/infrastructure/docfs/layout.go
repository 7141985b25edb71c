package docfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// 用户目录下的存储子目录
const (
	RawDir      = "raw"
	MarkdownDir = "md"
	ChunksDir   = "chunks"
	MetaDir     = "meta"
	BackupsDir  = "backups"
)

// Layout 文档存储的扁平目录布局
//
//	<base>/<user>/raw/<id>
//	<base>/<user>/md/<id>.md
//	<base>/<user>/chunks/<id>/...
//	<base>/<user>/meta/<id>.json
//	<base>/<user>/backups/<subdir>/<id>/<file>.<unix_ts>
type Layout struct {
	resolver *PathResolver
}

// NewLayout 创建存储布局
func NewLayout(resolver *PathResolver) *Layout {
	return &Layout{resolver: resolver}
}

// Resolver 返回底层路径解析器
func (l *Layout) Resolver() *PathResolver {
	return l.resolver
}

func (l *Layout) userDir(userID, sub string) (string, error) {
	base, err := l.resolver.UserBaseDir(userID)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, sub), nil
}

func validDocumentID(documentID string) error {
	if documentID == "" || documentID == "." || documentID == ".." || strings.ContainsAny(documentID, `/\`) {
		return fmt.Errorf("invalid document id %q", documentID)
	}
	return nil
}

func (l *Layout) docPath(userID, sub, name, documentID string) (string, error) {
	if err := validDocumentID(documentID); err != nil {
		return "", err
	}
	dir, err := l.userDir(userID, sub)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// RawPath 原始文件路径
func (l *Layout) RawPath(userID, documentID string) (string, error) {
	return l.docPath(userID, RawDir, documentID, documentID)
}

// MarkdownPath markdown 文件路径
func (l *Layout) MarkdownPath(userID, documentID string) (string, error) {
	return l.docPath(userID, MarkdownDir, documentID+".md", documentID)
}

// ChunkDir 分块目录
func (l *Layout) ChunkDir(userID, documentID string) (string, error) {
	return l.docPath(userID, ChunksDir, documentID, documentID)
}

// MetaPath 元数据文件路径
func (l *Layout) MetaPath(userID, documentID string) (string, error) {
	return l.docPath(userID, MetaDir, documentID+".json", documentID)
}

// MetaDirPath 元数据目录
func (l *Layout) MetaDirPath(userID string) (string, error) {
	return l.userDir(userID, MetaDir)
}

// BackupDir 文档在某个子目录下的备份目录
func (l *Layout) BackupDir(userID, subdir, documentID string) (string, error) {
	if err := validDocumentID(documentID); err != nil {
		return "", err
	}
	if !validSegment(subdir) {
		return "", fmt.Errorf("invalid backup subdir %q", subdir)
	}
	dir, err := l.userDir(userID, BackupsDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, subdir, documentID), nil
}

// DocumentBackupRoot 文档全部备份所在的各子目录
func (l *Layout) DocumentBackupRoot(userID string) (string, error) {
	return l.userDir(userID, BackupsDir)
}

// UsageDirs 计入存储配额的目录
func (l *Layout) UsageDirs(userID string) ([]string, error) {
	var dirs []string
	for _, sub := range []string{RawDir, MarkdownDir, ChunksDir} {
		d, err := l.userDir(userID, sub)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, d)
	}
	return dirs, nil
}

// RotateBackup 把 src 复制为备份 <file>.<unix_ts>，并只保留最近 maxVersions 份
// src 不存在时不做任何事；maxVersions <= 0 表示不保留备份
func (l *Layout) RotateBackup(userID, subdir, documentID, src string, maxVersions int, now time.Time) error {
	if maxVersions <= 0 {
		return nil
	}
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	dir, err := l.BackupDir(userID, subdir, documentID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	name := filepath.Base(src)
	ts := now.Unix()
	target := filepath.Join(dir, fmt.Sprintf("%s.%d", name, ts))
	// 同一秒内多次备份时顺延时间戳
	for {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			break
		}
		ts++
		target = filepath.Join(dir, fmt.Sprintf("%s.%d", name, ts))
	}
	if err := CopyFile(src, target); err != nil {
		return err
	}

	versions := ListBackups(dir, name)
	for len(versions) > maxVersions {
		if err := os.Remove(versions[0]); err != nil && !os.IsNotExist(err) {
			return err
		}
		versions = versions[1:]
	}
	return nil
}

// ListBackups 返回 dir 中 name 的备份，按时间戳升序
func ListBackups(dir, name string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	type version struct {
		path string
		ts   int64
	}
	var versions []version
	prefix := name + "."
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimPrefix(e.Name(), prefix), 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, version{filepath.Join(dir, e.Name()), ts})
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].ts < versions[j].ts })
	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.path
	}
	return out
}
