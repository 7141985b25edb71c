package docfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Paths(t *testing.T) {
	base := t.TempDir()
	l := NewLayout(NewPathResolver(base))

	raw, err := l.RawPath("u1", "d1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "u1", "raw", "d1"), raw)

	md, _ := l.MarkdownPath("u1", "d1")
	assert.Equal(t, filepath.Join(base, "u1", "md", "d1.md"), md)

	chunks, _ := l.ChunkDir("u1", "d1")
	assert.Equal(t, filepath.Join(base, "u1", "chunks", "d1"), chunks)

	meta, _ := l.MetaPath("u1", "d1")
	assert.Equal(t, filepath.Join(base, "u1", "meta", "d1.json"), meta)

	backup, _ := l.BackupDir("u1", "md", "d1")
	assert.Equal(t, filepath.Join(base, "u1", "backups", "md", "d1"), backup)

	_, err = l.RawPath("u1", "../escape")
	assert.Error(t, err)
	_, err = l.MetaPath("../u", "d1")
	assert.Error(t, err)
}

func TestLayout_RotateBackup(t *testing.T) {
	l := NewLayout(NewPathResolver(t.TempDir()))
	md, _ := l.MarkdownPath("u1", "d1")
	require.NoError(t, os.MkdirAll(filepath.Dir(md), 0755))

	now := time.Unix(1_700_000_000, 0)
	for i := 0; i < 4; i++ {
		require.NoError(t, os.WriteFile(md, []byte{byte('a' + i)}, 0644))
		require.NoError(t, l.RotateBackup("u1", "md", "d1", md, 2, now))
	}

	dir, _ := l.BackupDir("u1", "md", "d1")
	versions := ListBackups(dir, "d1.md")
	require.Len(t, versions, 2, "只保留最近 2 份")

	last, err := os.ReadFile(versions[1])
	require.NoError(t, err)
	assert.Equal(t, "d", string(last))
	first, err := os.ReadFile(versions[0])
	require.NoError(t, err)
	assert.Equal(t, "c", string(first))
}

func TestLayout_RotateBackupMissingSource(t *testing.T) {
	l := NewLayout(NewPathResolver(t.TempDir()))
	md, _ := l.MarkdownPath("u1", "d1")
	assert.NoError(t, l.RotateBackup("u1", "md", "d1", md, 3, time.Now()))

	dir, _ := l.BackupDir("u1", "md", "d1")
	assert.NoDirExists(t, dir)
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), make([]byte, 10), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 5), 0644))

	size, err := DirSize(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(15), size)

	size, err = DirSize(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "f.json")
	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, _ := os.ReadDir(filepath.Dir(path))
	assert.Len(t, entries, 1, "不残留临时文件")
}
