package singleton

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLockFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	release, err := WriteLockFile(dir, ":19970")
	require.NoError(t, err)

	info, err := ReadLockFile(dir)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), info.PID)
	assert.Equal(t, ":19970", info.Addr)

	release()
	assert.NoFileExists(t, filepath.Join(dir, LockFileName))
}

func TestWriteLockFile_ReleaseKeepsForeignLock(t *testing.T) {
	dir := t.TempDir()

	release, err := WriteLockFile(dir, ":1")
	require.NoError(t, err)

	// 另一个进程接管了锁文件
	path := filepath.Join(dir, LockFileName)
	require.NoError(t, os.WriteFile(path, []byte("999999\n:2\n"), 0644))

	release()
	assert.FileExists(t, path)
}

func TestReadLockFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, LockFileName), []byte("not-a-pid"), 0644))

	_, err := ReadLockFile(dir)
	assert.Error(t, err)

	_, err = ReadLockFile(t.TempDir())
	assert.True(t, os.IsNotExist(err))
}
