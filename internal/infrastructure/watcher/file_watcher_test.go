package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/docmind/backend/internal/domain/events"
	"github.com/docmind/backend/internal/infrastructure/docfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder 收集 topic.changed 事件
type recorder struct {
	mu     sync.Mutex
	events []events.TopicChangedEvent
}

func (r *recorder) handle(event events.Event) error {
	if e, ok := event.(*events.TopicChangedEvent); ok {
		r.mu.Lock()
		r.events = append(r.events, *e)
		r.mu.Unlock()
	}
	return nil
}

func (r *recorder) snapshot() []events.TopicChangedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.TopicChangedEvent(nil), r.events...)
}

func (r *recorder) count(userID, topicPath string, fullScan bool) int {
	n := 0
	for _, e := range r.snapshot() {
		if e.UserID == userID && e.TopicPath == topicPath && e.FullScan == fullScan {
			n++
		}
	}
	return n
}

func TestFileWatcher_ParseTopicPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "data", "topics")
	fw := &FileWatcher{config: WatchConfig{TopicsDir: root}}

	tests := []struct {
		name      string
		path      string
		wantUser  string
		wantTopic string
		wantOK    bool
	}{
		{"根主题下的文档", filepath.Join(root, "alice", "__id_x__.md"), "alice", "", true},
		{"嵌套主题下的文档", filepath.Join(root, "alice", "a", "b", "__id_x__.md"), "alice", "a/b", true},
		{"一级主题目录", filepath.Join(root, "alice", "a"), "alice", "", true},
		{"用户目录", filepath.Join(root, "alice"), "alice", "", true},
		{"根目录本身", root, "", "", false},
		{"树外路径", filepath.Join(string(filepath.Separator), "other", "x.md"), "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, topic, ok := fw.parseTopicPath(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantUser, user)
			assert.Equal(t, tt.wantTopic, topic)
		})
	}
}

// startWatcher 启动一个跳过全量扫描的监听器
func startWatcher(t *testing.T, topicsDir string, bus events.EventBus) *FileWatcher {
	t.Helper()
	metaPath := filepath.Join(t.TempDir(), "scan.json")
	NewScanMetadata(metaPath).SetLastScanTime(time.Now())

	fw, err := NewFileWatcher(WatchConfig{
		TopicsDir:         topicsDir,
		DebounceDelay:     100 * time.Millisecond,
		FullScanThreshold: time.Hour,
		ScanMetadataPath:  metaPath,
	}, bus)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	t.Cleanup(fw.Stop)

	// 等待监听就绪
	time.Sleep(50 * time.Millisecond)
	return fw
}

func TestFileWatcher_Debounce(t *testing.T) {
	topicsDir := t.TempDir()
	topicDir := filepath.Join(topicsDir, "alice", "a")
	require.NoError(t, os.MkdirAll(topicDir, 0755))

	bus := NewEventBus()
	defer bus.Close()
	rec := &recorder{}
	bus.Subscribe(events.TopicChanged, events.HandlerFunc(rec.handle))

	startWatcher(t, topicsDir, bus)

	docPath := filepath.Join(topicDir, docfs.DocumentFileName("d1"))
	require.NoError(t, os.WriteFile(docPath, []byte("initial"), 0644))
	for i := 0; i < 5; i++ {
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, os.WriteFile(docPath, []byte("update"), 0644))
	}

	assert.Eventually(t, func() bool {
		return rec.count("alice", "a", false) >= 1
	}, 2*time.Second, 20*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, rec.count("alice", "a", false), "同一主题的连续写入应被合并")
}

func TestFileWatcher_IgnoresNonDocumentFiles(t *testing.T) {
	topicsDir := t.TempDir()
	topicDir := filepath.Join(topicsDir, "alice")
	require.NoError(t, os.MkdirAll(topicDir, 0755))

	bus := NewEventBus()
	defer bus.Close()
	rec := &recorder{}
	bus.Subscribe(events.TopicChanged, events.HandlerFunc(rec.handle))

	startWatcher(t, topicsDir, bus)

	require.NoError(t, os.WriteFile(filepath.Join(topicDir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(topicDir, ".hidden.md"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(topicsDir, "index_cache.json"), []byte("{}"), 0644))

	time.Sleep(400 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestFileWatcher_NewDirectoryIsWatched(t *testing.T) {
	topicsDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(topicsDir, "alice"), 0755))

	bus := NewEventBus()
	defer bus.Close()
	rec := &recorder{}
	bus.Subscribe(events.TopicChanged, events.HandlerFunc(rec.handle))

	startWatcher(t, topicsDir, bus)

	newDir := filepath.Join(topicsDir, "alice", "fresh")
	require.NoError(t, os.MkdirAll(newDir, 0755))
	assert.Eventually(t, func() bool {
		return rec.count("alice", "", false) >= 1
	}, 2*time.Second, 20*time.Millisecond)

	// 新目录里写入的文档也能被感知
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(newDir, docfs.DocumentFileName("d2")), []byte("x"), 0644))
	assert.Eventually(t, func() bool {
		return rec.count("alice", "fresh", false) >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFileWatcher_FullScanOnStartup(t *testing.T) {
	topicsDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(topicsDir, "alice"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(topicsDir, "bob"), 0755))

	bus := NewEventBus()
	defer bus.Close()
	rec := &recorder{}
	bus.Subscribe(events.TopicChanged, events.HandlerFunc(rec.handle))

	metaPath := filepath.Join(t.TempDir(), "scan.json")
	fw, err := NewFileWatcher(WatchConfig{
		TopicsDir:         topicsDir,
		DebounceDelay:     50 * time.Millisecond,
		FullScanThreshold: time.Hour,
		ScanMetadataPath:  metaPath,
	}, bus)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	fw.Stop()
	fw.Stop()

	assert.Eventually(t, func() bool {
		return rec.count("alice", "", true) == 1 && rec.count("bob", "", true) == 1
	}, time.Second, 10*time.Millisecond)
	assert.False(t, NewScanMetadata(metaPath).GetLastScanTime().IsZero(), "扫描时间应被持久化")
}

func TestScanMetadata_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scan_metadata.json")

	sm := NewScanMetadata(path)
	assert.True(t, sm.GetLastScanTime().IsZero())

	testTime := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	sm.SetLastScanTime(testTime)

	loaded := NewScanMetadata(path).GetLastScanTime()
	assert.True(t, loaded.Equal(testTime), "loaded time should match saved time")
}

func TestScanMetadata_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan_metadata.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	assert.True(t, NewScanMetadata(path).GetLastScanTime().IsZero())
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeRefresher) RefreshIndex(userID string, force bool, specificPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID+":"+specificPath)
	return nil
}

func (f *fakeRefresher) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestSubscribeIndexRefresh(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()
	ref := &fakeRefresher{}
	unsubscribe := SubscribeIndexRefresh(bus, ref)

	bus.Publish(&events.TopicChangedEvent{UserID: "alice", TopicPath: "a/b", EventTime: time.Now()})
	bus.Publish(&events.TopicChangedEvent{UserID: "bob", TopicPath: "ignored", FullScan: true, EventTime: time.Now()})

	assert.Eventually(t, func() bool {
		return len(ref.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"alice:a/b", "bob:"}, ref.snapshot())

	unsubscribe()
	bus.Publish(&events.TopicChangedEvent{UserID: "carol", EventTime: time.Now()})
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, ref.snapshot(), 2)
}
