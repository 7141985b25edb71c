package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/domain/events"
	"github.com/docmind/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "u1"

type fakeAdvancer struct {
	mu        sync.Mutex
	exists    map[string]bool
	err       error
	calls     int
	onAdvance func() // 返回前调用，模拟推进过程中停机
}

func newFakeAdvancer(ids ...string) *fakeAdvancer {
	f := &fakeAdvancer{exists: make(map[string]bool)}
	for _, id := range ids {
		f.exists[id] = true
	}
	return f
}

func (f *fakeAdvancer) AdvanceDocument(_ context.Context, _, documentID string) (*domainDoc.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.onAdvance != nil {
		f.onAdvance()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domainDoc.Document{DocumentID: documentID, State: domainDoc.StateEmbedded}, nil
}

func (f *fakeAdvancer) DocumentExists(_, documentID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists[documentID]
}

func (f *fakeAdvancer) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeAdvancer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestQueue(t *testing.T) domainDoc.TaskQueueRepository {
	t.Helper()
	db, err := storage.OpenDB(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewTaskQueueRepository(db)
}

func TestSubmit(t *testing.T) {
	queue := newTestQueue(t)
	svc := NewService(queue, newFakeAdvancer("d1"))

	_, err := svc.Submit(testUser, "missing")
	assert.ErrorIs(t, err, domainDoc.ErrNotFound)

	task, err := svc.Submit(testUser, "d1")
	require.NoError(t, err)
	assert.Equal(t, domainDoc.TaskStatusPending, task.Status)

	stats, err := svc.GetQueueStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PendingCount)

	t.Run("处理中的任务保持不变", func(t *testing.T) {
		task.MarkProcessing()
		require.NoError(t, queue.UpdateTask(task))

		got, err := svc.Submit(testUser, "d1")
		require.NoError(t, err)
		assert.Equal(t, domainDoc.TaskStatusProcessing, got.Status)
	})
}

func TestProcessPending_Completes(t *testing.T) {
	advancer := newFakeAdvancer("d1", "d2")
	svc := NewService(newTestQueue(t), advancer)

	_, err := svc.Submit(testUser, "d1")
	require.NoError(t, err)
	_, err = svc.Submit(testUser, "d2")
	require.NoError(t, err)

	assert.Equal(t, 2, svc.ProcessPending(context.Background()))
	assert.Equal(t, 2, advancer.callCount())

	task, err := svc.GetTask(testUser, "d1")
	require.NoError(t, err)
	assert.Equal(t, domainDoc.TaskStatusCompleted, task.Status)

	assert.Equal(t, 0, svc.ProcessPending(context.Background()), "已完成的任务不再出队")
}

func TestProcessPending_FailureBacksOff(t *testing.T) {
	advancer := newFakeAdvancer("d1")
	advancer.setErr(domainDoc.NewError(domainDoc.KindStageFailed, "save_markdown", "converter down"))
	svc := NewService(newTestQueue(t), advancer)

	_, err := svc.Submit(testUser, "d1")
	require.NoError(t, err)

	before := time.Now()
	assert.Equal(t, 1, svc.ProcessPending(context.Background()))

	task, err := svc.GetTask(testUser, "d1")
	require.NoError(t, err)
	assert.Equal(t, domainDoc.TaskStatusPending, task.Status)
	assert.Equal(t, 1, task.RetryCount)
	assert.Contains(t, task.LastError, "converter down")
	assert.GreaterOrEqual(t, task.NextRetryAt, before.Add(time.Minute).Unix())

	assert.Equal(t, 0, svc.ProcessPending(context.Background()), "退避期间不会重试")

	t.Run("重置失败任务", func(t *testing.T) {
		task.Status = domainDoc.TaskStatusFailed
		require.NoError(t, svc.queue.UpdateTask(task))

		count, err := svc.RetryFailed()
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		advancer.setErr(nil)
		assert.Equal(t, 1, svc.ProcessPending(context.Background()))
		task, err := svc.GetTask(testUser, "d1")
		require.NoError(t, err)
		assert.Equal(t, domainDoc.TaskStatusCompleted, task.Status)
		assert.Equal(t, 0, task.RetryCount)
	})
}

func TestProcessPending_DropsMissingDocument(t *testing.T) {
	advancer := newFakeAdvancer("d1")
	svc := NewService(newTestQueue(t), advancer)
	_, err := svc.Submit(testUser, "d1")
	require.NoError(t, err)

	advancer.setErr(domainDoc.NewError(domainDoc.KindNotFound, "advance_document", "gone"))
	assert.Equal(t, 1, svc.ProcessPending(context.Background()))

	task, err := svc.GetTask(testUser, "d1")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestProcessPending_InterruptedKeepsRetryBudget(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	advancer := newFakeAdvancer("d1")
	advancer.onAdvance = cancel
	advancer.setErr(context.Canceled)
	svc := NewService(newTestQueue(t), advancer)
	_, err := svc.Submit(testUser, "d1")
	require.NoError(t, err)

	assert.Equal(t, 1, svc.ProcessPending(ctx))
	task, err := svc.GetTask(testUser, "d1")
	require.NoError(t, err)
	assert.Equal(t, domainDoc.TaskStatusPending, task.Status)
	assert.Equal(t, 0, task.RetryCount)
}

func TestProcessPending_StageTimeoutConsumesRetry(t *testing.T) {
	advancer := newFakeAdvancer("d1")
	advancer.setErr(domainDoc.WrapError(domainDoc.KindStageFailed, "save_markdown",
		context.DeadlineExceeded, "converter timed out"))
	svc := NewService(newTestQueue(t), advancer)
	_, err := svc.Submit(testUser, "d1")
	require.NoError(t, err)

	before := time.Now()
	assert.Equal(t, 1, svc.ProcessPending(context.Background()))

	task, err := svc.GetTask(testUser, "d1")
	require.NoError(t, err)
	assert.Equal(t, 1, task.RetryCount)
	assert.Contains(t, task.LastError, "converter timed out")
	assert.GreaterOrEqual(t, task.NextRetryAt, before.Add(time.Minute).Unix())

	for i := 0; i < 5; i++ {
		svc.ProcessPending(context.Background())
	}
	assert.Equal(t, 1, advancer.callCount(), "退避期间不会重试")
}

func TestHandleEvent(t *testing.T) {
	tests := []struct {
		name       string
		autoSubmit bool
		toState    domainDoc.State
		wantTask   bool
	}{
		{"上传后自动入队", true, domainDoc.StateUploaded, true},
		{"聊天保存后自动入队", true, domainDoc.StateSavedChat, true},
		{"中间状态不入队", true, domainDoc.StateChunked, false},
		{"未开启自动提交", false, domainDoc.StateUploaded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newTestQueue(t), newFakeAdvancer("d1"), WithAutoSubmit(tt.autoSubmit))
			err := svc.handleEvent(&events.DocumentStateChangedEvent{
				UserID:     testUser,
				DocumentID: "d1",
				ToState:    string(tt.toState),
				EventTime:  time.Now(),
			})
			require.NoError(t, err)

			task, err := svc.GetTask(testUser, "d1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantTask, task != nil)
		})
	}

	t.Run("删除文档时清理任务", func(t *testing.T) {
		svc := NewService(newTestQueue(t), newFakeAdvancer("d1"))
		_, err := svc.Submit(testUser, "d1")
		require.NoError(t, err)

		require.NoError(t, svc.handleEvent(&events.DocumentDeletedEvent{UserID: testUser, DocumentID: "d1", Complete: true}))
		task, err := svc.GetTask(testUser, "d1")
		require.NoError(t, err)
		assert.Nil(t, task)
	})
}

func TestWorkers(t *testing.T) {
	advancer := newFakeAdvancer("d1")
	svc := NewService(newTestQueue(t), advancer, WithWorkers(2, time.Hour, 5))

	svc.StartWorkers(context.Background())
	assert.True(t, svc.IsRunning())
	defer svc.StopWorkers()

	_, err := svc.Submit(testUser, "d1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		task, err := svc.GetTask(testUser, "d1")
		return err == nil && task != nil && task.Status == domainDoc.TaskStatusCompleted
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, advancer.callCount())

	svc.StopWorkers()
	assert.False(t, svc.IsRunning())
}

func TestClaim_SingleOwner(t *testing.T) {
	svc := NewService(newTestQueue(t), newFakeAdvancer())
	task := domainDoc.NewProcessingTask(testUser, "d1")

	release, ok := svc.claim(task)
	require.True(t, ok)
	_, ok = svc.claim(task)
	assert.False(t, ok)

	release()
	_, ok = svc.claim(task)
	assert.True(t, ok)
}
