// Package pipeline 后台处理流水线：从任务队列取出文档并推进到 embedded
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainDoc "github.com/docmind/backend/internal/domain/document"
	"github.com/docmind/backend/internal/domain/events"
	"github.com/docmind/backend/internal/infrastructure/log"
)

// Advancer 推进单个文档
type Advancer interface {
	AdvanceDocument(ctx context.Context, userID, documentID string) (*domainDoc.Document, error)
	DocumentExists(userID, documentID string) bool
}

// 进入这些状态的文档在开启自动提交时入队
var entryStates = map[string]bool{
	string(domainDoc.StateUploaded):   true,
	string(domainDoc.StateBookmarked): true,
	string(domainDoc.StateSavedChat):  true,
}

// Service 流水线服务
type Service struct {
	queue      domainDoc.TaskQueueRepository
	advancer   Advancer
	autoSubmit bool
	now        func() time.Time
	logger     *slog.Logger

	// Worker 控制
	workerCount  int
	pollInterval time.Duration
	batchSize    int
	wake         chan struct{}
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	isRunning    bool
	mu           sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]struct{}
}

// Option 可选配置
type Option func(*Service)

// WithWorkers 设置 Worker 数量与轮询参数
func WithWorkers(count int, pollInterval time.Duration, batchSize int) Option {
	return func(s *Service) {
		s.SetWorkerCount(count)
		s.SetPollInterval(pollInterval)
		if batchSize > 0 {
			s.batchSize = batchSize
		}
	}
}

// WithAutoSubmit 文档进入入口状态时自动入队
func WithAutoSubmit(enabled bool) Option {
	return func(s *Service) {
		s.autoSubmit = enabled
	}
}

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService 创建流水线服务
func NewService(queue domainDoc.TaskQueueRepository, advancer Advancer, opts ...Option) *Service {
	s := &Service{
		queue:        queue,
		advancer:     advancer,
		now:          time.Now,
		logger:       log.NewModuleLogger("pipeline", "service"),
		workerCount:  2,
		pollInterval: 5 * time.Second,
		batchSize:    10,
		wake:         make(chan struct{}, 1),
		inflight:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit 把文档加入处理队列
// 正在处理的任务保持不变；其余情况以新的待处理任务覆盖旧记录
func (s *Service) Submit(userID, documentID string) (*domainDoc.ProcessingTask, error) {
	if !s.advancer.DocumentExists(userID, documentID) {
		return nil, domainDoc.NewError(domainDoc.KindNotFound, "submit", "document %s not found", documentID)
	}

	existing, err := s.queue.GetTask(userID, documentID)
	if err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindIO, "submit", err, "read task")
	}
	if existing != nil && existing.Status == domainDoc.TaskStatusProcessing {
		return existing, nil
	}

	task := domainDoc.NewProcessingTask(userID, documentID)
	task.CreatedAt = s.now().Unix()
	if err := s.queue.EnqueueTask(task); err != nil {
		return nil, domainDoc.WrapError(domainDoc.KindIO, "submit", err, "enqueue task")
	}
	s.logger.Info("document submitted", "user_id", userID, "document_id", documentID)
	s.notify()
	return task, nil
}

// GetTask 查询文档的任务，不存在时返回 nil
func (s *Service) GetTask(userID, documentID string) (*domainDoc.ProcessingTask, error) {
	return s.queue.GetTask(userID, documentID)
}

// GetQueueStats 获取队列统计
func (s *Service) GetQueueStats() (*domainDoc.QueueStats, error) {
	return s.queue.GetQueueStats()
}

// RetryFailed 重置失败的任务
func (s *Service) RetryFailed() (int, error) {
	count, err := s.queue.ResetFailedTasks()
	if err != nil {
		return 0, err
	}
	s.logger.Info("reset failed tasks", "count", count)
	if count > 0 {
		s.notify()
	}
	return count, nil
}

// Subscribe 订阅文档事件：删除时清理任务，开启自动提交时入队新文档
func (s *Service) Subscribe(bus events.EventBus) func() {
	return bus.SubscribeMultiple(
		[]events.EventType{events.DocumentStateChanged, events.DocumentDeleted},
		events.HandlerFunc(s.handleEvent),
	)
}

func (s *Service) handleEvent(event events.Event) error {
	switch e := event.(type) {
	case *events.DocumentDeletedEvent:
		return s.queue.DeleteTask(e.UserID, e.DocumentID)
	case *events.DocumentStateChangedEvent:
		if !s.autoSubmit || !entryStates[e.ToState] {
			return nil
		}
		_, err := s.Submit(e.UserID, e.DocumentID)
		return err
	}
	return nil
}

// StartWorkers 启动后台 Worker
func (s *Service) StartWorkers(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("pipeline workers started", "count", s.workerCount)
}

// StopWorkers 停止后台 Worker，等待处理中的任务结束
func (s *Service) StopWorkers() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("pipeline workers stopped")
}

// IsRunning 检查 Worker 是否运行中
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// SetWorkerCount 设置 Worker 数量（需要重启生效）
func (s *Service) SetWorkerCount(count int) {
	if count < 1 {
		count = 1
	}
	if count > 10 {
		count = 10
	}
	s.workerCount = count
}

// SetPollInterval 设置轮询间隔
func (s *Service) SetPollInterval(interval time.Duration) {
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	s.pollInterval = interval
}

func (s *Service) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Service) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	s.logger.Debug("pipeline worker started", "worker_id", id)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("pipeline worker stopping", "worker_id", id)
			return
		case <-ticker.C:
		case <-s.wake:
		}
		s.ProcessPending(ctx)
	}
}

// ProcessPending 处理一批到期任务，返回实际处理的数量
func (s *Service) ProcessPending(ctx context.Context) int {
	tasks, err := s.queue.DequeueTasks(s.batchSize)
	if err != nil {
		s.logger.Error("failed to dequeue tasks", "error", err)
		return 0
	}

	processed := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			return processed
		}
		if !task.ShouldProcess(s.now()) {
			continue
		}
		if s.processTask(ctx, task) {
			processed++
		}
	}
	return processed
}

func taskKey(userID, documentID string) string {
	return userID + "\x00" + documentID
}

// claim 同一任务同时只由一个 Worker 处理
func (s *Service) claim(task *domainDoc.ProcessingTask) (func(), bool) {
	key := taskKey(task.UserID, task.DocumentID)
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return nil, false
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.inflightMu.Lock()
		delete(s.inflight, key)
		s.inflightMu.Unlock()
	}, true
}

// processTask 推进单个文档并记录结果
func (s *Service) processTask(ctx context.Context, task *domainDoc.ProcessingTask) bool {
	release, ok := s.claim(task)
	if !ok {
		return false
	}
	defer release()

	logger := log.FromContext(log.WithDocument(ctx, task.UserID, task.DocumentID), s.logger)

	// 出队快照可能已过期：其他 Worker 刚处理完或任务已被删除
	current, err := s.queue.GetTask(task.UserID, task.DocumentID)
	if err != nil {
		logger.Error("failed to reload task", "error", err)
		return false
	}
	if current == nil || !current.ShouldProcess(s.now()) {
		return false
	}
	task = current

	task.MarkProcessing()
	if err := s.queue.UpdateTask(task); err != nil {
		logger.Error("failed to mark task processing", "error", err)
		return false
	}

	doc, err := s.advancer.AdvanceDocument(ctx, task.UserID, task.DocumentID)
	switch {
	case err == nil:
		task.MarkCompleted()
		logger.Info("document processed", "state", doc.State)
	case domainDoc.KindOf(err) == domainDoc.KindNotFound:
		logger.Info("document gone, dropping task")
		if derr := s.queue.DeleteTask(task.UserID, task.DocumentID); derr != nil {
			logger.Warn("failed to delete task", "error", derr)
		}
		return true
	case ctx.Err() != nil:
		// 只有 Worker 自身的 ctx 结束才算停机打断，不计入重试次数；
		// 阶段内部超时照常走失败重试
		task.Status = domainDoc.TaskStatusPending
		logger.Info("document processing interrupted")
	default:
		task.MarkFailed(err.Error(), s.now())
		logger.Warn("document processing failed",
			"retry_count", task.RetryCount,
			"status", task.Status,
			"error", err,
		)
	}

	if err := s.queue.UpdateTask(task); err != nil {
		logger.Error("failed to update task", "error", err)
	}
	return true
}
