package wire

import (
	"context"
	"net"
	"sync"
	"time"

	"log/slog"

	appPipeline "github.com/docmind/backend/internal/application/pipeline"
	"github.com/docmind/backend/internal/domain/events"
	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/docmind/backend/internal/infrastructure/index"
	applog "github.com/docmind/backend/internal/infrastructure/log"
	"github.com/docmind/backend/internal/infrastructure/watcher"
	"github.com/docmind/backend/internal/infrastructure/websocket"
	"github.com/docmind/backend/internal/interfaces"
)

// shutdownTimeout HTTP 服务器优雅关闭的最长等待时间
const shutdownTimeout = 10 * time.Second

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *interfaces.HTTPServer
	MCPServer  *interfaces.MCPServer
	wsHub      *websocket.Hub
	pipeline   *appPipeline.Service
	docIndex   *index.DocumentIndex
	cfg        *config.Config
	logger     *slog.Logger

	// 文件监听相关
	eventBus    events.EventBus
	fileWatcher *watcher.FileWatcher

	cancel       context.CancelFunc
	wg           sync.WaitGroup
	unsubscribes []func()
}

// NewApp 创建应用实例
func NewApp(
	cfg *config.Config,
	httpServer *interfaces.HTTPServer,
	mcpServer *interfaces.MCPServer,
	wsHub *websocket.Hub,
	pipeline *appPipeline.Service,
	docIndex *index.DocumentIndex,
	fileWatcher *watcher.FileWatcher,
	eventBus events.EventBus,
) *App {
	return &App{
		HTTPServer:  httpServer,
		MCPServer:   mcpServer,
		wsHub:       wsHub,
		pipeline:    pipeline,
		docIndex:    docIndex,
		cfg:         cfg,
		logger:      applog.NewModuleLogger("app", "main"),
		eventBus:    eventBus,
		fileWatcher: fileWatcher,
	}
}

// Start 启动所有服务，HTTP 服务器在单实例锁占用的监听器上运行
func (a *App) Start(listener net.Listener) error {
	a.logger.Info("starting docmind backend")

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	// 恢复路径索引快照并定期保存
	if err := a.docIndex.LoadCache(); err != nil {
		a.logger.Warn("failed to load index cache, starting cold", "error", err)
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.docIndex.Run(ctx, a.cfg.Index.SaveInterval)
	}()

	// 注册事件订阅者并启动文件监听
	a.setupEventSubscribers()
	if a.cfg.Watcher.Enabled && a.fileWatcher != nil {
		if err := a.fileWatcher.Start(); err != nil {
			a.logger.Error("failed to start file watcher", "error", err)
		} else {
			a.logger.Info("file watcher started")
		}
	}

	// 启动 WebSocket Hub
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.wsHub.Run(ctx)
	}()

	// 启动后台流水线
	a.pipeline.StartWorkers(ctx)

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Serve(listener); err != nil {
			a.logger.Error("HTTP server stopped with error", "error", err)
		}
	}()

	// MCP 服务器通过 HTTP Handler 提供服务，已在 /mcp/sse 注册
	a.logger.Info("docmind backend started", "addr", listener.Addr().String())
	return nil
}

// setupEventSubscribers 注册事件订阅者
func (a *App) setupEventSubscribers() {
	if a.eventBus == nil {
		return
	}

	a.unsubscribes = append(a.unsubscribes,
		watcher.SubscribeIndexRefresh(a.eventBus, a.docIndex),
		a.wsHub.SubscribeDocumentEvents(a.eventBus),
		a.pipeline.Subscribe(a.eventBus),
	)
	a.logger.Info("event subscribers registered", "count", len(a.unsubscribes))
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("stopping docmind backend")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := a.HTTPServer.Shutdown(ctx)
	if err != nil {
		a.logger.Error("HTTP server shutdown failed", "error", err)
	}

	a.pipeline.StopWorkers()

	if a.fileWatcher != nil {
		a.fileWatcher.Stop()
	}

	for _, unsubscribe := range a.unsubscribes {
		unsubscribe()
	}
	a.unsubscribes = nil

	// 结束 Hub 与索引快照循环，后者退出前做最后一次保存
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if a.eventBus != nil {
		a.eventBus.Close()
		a.logger.Info("event bus closed")
	}

	a.logger.Info("docmind backend stopped")
	return err
}
