package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"log/slog"

	"github.com/docmind/backend/internal/infrastructure/config"
	"github.com/docmind/backend/internal/infrastructure/log"
	"github.com/docmind/backend/internal/infrastructure/singleton"
	"github.com/docmind/backend/internal/infrastructure/websocket"
	"github.com/docmind/backend/internal/interfaces/http/handler"
	"github.com/docmind/backend/internal/interfaces/http/middleware"
	"github.com/docmind/backend/internal/interfaces/http/response"
	"github.com/docmind/backend/internal/interfaces/mcp"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/docmind/backend/docs" // Swagger docs
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	cfg *config.ServerConfig,
	documentHandler *handler.DocumentHandler,
	topicHandler *handler.TopicHandler,
	pipelineHandler *handler.PipelineHandler,
	hub *websocket.Hub,
	mcpServer *mcp.MCPServer,
) *HTTPServer {
	logger := log.NewModuleLogger("http", "server")

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.EnsureUTF8Body())

	api := router.Group("/api/v1")
	{
		user := api.Group("/users/:user_id")

		// 文档相关路由
		docs := user.Group("/documents")
		{
			docs.POST("", documentHandler.Upload)
			docs.POST("/remote", documentHandler.CreateRemote)
			docs.POST("/bookmark", documentHandler.CreateBookmark)
			docs.POST("/chat", documentHandler.CreateChat)
			docs.GET("", documentHandler.List)
			docs.GET("/stats", documentHandler.Stats)
			docs.GET("/search", documentHandler.Search)
			docs.POST("/rebuild-catalog", documentHandler.RebuildCatalog)

			doc := docs.Group("/:document_id")
			doc.GET("", documentHandler.Get)
			doc.DELETE("", documentHandler.Delete)
			doc.GET("/history", documentHandler.History)
			doc.GET("/markdown", documentHandler.GetMarkdown)
			doc.POST("/markdown", documentHandler.SaveMarkdown)
			doc.GET("/chunks", documentHandler.GetChunks)
			doc.PUT("/chunks", documentHandler.SaveChunks)
			doc.POST("/chunks/auto", documentHandler.ChunkMarkdown)
			doc.GET("/qa-pairs", documentHandler.GetQAPairs)
			doc.PUT("/qa-pairs", documentHandler.SaveQAPairs)
			doc.POST("/qa-pairs/extract", documentHandler.ExtractQAPairs)
			doc.POST("/index", documentHandler.CreateIndex)
			doc.POST("/advance", documentHandler.Advance)

			// 流水线任务
			doc.POST("/submit", pipelineHandler.Submit)
			doc.GET("/task", pipelineHandler.GetTask)
		}

		// 主题树相关路由
		topics := user.Group("/topics")
		{
			topics.GET("", topicHandler.List)
			topics.POST("", topicHandler.Create)
			topics.DELETE("", topicHandler.Delete)
			topics.POST("/rename", topicHandler.Rename)
			topics.POST("/move", topicHandler.Move)
			topics.POST("/copy", topicHandler.Copy)
			topics.POST("/merge", topicHandler.Merge)
			topics.POST("/repair", topicHandler.Repair)
		}

		notes := user.Group("/notes")
		{
			notes.POST("", topicHandler.CreateDocument)
			notes.GET("/:document_id", topicHandler.ReadDocument)
			notes.PATCH("/:document_id", topicHandler.UpdateDocument)
			notes.DELETE("/:document_id", topicHandler.DeleteDocument)
			notes.POST("/:document_id/move", topicHandler.MoveDocument)
		}

		api.GET("/pipeline/stats", pipelineHandler.Stats)
		api.POST("/pipeline/retry-failed", pipelineHandler.RetryFailed)

		// 文档事件推送
		if hub != nil {
			api.GET("/ws", func(c *gin.Context) {
				userID := c.Query("user_id")
				if userID == "" {
					response.Error(c, http.StatusBadRequest, 100001, "user_id is required")
					return
				}
				hub.ServeWS(c.Writer, c.Request, userID)
			})
		}
	}

	// 健康检查，同时用于单实例探测
	router.GET(singleton.HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, singleton.HealthStatus{Status: "ok", Service: singleton.ServiceName})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// MCP SSE 端点
	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return &HTTPServer{
		router:   router,
		httpPort: cfg.HTTPPort,
		server: &http.Server{
			Addr:              cfg.HTTPPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler 返回路由，测试中直接挂到 httptest
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Addr 配置的监听地址
func (s *HTTPServer) Addr() string {
	return s.httpPort
}

// Start 自行监听端口启动服务器
func (s *HTTPServer) Start() error {
	listener, err := net.Listen("tcp", s.httpPort)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve 在已占用的监听器上提供服务
// 单实例锁获得的监听器直接交给这里，避免释放端口后再次监听的竞争
func (s *HTTPServer) Serve(listener net.Listener) error {
	s.logger.Info("HTTP server starting",
		"addr", listener.Addr().String(),
	)

	err := s.server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
