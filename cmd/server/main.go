// @title docmind API
// @version 1.0
// @description docmind 文档管理服务 API
// @host localhost:19970
// @BasePath /api/v1
// @schemes http
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/docmind/backend/internal/infrastructure/config"
	applog "github.com/docmind/backend/internal/infrastructure/log"
	"github.com/docmind/backend/internal/infrastructure/singleton"
	"github.com/docmind/backend/internal/wire"
)

func main() {
	configPath := flag.String("config", os.Getenv("DOCMIND_CONFIG"), "YAML 配置文件路径")
	flag.Parse()

	// 初始化日志系统
	applog.Init(nil)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 单例锁检查：占用端口，监听器直接交给 HTTP 服务器
	listener, err := singleton.Acquire(cfg.Server.HTTPPort)
	if errors.Is(err, singleton.ErrAlreadyRunning) {
		log.Println("检测到已有实例在运行，当前进程退出")
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("单例锁检查失败: %v", err)
	}

	release, err := singleton.WriteLockFile(config.GetDataDir(), listener.Addr().String())
	if err != nil {
		applog.GetLogger().Warn("failed to write lock file", "error", err)
		release = func() {}
	}
	defer release()

	// Wire 生成的初始化函数
	app, cleanup, err := wire.InitializeAll(cfg)
	if err != nil {
		applog.GetLogger().Error("Failed to initialize application",
			"error", err,
		)
		_ = listener.Close()
		release()
		os.Exit(1)
	}
	defer cleanup()

	// 启动所有服务
	if err := app.Start(listener); err != nil {
		applog.GetLogger().Error("Failed to start application",
			"error", err,
		)
		cleanup()
		release()
		os.Exit(1)
	}

	// 优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	applog.GetLogger().Info("Shutting down application...")
	if err := app.Stop(); err != nil {
		applog.GetLogger().Error("Error during application shutdown",
			"error", err,
		)
	}
	applog.GetLogger().Info("Application stopped")
}
