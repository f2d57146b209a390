package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wats-sdk/internal/api"
	"wats-sdk/internal/config"
	"wats-sdk/internal/event"
	"wats-sdk/internal/handlers"
	"wats-sdk/internal/queue"
	"wats-sdk/internal/rules"
	"wats-sdk/internal/transport"
	"wats-sdk/internal/uploader"
	"wats-sdk/internal/web"
)

// main 是上传服务的入口
func main() {
	// 1. 初始化核心组件
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// .env 可选，存在时用于注入 WATS_TOKEN 等变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("加载 .env 失败", "error", err)
	}

	cfg, err := config.LoadConfig(os.Getenv("WATS_CONFIG"))
	if err != nil {
		logger.Error("加载配置失败", "error", err)
		os.Exit(1)
	}
	rule, err := rules.Compile(cfg.SubmitRule)
	if err != nil {
		logger.Error("提交规则无效", "error", err, "rule", cfg.SubmitRule)
		os.Exit(1)
	}

	wal, err := queue.Open(cfg.QueuePath)
	if err != nil {
		logger.Error("无法初始化 WAL", "error", err, "path", cfg.QueuePath)
		os.Exit(1)
	}
	defer wal.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := web.NewHub(logger)
	go hub.Run(ctx)
	stateTracker := web.NewStateTracker(hub)

	eventBus := event.NewBus()

	// 2. 注册事件处理器
	handlers.RegisterEventHandlers(eventBus, logger)

	// 3. 初始化客户端和上传器
	client := api.New(transport.New(cfg.ServerURL, cfg.Token, cfg.Timeout(), logger), logger)
	up := uploader.New(client.Reports, uploader.Options{
		MaxWorkers: cfg.MaxWorkers,
		Rule:       rule,
		WAL:        wal,
		Bus:        eventBus,
		State:      stateTracker,
		Logger:     logger,
	})

	// 4. 恢复和启动
	if n, err := up.RecoverPending(); err != nil {
		logger.Warn("从 WAL 恢复报告失败", "error", err)
	} else if n > 0 {
		logger.Info("已恢复未上传的报告", "count", n)
	}

	logger.Info("=== WATS 报告上传服务启动 ===", "server", cfg.ServerURL, "workers", cfg.MaxWorkers)

	go up.Start(ctx)
	if interval := cfg.RetryInterval(); interval > 0 {
		go retryFailed(ctx, up, interval)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           web.NewMux(up, stateTracker, hub, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("API 服务器启动", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("API 服务器启动失败", "error", err)
			stop()
		}
	}()

	// 5. 优雅停机
	<-ctx.Done()
	logger.Info("接收到停机信号，正在优雅关闭...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("关闭 API 服务器失败", "error", err)
	}
	up.WaitForCompletion()
	eventBus.Wait()
	logger.Info("上传服务已安全退出", "pending", up.Len()+up.Failed())
}

// retryFailed 定期把提交失败的报告重新入队
func retryFailed(ctx context.Context, up *uploader.Uploader, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			up.Requeue()
		}
	}
}
