package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hoverarena/server"
)

// 入口：启动 HTTP + WebSocket 服务；游戏状态在首个 START_GAME 时才创建
func main() {
	var (
		addr             string
		logFile          string
		logLevel         string
		tickRate         int
		keepalive        time.Duration
		keepaliveTimeout time.Duration
	)
	flag.StringVar(&addr, "addr", ":3000", "server listen address, e.g. :3000")
	flag.StringVar(&logFile, "log", "app.log", "log file path; empty logs to stderr")
	flag.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	flag.IntVar(&tickRate, "tick-rate", 20, "simulation ticks per second")
	flag.DurationVar(&keepalive, "keepalive", time.Second, "interval between PING broadcasts")
	flag.DurationVar(&keepaliveTimeout, "keepalive-timeout", 0, "close connections silent for this long; 0 disables")
	flag.Parse()

	// zap 日志写入文件（lumberjack 滚动）
	if err := server.InitLogger(logFile, logLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	cfg := server.DefaultConfig()
	cfg.TickRate = tickRate
	cfg.KeepaliveInterval = keepalive
	cfg.KeepaliveTimeout = keepaliveTimeout
	gs := server.New(cfg, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gs.HandleWS)
	mux.Handle("/", http.FileServer(http.Dir("public")))
	mux.HandleFunc("/admin/config", gs.HandleAdminConfig)
	mux.HandleFunc("/metrics", gs.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		server.Log.Infof("listening on %s; game server will initialize when a player starts a game", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）：先注销所有连接，再关闭 HTTP
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := gs.Shutdown(ctx); err != nil {
		server.Log.Warnf("game server shutdown: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		server.Log.Warnf("http shutdown: %v", err)
	}
}
