package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netdash/internal/server/app"
)

func main() {
	var cfg app.Config
	flag.StringVar(&cfg.ListenAddr, "listen", ":8002", "HTTP 监听地址（transport=http 时生效）")
	flag.StringVar(&cfg.Transport, "transport", "http", "传输方式：stdio 或 http")
	flag.StringVar(&cfg.UIPath, "ui", "./ui/dist/health-dashboard.html", "仪表盘 HTML 路径")
	flag.StringVar(&cfg.ClickHouse.Addr, "ch-addr", "127.0.0.1:9000", "ClickHouse 地址")
	flag.StringVar(&cfg.ClickHouse.Database, "ch-db", "omnis", "ClickHouse 数据库")
	flag.StringVar(&cfg.ClickHouse.Username, "ch-user", "default", "ClickHouse 用户名")
	flag.Parse()

	// 密码不走命令行，避免出现在进程列表里。
	cfg.ClickHouse.Password = os.Getenv("NETDASH_CH_PASSWORD")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := app.NewServer(cfg)
	if err != nil {
		log.Fatalf("server 初始化失败：%v", err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if cfg.Transport == app.TransportHTTP {
		log.Printf("server 监听：%s（MCP 端点 /mcp）", cfg.ListenAddr)
	}
	if err := srv.Run(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server 运行失败：%v", err)
	}
}
