package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"netdash/internal/server/query"
	"netdash/internal/server/storage/clickhouse"
	"netdash/internal/server/tools"
)

type Server struct {
	httpServer *http.Server
	mcpServer  *mcpserver.MCPServer
	store      *clickhouse.Store
	transport  string
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8002"
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportHTTP
	}
	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return nil, fmt.Errorf("transport 非法：%s（只支持 stdio/http）", cfg.Transport)
	}
	if cfg.UIPath == "" {
		cfg.UIPath = "./ui/dist/health-dashboard.html"
	}

	// 连接池在这里显式创建并由 Server 持有，随 Shutdown 一起关闭，
	// 不走包级单例。
	store, err := clickhouse.NewStore(cfg.ClickHouse)
	if err != nil {
		return nil, err
	}

	queries := query.NewQueries(store)
	handlers := tools.NewHandlers(queries, cfg.UIPath)

	mcpServer := mcpserver.NewMCPServer("Netdash", "0.1.0",
		mcpserver.WithInstructions("Network health monitoring dashboard with interactive visualizations"),
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
	)
	handlers.Register(mcpServer)

	s := &Server{
		mcpServer: mcpServer,
		store:     store,
		transport: cfg.Transport,
	}

	if cfg.Transport == TransportHTTP {
		router := gin.New()
		router.Use(gin.Recovery())

		streamable := mcpserver.NewStreamableHTTPServer(mcpServer,
			mcpserver.WithEndpointPath("/mcp"))
		router.Any("/mcp", gin.WrapH(streamable))
		router.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		s.httpServer = &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return s, nil
}

// Run 阻塞运行：stdio 模式直接在标准输入输出上服务 MCP，
// http 模式由 gin 承载 /mcp 端点。
func (s *Server) Run() error {
	if s.transport == TransportStdio {
		return mcpserver.ServeStdio(s.mcpServer)
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		_ = s.httpServer.Shutdown(ctx)
	}
	return s.store.Close()
}
