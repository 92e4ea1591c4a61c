package main

import (
	"flag"
	"log"
	"os"

	"netdash/internal/client/app"
)

func main() {
	var cfg app.Config
	flag.StringVar(&cfg.Server, "server", "http://127.0.0.1:8002/mcp", "Server 的 MCP 端点")
	flag.IntVar(&cfg.Hours, "hours", 24, "时间窗口（小时，1-168）")
	flag.StringVar(&cfg.SensorIP, "sensor-ip", "", "按探针 IP 过滤")
	flag.StringVar(&cfg.SensorName, "sensor-name", "", "按探针名称过滤")
	flag.StringVar(&cfg.App, "app", "", "查看指定应用的详情")
	flag.Parse()

	if cfg.Server == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := app.Run(cfg); err != nil {
		log.Printf("client 失败：%v", err)
		os.Exit(1)
	}
}
