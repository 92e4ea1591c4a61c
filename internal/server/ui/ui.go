package ui

import (
	"fmt"
	"os"
)

// ResourceURI 是仪表盘 HTML 在 MCP host 里的资源地址。
const ResourceURI = "ui://netdash/health-dashboard.html"

// Load 读取构建好的仪表盘 HTML；文件不存在不算错误，退回一个说明页，
// 告诉使用者资产缺失以及如何构建。
func Load(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return fallbackHTML(path)
	}
	return string(b)
}

func fallbackHTML(path string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Dashboard Not Built</title></head>
<body>
<h1>Dashboard UI Not Found</h1>
<p>The dashboard HTML file was not found at: %s</p>
<p>Please run <code>npm run build:ui</code> to build the UI.</p>
</body>
</html>`, path)
}
