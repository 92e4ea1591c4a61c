package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	Server     string
	Hours      int
	SensorIP   string
	SensorName string
	App        string
}

// 客户端只消费工具返回的 camelCase JSON，这里按需要的字段局部定义，
// 不引用 server 侧的内部类型。

type dashboardData struct {
	HealthOverview struct {
		TotalTransactions int64   `json:"totalTransactions"`
		ErrorRate         float64 `json:"errorRate"`
		AvgLatencyMs      float64 `json:"avgLatencyMs"`
		P95LatencyMs      float64 `json:"p95LatencyMs"`
		UniqueClients     int64   `json:"uniqueClients"`
		UniqueServers     int64   `json:"uniqueServers"`
		Applications      []struct {
			ApplicationName   string  `json:"applicationName"`
			TotalTransactions int64   `json:"totalTransactions"`
			ErrorCount        int64   `json:"errorCount"`
			AvgLatencyMs      float64 `json:"avgLatencyMs"`
			P95LatencyMs      float64 `json:"p95LatencyMs"`
		} `json:"applications"`
	} `json:"healthOverview"`
	TopTalkers []struct {
		ClientIP     string `json:"clientIp"`
		ServerIP     string `json:"serverIp"`
		Bytes        int64  `json:"bytes"`
		RequestCount int64  `json:"requestCount"`
	} `json:"topTalkers"`
	TrafficTimeline []timelineRow `json:"trafficTimeline"`
	GeneratedAt     string        `json:"generatedAt"`
}

type appDetailsData struct {
	Overview struct {
		ApplicationName   string  `json:"applicationName"`
		TotalTransactions int64   `json:"totalTransactions"`
		ErrorCount        int64   `json:"errorCount"`
		ErrorRate         float64 `json:"errorRate"`
		AvgLatencyMs      float64 `json:"avgLatencyMs"`
		P50LatencyMs      float64 `json:"p50LatencyMs"`
		P95LatencyMs      float64 `json:"p95LatencyMs"`
		P99LatencyMs      float64 `json:"p99LatencyMs"`
		TotalBytes        int64   `json:"totalBytes"`
		UniqueClients     int64   `json:"uniqueClients"`
		UniqueServers     int64   `json:"uniqueServers"`
	} `json:"overview"`
	TopClients []struct {
		ClientIP     string `json:"clientIp"`
		Transactions int64  `json:"transactions"`
		Errors       int64  `json:"errors"`
		Bytes        int64  `json:"bytes"`
	} `json:"topClients"`
	TopServers []struct {
		ServerIP     string  `json:"serverIp"`
		ServerPort   int64   `json:"serverPort"`
		Transactions int64   `json:"transactions"`
		AvgLatencyMs float64 `json:"avgLatencyMs"`
	} `json:"topServers"`
	Timeline    []timelineRow `json:"timeline"`
	GeneratedAt string        `json:"generatedAt"`
}

type timelineRow struct {
	Hour     string `json:"hour"`
	Requests int64  `json:"requests"`
	Errors   int64  `json:"errors"`
}

func Run(cfg Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := client.NewStreamableHttpClient(cfg.Server)
	if err != nil {
		return fmt.Errorf("创建 MCP 客户端失败：%w", err)
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("连接 server 失败：%w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "netdash-client", Version: "0.1.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("MCP 初始化失败：%w", err)
	}

	args := map[string]any{"hours": cfg.Hours}
	if cfg.SensorIP != "" {
		args["sensor_ip"] = cfg.SensorIP
	}
	if cfg.SensorName != "" {
		args["sensor_name"] = cfg.SensorName
	}

	if cfg.App != "" {
		args["application_name"] = cfg.App
		raw, err := callTool(ctx, c, "get_application_details", args)
		if err != nil {
			return err
		}
		var data appDetailsData
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return fmt.Errorf("解析应用详情 JSON 失败：%w", err)
		}
		renderAppDetails(data)
		return nil
	}

	raw, err := callTool(ctx, c, "refresh_dashboard_data", args)
	if err != nil {
		return err
	}
	var data dashboardData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return fmt.Errorf("解析仪表盘 JSON 失败：%w", err)
	}
	renderDashboard(data)
	return nil
}

func callTool(ctx context.Context, c *client.Client, name string, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("调用工具 %s 失败：%w", name, err)
	}
	for _, content := range res.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			return tc.Text, nil
		}
	}
	return "", fmt.Errorf("工具 %s 没有返回文本内容", name)
}

func renderDashboard(data dashboardData) {
	o := data.HealthOverview
	fmt.Printf("Generated at %s\n\n", data.GeneratedAt)

	t := tablewriter.NewWriter(os.Stdout)
	t.SetHeader([]string{"Transactions", "Error Rate", "Avg Latency(ms)", "P95(ms)", "Clients", "Servers"})
	t.SetAutoWrapText(false)
	t.Append([]string{
		fmt.Sprintf("%d", o.TotalTransactions),
		fmt.Sprintf("%.2f%%", o.ErrorRate),
		fmt.Sprintf("%.1f", o.AvgLatencyMs),
		fmt.Sprintf("%.1f", o.P95LatencyMs),
		fmt.Sprintf("%d", o.UniqueClients),
		fmt.Sprintf("%d", o.UniqueServers),
	})
	t.Render()

	if len(o.Applications) > 0 {
		fmt.Println("\nApplications:")
		t = tablewriter.NewWriter(os.Stdout)
		t.SetHeader([]string{"Application", "Transactions", "Errors", "Avg Latency(ms)", "P95(ms)"})
		t.SetAutoWrapText(false)
		for _, a := range o.Applications {
			t.Append([]string{
				a.ApplicationName,
				fmt.Sprintf("%d", a.TotalTransactions),
				fmt.Sprintf("%d", a.ErrorCount),
				fmt.Sprintf("%.1f", a.AvgLatencyMs),
				fmt.Sprintf("%.1f", a.P95LatencyMs),
			})
		}
		t.Render()
	}

	if len(data.TopTalkers) > 0 {
		fmt.Println("\nTop Talkers:")
		t = tablewriter.NewWriter(os.Stdout)
		t.SetHeader([]string{"Client", "Server", "Bytes", "Requests"})
		t.SetAutoWrapText(false)
		for _, talker := range data.TopTalkers {
			t.Append([]string{
				talker.ClientIP,
				talker.ServerIP,
				fmt.Sprintf("%d", talker.Bytes),
				fmt.Sprintf("%d", talker.RequestCount),
			})
		}
		t.Render()
	}

	renderTimeline(data.TrafficTimeline)
}

func renderAppDetails(data appDetailsData) {
	o := data.Overview
	fmt.Printf("Application: %s (generated at %s)\n\n", o.ApplicationName, data.GeneratedAt)

	t := tablewriter.NewWriter(os.Stdout)
	t.SetHeader([]string{"Transactions", "Errors", "Error Rate", "Avg(ms)", "P50(ms)", "P95(ms)", "P99(ms)", "Bytes", "Clients", "Servers"})
	t.SetAutoWrapText(false)
	t.Append([]string{
		fmt.Sprintf("%d", o.TotalTransactions),
		fmt.Sprintf("%d", o.ErrorCount),
		fmt.Sprintf("%.2f%%", o.ErrorRate),
		fmt.Sprintf("%.1f", o.AvgLatencyMs),
		fmt.Sprintf("%.1f", o.P50LatencyMs),
		fmt.Sprintf("%.1f", o.P95LatencyMs),
		fmt.Sprintf("%.1f", o.P99LatencyMs),
		fmt.Sprintf("%d", o.TotalBytes),
		fmt.Sprintf("%d", o.UniqueClients),
		fmt.Sprintf("%d", o.UniqueServers),
	})
	t.Render()

	if len(data.TopClients) > 0 {
		fmt.Println("\nTop Clients:")
		t = tablewriter.NewWriter(os.Stdout)
		t.SetHeader([]string{"Client", "Transactions", "Errors", "Bytes"})
		t.SetAutoWrapText(false)
		for _, c := range data.TopClients {
			t.Append([]string{
				c.ClientIP,
				fmt.Sprintf("%d", c.Transactions),
				fmt.Sprintf("%d", c.Errors),
				fmt.Sprintf("%d", c.Bytes),
			})
		}
		t.Render()
	}

	if len(data.TopServers) > 0 {
		fmt.Println("\nTop Servers:")
		t = tablewriter.NewWriter(os.Stdout)
		t.SetHeader([]string{"Server", "Port", "Transactions", "Avg Latency(ms)"})
		t.SetAutoWrapText(false)
		for _, s := range data.TopServers {
			t.Append([]string{
				s.ServerIP,
				fmt.Sprintf("%d", s.ServerPort),
				fmt.Sprintf("%d", s.Transactions),
				fmt.Sprintf("%.1f", s.AvgLatencyMs),
			})
		}
		t.Render()
	}

	renderTimeline(data.Timeline)
}

func renderTimeline(points []timelineRow) {
	if len(points) == 0 {
		return
	}
	fmt.Println("\nTimeline:")
	t := tablewriter.NewWriter(os.Stdout)
	t.SetHeader([]string{"Hour", "Requests", "Errors"})
	t.SetAutoWrapText(false)
	for _, p := range points {
		t.Append([]string{p.Hour, fmt.Sprintf("%d", p.Requests), fmt.Sprintf("%d", p.Errors)})
	}
	t.Render()
}
