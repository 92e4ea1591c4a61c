package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"netdash/internal/server/query"
	"netdash/internal/server/ui"
	"netdash/pkg/model"
)

// Handlers 是工具门面：把 MCP 工具调用翻译成聚合查询并序列化结果。
// 查询层已经保证永不返回错误，所以这里的每个工具也总是成功返回。
type Handlers struct {
	queries *query.Queries
	uiPath  string
	now     func() time.Time
}

func NewHandlers(q *query.Queries, uiPath string) *Handlers {
	return &Handlers{queries: q, uiPath: uiPath, now: time.Now}
}

// Register 向 MCP server 注册全部工具与 UI 资源。
// refresh/details 两个工具只给仪表盘 UI 用，描述里显式标注 internal use only，
// 避免被会话侧误调用。
func (h *Handlers) Register(s *server.MCPServer) {
	showTool := mcp.NewTool("show_network_dashboard",
		mcp.WithDescription("Display an interactive network health dashboard showing overall metrics, "+
			"application breakdown, top talkers, and traffic trends. "+
			"Use this when the user wants to see network status, health overview, or traffic visualization."),
		mcp.WithTitleAnnotation("Network Health Dashboard"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("hours",
			mcp.Description("Time range in hours (1-168, default: 24)"),
			mcp.DefaultNumber(24), mcp.Min(1), mcp.Max(168)),
		mcp.WithString("sensor_ip", mcp.Description("Filter by sensor IP address")),
		mcp.WithString("sensor_name", mcp.Description("Filter by sensor name")),
	)
	s.AddTool(showTool, h.ShowDashboard)

	refreshTool := mcp.NewTool("refresh_dashboard_data",
		mcp.WithDescription("Refresh network health dashboard data (internal use only)"),
		mcp.WithTitleAnnotation("Refresh Dashboard Data"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("hours",
			mcp.Description("Time range in hours (1-168, default: 24)"),
			mcp.DefaultNumber(24), mcp.Min(1), mcp.Max(168)),
		mcp.WithString("sensor_ip", mcp.Description("Filter by sensor IP address")),
		mcp.WithString("sensor_name", mcp.Description("Filter by sensor name")),
	)
	s.AddTool(refreshTool, h.RefreshDashboardData)

	detailsTool := mcp.NewTool("get_application_details",
		mcp.WithDescription("Get detailed metrics for a specific application (internal use only)"),
		mcp.WithTitleAnnotation("Application Details"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("application_name",
			mcp.Required(),
			mcp.Description("Application name to get details for")),
		mcp.WithNumber("hours",
			mcp.Description("Time range in hours (1-168, default: 24)"),
			mcp.DefaultNumber(24), mcp.Min(1), mcp.Max(168)),
		mcp.WithString("sensor_ip", mcp.Description("Filter by sensor IP address")),
		mcp.WithString("sensor_name", mcp.Description("Filter by sensor name")),
	)
	s.AddTool(detailsTool, h.ApplicationDetails)

	resource := mcp.NewResource(ui.ResourceURI, "Health Dashboard UI",
		mcp.WithResourceDescription("Interactive network health dashboard"),
		mcp.WithMIMEType("text/html"),
	)
	s.AddResource(resource, h.DashboardHTML)
}

func (h *Handlers) filtersFromRequest(req mcp.CallToolRequest) query.Filters {
	return query.Filters{
		Hours:      query.ClampHours(req.GetInt("hours", query.DefaultHours)),
		SensorIP:   req.GetString("sensor_ip", ""),
		SensorName: req.GetString("sensor_name", ""),
		Limit:      query.DefaultLimit,
	}
}

// ShowDashboard 返回面向会话的多行文本摘要；完整数据由 UI 另行调用
// refresh_dashboard_data 获取。
func (h *Handlers) ShowDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := h.filtersFromRequest(req)

	overview := h.queries.HealthOverview(ctx, f)
	talkers := h.queries.TopTalkers(ctx, f)

	return mcp.NewToolResultText(buildSummary(f, overview, talkers)), nil
}

func buildSummary(f query.Filters, overview model.HealthOverview, talkers []model.TopTalker) string {
	timeRange := fmt.Sprintf("last %d hours", f.Hours)
	if f.Hours == 1 {
		timeRange = "last 1 hour"
	}

	var totalErrors int64
	for _, app := range overview.Applications {
		totalErrors += app.ErrorCount
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Network Health Dashboard (%s)\n\n", timeRange)
	b.WriteString("Overview:\n")
	fmt.Fprintf(&b, "- Total Transactions: %s\n", FormatCount(overview.TotalTransactions))
	fmt.Fprintf(&b, "- Error Rate: %.2f%% (%s errors)\n", overview.ErrorRate, FormatCount(totalErrors))
	fmt.Fprintf(&b, "- Avg Latency: %.1fms (P95: %.1fms)\n", overview.AvgLatencyMS, overview.P95LatencyMS)
	fmt.Fprintf(&b, "- Unique Clients: %d | Servers: %d\n\n", overview.UniqueClients, overview.UniqueServers)

	if len(overview.Applications) > 0 {
		b.WriteString("Top Applications:\n")
		for i, app := range overview.Applications {
			if i >= 5 {
				break
			}
			errorPct := 0.0
			if app.TotalTransactions > 0 {
				errorPct = float64(app.ErrorCount) / float64(app.TotalTransactions) * 100
			}
			fmt.Fprintf(&b, "%d. %s - %s transactions, %.1f%% errors\n",
				i+1, app.ApplicationName, FormatCount(app.TotalTransactions), errorPct)
		}
		b.WriteString("\n")
	}

	if len(talkers) > 0 {
		b.WriteString("Top Talkers (by traffic):\n")
		for i, t := range talkers {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "%d. %s → %s: %s\n", i+1, t.ClientIP, t.ServerIP, FormatBytes(t.Bytes))
		}
		b.WriteString("\n")
	}

	b.WriteString("The interactive dashboard is displayed above with traffic trends and detailed breakdowns.")
	return b.String()
}

// RefreshDashboardData 返回 UI 消费的结构化 JSON：概览、top talkers、
// 时间线、实际生效的过滤条件和生成时间。
func (h *Handlers) RefreshDashboardData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := h.filtersFromRequest(req)

	payload := dashboardPayload{
		HealthOverview:  toOverviewPayload(h.queries.HealthOverview(ctx, f)),
		TopTalkers:      toTalkerPayloads(h.queries.TopTalkers(ctx, f)),
		TrafficTimeline: toTimelinePayloads(h.queries.TrafficTimeline(ctx, f)),
		Filters:         toFiltersPayload(f),
		GeneratedAt:     h.now().UTC().Format(time.RFC3339),
	}

	return jsonResult(payload)
}

// ApplicationDetails 返回单个应用的结构化详情 JSON。
func (h *Handlers) ApplicationDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	appName, err := req.RequireString("application_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f := h.filtersFromRequest(req)

	details := h.queries.AppDetails(ctx, f, appName)
	return jsonResult(toAppDetailsPayload(details, f, h.now()))
}

// DashboardHTML 提供仪表盘静态页面；文件缺失时由 ui 包退回说明页。
func (h *Handlers) DashboardHTML(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ui.ResourceURI,
			MIMEType: "text/html",
			Text:     ui.Load(h.uiPath),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		// 载荷都是本包定义的纯数据结构，正常情况下不可能走到这里。
		log.Printf("[tools] 序列化响应失败：%v", err)
		return mcp.NewToolResultText("{}"), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
