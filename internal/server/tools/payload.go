package tools

import (
	"time"

	"netdash/internal/server/query"
	"netdash/pkg/model"
)

// 对外 JSON 载荷统一用 camelCase 键，和内部模型的 snake_case 在这里
// 一次性完成翻译；filters 子对象按前端约定保留 snake_case。

type appPayload struct {
	ApplicationName   string  `json:"applicationName"`
	TotalTransactions int64   `json:"totalTransactions"`
	ErrorCount        int64   `json:"errorCount"`
	AvgLatencyMs      float64 `json:"avgLatencyMs"`
	P95LatencyMs      float64 `json:"p95LatencyMs"`
}

type overviewPayload struct {
	TotalTransactions int64        `json:"totalTransactions"`
	ErrorRate         float64      `json:"errorRate"`
	AvgLatencyMs      float64      `json:"avgLatencyMs"`
	P95LatencyMs      float64      `json:"p95LatencyMs"`
	UniqueClients     int64        `json:"uniqueClients"`
	UniqueServers     int64        `json:"uniqueServers"`
	Applications      []appPayload `json:"applications"`
}

type talkerPayload struct {
	ClientIP     string `json:"clientIp"`
	ServerIP     string `json:"serverIp"`
	Bytes        int64  `json:"bytes"`
	RequestCount int64  `json:"requestCount"`
}

type timelinePayload struct {
	Hour     string `json:"hour"`
	Requests int64  `json:"requests"`
	Errors   int64  `json:"errors"`
}

type filtersPayload struct {
	Hours      int     `json:"hours"`
	SensorIP   *string `json:"sensor_ip"`
	SensorName *string `json:"sensor_name"`
}

type dashboardPayload struct {
	HealthOverview  overviewPayload   `json:"healthOverview"`
	TopTalkers      []talkerPayload   `json:"topTalkers"`
	TrafficTimeline []timelinePayload `json:"trafficTimeline"`
	Filters         filtersPayload    `json:"filters"`
	GeneratedAt     string            `json:"generatedAt"`
}

type appOverviewPayload struct {
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
}

type topClientPayload struct {
	ClientIP     string `json:"clientIp"`
	Transactions int64  `json:"transactions"`
	Errors       int64  `json:"errors"`
	Bytes        int64  `json:"bytes"`
}

type topServerPayload struct {
	ServerIP     string  `json:"serverIp"`
	ServerPort   int64   `json:"serverPort"`
	Transactions int64   `json:"transactions"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
}

type appDetailsPayload struct {
	Overview    appOverviewPayload `json:"overview"`
	TopClients  []topClientPayload `json:"topClients"`
	TopServers  []topServerPayload `json:"topServers"`
	Timeline    []timelinePayload  `json:"timeline"`
	Filters     filtersPayload     `json:"filters"`
	GeneratedAt string             `json:"generatedAt"`
}

func toOverviewPayload(o model.HealthOverview) overviewPayload {
	apps := make([]appPayload, 0, len(o.Applications))
	for _, a := range o.Applications {
		apps = append(apps, appPayload{
			ApplicationName:   a.ApplicationName,
			TotalTransactions: a.TotalTransactions,
			ErrorCount:        a.ErrorCount,
			AvgLatencyMs:      a.AvgLatencyMS,
			P95LatencyMs:      a.P95LatencyMS,
		})
	}
	return overviewPayload{
		TotalTransactions: o.TotalTransactions,
		ErrorRate:         o.ErrorRate,
		AvgLatencyMs:      o.AvgLatencyMS,
		P95LatencyMs:      o.P95LatencyMS,
		UniqueClients:     o.UniqueClients,
		UniqueServers:     o.UniqueServers,
		Applications:      apps,
	}
}

func toTalkerPayloads(talkers []model.TopTalker) []talkerPayload {
	out := make([]talkerPayload, 0, len(talkers))
	for _, t := range talkers {
		out = append(out, talkerPayload{
			ClientIP:     t.ClientIP,
			ServerIP:     t.ServerIP,
			Bytes:        t.Bytes,
			RequestCount: t.RequestCount,
		})
	}
	return out
}

func toTimelinePayloads(points []model.TimelinePoint) []timelinePayload {
	out := make([]timelinePayload, 0, len(points))
	for _, p := range points {
		out = append(out, timelinePayload{Hour: p.Hour, Requests: p.Requests, Errors: p.Errors})
	}
	return out
}

func toAppDetailsPayload(d model.AppDetails, f query.Filters, now time.Time) appDetailsPayload {
	clients := make([]topClientPayload, 0, len(d.TopClients))
	for _, c := range d.TopClients {
		clients = append(clients, topClientPayload{
			ClientIP:     c.ClientIP,
			Transactions: c.Transactions,
			Errors:       c.Errors,
			Bytes:        c.Bytes,
		})
	}
	servers := make([]topServerPayload, 0, len(d.TopServers))
	for _, s := range d.TopServers {
		servers = append(servers, topServerPayload{
			ServerIP:     s.ServerIP,
			ServerPort:   s.ServerPort,
			Transactions: s.Transactions,
			AvgLatencyMs: s.AvgLatencyMS,
		})
	}
	return appDetailsPayload{
		Overview: appOverviewPayload{
			ApplicationName:   d.Overview.ApplicationName,
			TotalTransactions: d.Overview.TotalTransactions,
			ErrorCount:        d.Overview.ErrorCount,
			ErrorRate:         d.Overview.ErrorRate,
			AvgLatencyMs:      d.Overview.AvgLatencyMS,
			P50LatencyMs:      d.Overview.P50LatencyMS,
			P95LatencyMs:      d.Overview.P95LatencyMS,
			P99LatencyMs:      d.Overview.P99LatencyMS,
			TotalBytes:        d.Overview.TotalBytes,
			UniqueClients:     d.Overview.UniqueClients,
			UniqueServers:     d.Overview.UniqueServers,
		},
		TopClients:  clients,
		TopServers:  servers,
		Timeline:    toTimelinePayloads(d.Timeline),
		Filters:     toFiltersPayload(f),
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
}

func toFiltersPayload(f query.Filters) filtersPayload {
	p := filtersPayload{Hours: f.Hours}
	if f.SensorIP != "" {
		v := f.SensorIP
		p.SensorIP = &v
	}
	if f.SensorName != "" {
		v := f.SensorName
		p.SensorName = &v
	}
	return p
}
