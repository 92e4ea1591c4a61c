package model

// 本包定义各聚合查询的结果视图。所有实体都是按请求计算的只读投影，
// 不落盘、不跨请求缓存；字段名与 ClickHouse 查询别名保持一致（snake_case）。

type ApplicationMetrics struct {
	ApplicationName   string  `json:"application_name"`
	TotalTransactions int64   `json:"total_transactions"`
	ErrorCount        int64   `json:"error_count"`
	AvgLatencyMS      float64 `json:"avg_latency_ms"`
	P95LatencyMS      float64 `json:"p95_latency_ms"`
}

type HealthOverview struct {
	TotalTransactions int64                `json:"total_transactions"`
	ErrorRate         float64              `json:"error_rate"`
	AvgLatencyMS      float64              `json:"avg_latency_ms"`
	P95LatencyMS      float64              `json:"p95_latency_ms"`
	UniqueClients     int64                `json:"unique_clients"`
	UniqueServers     int64                `json:"unique_servers"`
	Applications      []ApplicationMetrics `json:"applications"`
}

type TopTalker struct {
	ClientIP     string `json:"client_ip"`
	ServerIP     string `json:"server_ip"`
	Bytes        int64  `json:"bytes"`
	RequestCount int64  `json:"request_count"`
}

type TimelinePoint struct {
	Hour     string `json:"hour"`
	Requests int64  `json:"requests"`
	Errors   int64  `json:"errors"`
}

type AppOverview struct {
	ApplicationName   string  `json:"application_name"`
	TotalTransactions int64   `json:"total_transactions"`
	ErrorCount        int64   `json:"error_count"`
	ErrorRate         float64 `json:"error_rate"`
	AvgLatencyMS      float64 `json:"avg_latency_ms"`
	P50LatencyMS      float64 `json:"p50_latency_ms"`
	P95LatencyMS      float64 `json:"p95_latency_ms"`
	P99LatencyMS      float64 `json:"p99_latency_ms"`
	TotalBytes        int64   `json:"total_bytes"`
	UniqueClients     int64   `json:"unique_clients"`
	UniqueServers     int64   `json:"unique_servers"`
}

type TopClient struct {
	ClientIP     string `json:"client_ip"`
	Transactions int64  `json:"transactions"`
	Errors       int64  `json:"errors"`
	Bytes        int64  `json:"bytes"`
}

type TopServer struct {
	ServerIP     string  `json:"server_ip"`
	ServerPort   int64   `json:"server_port"`
	Transactions int64   `json:"transactions"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

type AppDetails struct {
	Overview   AppOverview     `json:"overview"`
	TopClients []TopClient     `json:"top_clients"`
	TopServers []TopServer     `json:"top_servers"`
	Timeline   []TimelinePoint `json:"timeline"`
}
