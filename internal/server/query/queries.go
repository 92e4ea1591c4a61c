package query

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"netdash/internal/server/storage"
	"netdash/pkg/model"
)

// Queries 持有存储句柄并提供全部聚合查询。每个公开方法在边界处吞掉
// 底层错误：记日志、返回形状正确的零值结果。调用方永远拿到一个
// 结构完整（可能全零）的响应，"无数据"和"库不可用"对调用方不可区分，
// 这是与既有前端约定好的降级行为，不做重试。
type Queries struct {
	store storage.Store
}

func NewQueries(store storage.Store) *Queries {
	return &Queries{store: store}
}

const overallSQL = `
SELECT
	sum(agt_successful_transactions_count + agt_failed_transactions_count) AS total_transactions,
	sum(agt_failed_transactions_count) AS error_count,
	sum(agt_total_response_time) / nullIf(sum(agt_successful_transactions_count + agt_failed_transactions_count), 0) / 1000 AS avg_latency_ms,
	quantile(0.95)(agt_peak_response_time_usec / 1000) AS p95_latency_ms,
	uniq(client_host_ip_address) AS unique_clients,
	uniq(server_host_ip_address) AS unique_servers
FROM f_aggregate_telemetry
%s`

const appBreakdownSQL = `
SELECT
	application_name,
	sum(agt_successful_transactions_count + agt_failed_transactions_count) AS total_transactions,
	sum(agt_failed_transactions_count) AS error_count,
	sum(agt_total_response_time) / nullIf(sum(agt_successful_transactions_count + agt_failed_transactions_count), 0) / 1000 AS avg_latency_ms,
	quantile(0.95)(agt_peak_response_time_usec / 1000) AS p95_latency_ms
FROM f_aggregate_telemetry
%s
GROUP BY application_name
ORDER BY total_transactions DESC
LIMIT 20`

// HealthOverview 返回全局健康指标和按应用的细分（按事务量降序，前 20）。
func (q *Queries) HealthOverview(ctx context.Context, f Filters) model.HealthOverview {
	where, args := f.whereClause()

	empty := model.HealthOverview{Applications: []model.ApplicationMetrics{}}

	overallRows, err := q.store.Query(ctx, fmt.Sprintf(overallSQL, where), args...)
	if err != nil {
		log.Printf("[clickhouse] 查询健康概览失败：%v", err)
		return empty
	}
	appRows, err := q.store.Query(ctx, fmt.Sprintf(appBreakdownSQL, where), args...)
	if err != nil {
		log.Printf("[clickhouse] 查询应用细分失败：%v", err)
		return empty
	}

	overall := map[string]any{}
	if len(overallRows) > 0 {
		overall = overallRows[0]
	}

	totalTransactions := rowInt(overall, "total_transactions")
	errorCount := rowInt(overall, "error_count")

	apps := make([]model.ApplicationMetrics, 0, len(appRows))
	for _, row := range appRows {
		apps = append(apps, model.ApplicationMetrics{
			ApplicationName:   rowString(row, "application_name"),
			TotalTransactions: rowInt(row, "total_transactions"),
			ErrorCount:        rowInt(row, "error_count"),
			AvgLatencyMS:      rowFloat(row, "avg_latency_ms"),
			P95LatencyMS:      rowFloat(row, "p95_latency_ms"),
		})
	}

	return model.HealthOverview{
		TotalTransactions: totalTransactions,
		ErrorRate:         errorRate(errorCount, totalTransactions),
		AvgLatencyMS:      rowFloat(overall, "avg_latency_ms"),
		P95LatencyMS:      rowFloat(overall, "p95_latency_ms"),
		UniqueClients:     rowInt(overall, "unique_clients"),
		UniqueServers:     rowInt(overall, "unique_servers"),
		Applications:      apps,
	}
}

const topTalkersSQL = `
SELECT
	client_host_ip_address AS client_ip,
	server_host_ip_address AS server_ip,
	sum(agt_to_server_octets_count + agt_from_server_octets_count) AS bytes,
	sum(agt_successful_transactions_count + agt_failed_transactions_count) AS request_count
FROM f_aggregate_telemetry
%s
GROUP BY client_host_ip_address, server_host_ip_address
ORDER BY bytes DESC
LIMIT @query_limit`

// TopTalkers 返回按双向流量排序的客户端-服务端对，条数受 filter limit 约束。
func (q *Queries) TopTalkers(ctx context.Context, f Filters) []model.TopTalker {
	where, args := f.whereClause()
	args = append(args, sql.Named("query_limit", f.limit()))

	rows, err := q.store.Query(ctx, fmt.Sprintf(topTalkersSQL, where), args...)
	if err != nil {
		log.Printf("[clickhouse] 查询 top talkers 失败：%v", err)
		return []model.TopTalker{}
	}

	out := make([]model.TopTalker, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.TopTalker{
			ClientIP:     rowString(row, "client_ip"),
			ServerIP:     rowString(row, "server_ip"),
			Bytes:        rowInt(row, "bytes"),
			RequestCount: rowInt(row, "request_count"),
		})
	}
	return out
}

const timelineSQL = `
SELECT
	toStartOfHour(cal_timestamp_time) AS hour,
	sum(agt_successful_transactions_count + agt_failed_transactions_count) AS requests,
	sum(agt_failed_transactions_count) AS errors
FROM f_aggregate_telemetry
%s
GROUP BY hour
ORDER BY hour`

// TrafficTimeline 按小时聚合请求/错误数，升序返回；没有数据的小时不补零。
func (q *Queries) TrafficTimeline(ctx context.Context, f Filters) []model.TimelinePoint {
	where, args := f.whereClause()

	rows, err := q.store.Query(ctx, fmt.Sprintf(timelineSQL, where), args...)
	if err != nil {
		log.Printf("[clickhouse] 查询流量时间线失败：%v", err)
		return []model.TimelinePoint{}
	}
	return mapTimeline(rows)
}

func mapTimeline(rows []map[string]any) []model.TimelinePoint {
	out := make([]model.TimelinePoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.TimelinePoint{
			Hour:     rowString(row, "hour"),
			Requests: rowInt(row, "requests"),
			Errors:   rowInt(row, "errors"),
		})
	}
	return out
}

const appOverviewSQL = `
SELECT
	sum(agt_successful_transactions_count + agt_failed_transactions_count) AS total_transactions,
	sum(agt_failed_transactions_count) AS error_count,
	sum(agt_total_response_time) / nullIf(sum(agt_successful_transactions_count + agt_failed_transactions_count), 0) / 1000 AS avg_latency_ms,
	quantile(0.50)(agt_peak_response_time_usec / 1000) AS p50_latency_ms,
	quantile(0.95)(agt_peak_response_time_usec / 1000) AS p95_latency_ms,
	quantile(0.99)(agt_peak_response_time_usec / 1000) AS p99_latency_ms,
	sum(agt_to_server_octets_count + agt_from_server_octets_count) AS total_bytes,
	uniq(client_host_ip_address) AS unique_clients,
	uniq(server_host_ip_address) AS unique_servers
FROM f_aggregate_telemetry
%s`

const topClientsSQL = `
SELECT
	client_host_ip_address AS client_ip,
	sum(agt_successful_transactions_count + agt_failed_transactions_count) AS transactions,
	sum(agt_failed_transactions_count) AS errors,
	sum(agt_to_server_octets_count + agt_from_server_octets_count) AS bytes
FROM f_aggregate_telemetry
%s
GROUP BY client_host_ip_address
ORDER BY transactions DESC
LIMIT @query_limit`

const topServersSQL = `
SELECT
	server_host_ip_address AS server_ip,
	server_port,
	sum(agt_successful_transactions_count + agt_failed_transactions_count) AS transactions,
	sum(agt_total_response_time) / nullIf(sum(agt_successful_transactions_count + agt_failed_transactions_count), 0) / 1000 AS avg_latency_ms
FROM f_aggregate_telemetry
%s
GROUP BY server_host_ip_address, server_port
ORDER BY transactions DESC
LIMIT @query_limit`

// AppDetails 返回单个应用的详情：在基础谓词上追加应用名等值条件，
// 依次跑概览、top clients、top servers、时间线四个子查询。
func (q *Queries) AppDetails(ctx context.Context, f Filters, appName string) model.AppDetails {
	where, baseArgs := f.whereClause()
	where += " AND application_name = @filter_app"
	baseArgs = append(baseArgs, sql.Named("filter_app", appName))

	empty := model.AppDetails{
		Overview:   model.AppOverview{ApplicationName: appName},
		TopClients: []model.TopClient{},
		TopServers: []model.TopServer{},
		Timeline:   []model.TimelinePoint{},
	}

	// 每个子查询用自己的参数副本，避免追加 limit 时互相污染底层数组。
	args := func(extra ...any) []any {
		out := make([]any, 0, len(baseArgs)+len(extra))
		out = append(out, baseArgs...)
		return append(out, extra...)
	}

	overviewRows, err := q.store.Query(ctx, fmt.Sprintf(appOverviewSQL, where), args()...)
	if err != nil {
		log.Printf("[clickhouse] 查询应用详情概览失败：%v", err)
		return empty
	}
	clientRows, err := q.store.Query(ctx, fmt.Sprintf(topClientsSQL, where), args(sql.Named("query_limit", f.limit()))...)
	if err != nil {
		log.Printf("[clickhouse] 查询应用 top clients 失败：%v", err)
		return empty
	}
	serverRows, err := q.store.Query(ctx, fmt.Sprintf(topServersSQL, where), args(sql.Named("query_limit", f.limit()))...)
	if err != nil {
		log.Printf("[clickhouse] 查询应用 top servers 失败：%v", err)
		return empty
	}
	timelineRows, err := q.store.Query(ctx, fmt.Sprintf(timelineSQL, where), args()...)
	if err != nil {
		log.Printf("[clickhouse] 查询应用时间线失败：%v", err)
		return empty
	}

	overview := map[string]any{}
	if len(overviewRows) > 0 {
		overview = overviewRows[0]
	}
	totalTransactions := rowInt(overview, "total_transactions")
	errorCount := rowInt(overview, "error_count")

	clients := make([]model.TopClient, 0, len(clientRows))
	for _, row := range clientRows {
		clients = append(clients, model.TopClient{
			ClientIP:     rowString(row, "client_ip"),
			Transactions: rowInt(row, "transactions"),
			Errors:       rowInt(row, "errors"),
			Bytes:        rowInt(row, "bytes"),
		})
	}

	servers := make([]model.TopServer, 0, len(serverRows))
	for _, row := range serverRows {
		servers = append(servers, model.TopServer{
			ServerIP:     rowString(row, "server_ip"),
			ServerPort:   rowInt(row, "server_port"),
			Transactions: rowInt(row, "transactions"),
			AvgLatencyMS: rowFloat(row, "avg_latency_ms"),
		})
	}

	return model.AppDetails{
		Overview: model.AppOverview{
			ApplicationName:   appName,
			TotalTransactions: totalTransactions,
			ErrorCount:        errorCount,
			ErrorRate:         errorRate(errorCount, totalTransactions),
			AvgLatencyMS:      rowFloat(overview, "avg_latency_ms"),
			P50LatencyMS:      rowFloat(overview, "p50_latency_ms"),
			P95LatencyMS:      rowFloat(overview, "p95_latency_ms"),
			P99LatencyMS:      rowFloat(overview, "p99_latency_ms"),
			TotalBytes:        rowInt(overview, "total_bytes"),
			UniqueClients:     rowInt(overview, "unique_clients"),
			UniqueServers:     rowInt(overview, "unique_servers"),
		},
		TopClients: clients,
		TopServers: servers,
		Timeline:   mapTimeline(timelineRows),
	}
}

// errorRate = 错误数/总数*100，总数为 0 时返回 0 而不是 NaN。
func errorRate(errors, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(errors) / float64(total) * 100
}
