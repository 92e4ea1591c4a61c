package query

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"netdash/internal/server/storage"
)

type fakeStore struct {
	results [][]map[string]any
	queries []string
	args    [][]any
	err     error
}

func (f *fakeStore) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return []map[string]any{}, nil
	}
	rows := f.results[0]
	f.results = f.results[1:]
	return rows, nil
}

func (f *fakeStore) Close() error { return nil }

var _ storage.Store = (*fakeStore)(nil)

func namedArg(t *testing.T, args []any, name string) any {
	t.Helper()
	for _, a := range args {
		if n, ok := a.(sql.NamedArg); ok && n.Name == name {
			return n.Value
		}
	}
	t.Fatalf("named arg %q not found in %v", name, args)
	return nil
}

func TestHealthOverview(t *testing.T) {
	store := &fakeStore{
		results: [][]map[string]any{
			{{
				"total_transactions": uint64(1000),
				"error_count":        uint64(50),
				"avg_latency_ms":     12.5,
				"p95_latency_ms":     80.0,
				"unique_clients":     uint64(7),
				"unique_servers":     uint64(3),
			}},
			{
				{"application_name": "http", "total_transactions": uint64(800), "error_count": uint64(40), "avg_latency_ms": 10.0, "p95_latency_ms": 60.0},
				{"application_name": "dns", "total_transactions": uint64(200), "error_count": uint64(10), "avg_latency_ms": 2.0, "p95_latency_ms": 8.0},
			},
		},
	}
	q := NewQueries(store)

	got := q.HealthOverview(context.Background(), Filters{Hours: 24})
	if got.TotalTransactions != 1000 {
		t.Fatalf("total=%d", got.TotalTransactions)
	}
	if got.ErrorRate != 5.0 {
		t.Fatalf("error_rate=%v", got.ErrorRate)
	}
	if got.UniqueClients != 7 || got.UniqueServers != 3 {
		t.Fatalf("uniq=%d/%d", got.UniqueClients, got.UniqueServers)
	}
	if len(got.Applications) != 2 {
		t.Fatalf("apps=%d", len(got.Applications))
	}
	// 行序由 SQL 的 ORDER BY 保证，映射必须原样保序。
	if got.Applications[0].ApplicationName != "http" || got.Applications[1].ApplicationName != "dns" {
		t.Fatalf("apps=%v", got.Applications)
	}

	if len(store.queries) != 2 {
		t.Fatalf("queries=%d", len(store.queries))
	}
	appSQL := store.queries[1]
	if !strings.Contains(appSQL, "ORDER BY total_transactions DESC") {
		t.Fatalf("app query not ordered: %s", appSQL)
	}
	if !strings.Contains(appSQL, "LIMIT 20") {
		t.Fatalf("app query not capped: %s", appSQL)
	}
}

func TestHealthOverviewZeroTransactions(t *testing.T) {
	store := &fakeStore{
		results: [][]map[string]any{
			{{
				"total_transactions": uint64(0),
				"error_count":        uint64(0),
				"avg_latency_ms":     nil,
				"p95_latency_ms":     nil,
			}},
			{},
		},
	}
	q := NewQueries(store)

	got := q.HealthOverview(context.Background(), Filters{Hours: 24})
	if got.ErrorRate != 0 {
		t.Fatalf("error_rate=%v", got.ErrorRate)
	}
	if got.AvgLatencyMS != 0 {
		t.Fatalf("avg_latency=%v", got.AvgLatencyMS)
	}
	if got.Applications == nil || len(got.Applications) != 0 {
		t.Fatalf("apps=%v", got.Applications)
	}
}

func TestTopTalkers(t *testing.T) {
	store := &fakeStore{
		results: [][]map[string]any{
			{
				{"client_ip": "10.0.0.1", "server_ip": "10.0.1.1", "bytes": uint64(5000), "request_count": uint64(40)},
				{"client_ip": "10.0.0.2", "server_ip": "10.0.1.2", "bytes": uint64(3000), "request_count": uint64(10)},
			},
		},
	}
	q := NewQueries(store)

	got := q.TopTalkers(context.Background(), Filters{Hours: 24, Limit: 5})
	if len(got) != 2 {
		t.Fatalf("talkers=%d", len(got))
	}
	if got[0].Bytes != 5000 || got[1].Bytes != 3000 {
		t.Fatalf("order lost: %v", got)
	}

	sqlText := store.queries[0]
	if !strings.Contains(sqlText, "ORDER BY bytes DESC") {
		t.Fatalf("not ordered: %s", sqlText)
	}
	if !strings.Contains(sqlText, "LIMIT @query_limit") {
		t.Fatalf("limit not bound: %s", sqlText)
	}
	if v := namedArg(t, store.args[0], "query_limit"); v.(int) != 5 {
		t.Fatalf("query_limit=%v", v)
	}
}

func TestTrafficTimeline(t *testing.T) {
	store := &fakeStore{
		results: [][]map[string]any{
			{
				{"hour": "2025-03-01 10:00:00", "requests": uint64(100), "errors": uint64(2)},
				{"hour": "2025-03-01 11:00:00", "requests": uint64(130), "errors": uint64(0)},
			},
		},
	}
	q := NewQueries(store)

	got := q.TrafficTimeline(context.Background(), Filters{Hours: 24})
	if len(got) != 2 {
		t.Fatalf("points=%d", len(got))
	}
	if got[0].Hour >= got[1].Hour {
		t.Fatalf("not ascending: %v", got)
	}
	if !strings.Contains(store.queries[0], "ORDER BY hour") {
		t.Fatalf("timeline not ordered: %s", store.queries[0])
	}
	if !strings.Contains(store.queries[0], "toStartOfHour(cal_timestamp_time)") {
		t.Fatalf("missing hour bucket: %s", store.queries[0])
	}
}

func TestAppDetails(t *testing.T) {
	store := &fakeStore{
		results: [][]map[string]any{
			{{
				"total_transactions": uint64(600),
				"error_count":        uint64(6),
				"avg_latency_ms":     20.0,
				"p50_latency_ms":     15.0,
				"p95_latency_ms":     90.0,
				"p99_latency_ms":     200.0,
				"total_bytes":        uint64(123456),
				"unique_clients":     uint64(4),
				"unique_servers":     uint64(2),
			}},
			{
				{"client_ip": "10.0.0.1", "transactions": uint64(500), "errors": uint64(5), "bytes": uint64(100000)},
			},
			{
				{"server_ip": "10.0.1.1", "server_port": uint64(443), "transactions": uint64(600), "avg_latency_ms": 20.0},
			},
			{
				{"hour": "2025-03-01 10:00:00", "requests": uint64(600), "errors": uint64(6)},
			},
		},
	}
	q := NewQueries(store)

	got := q.AppDetails(context.Background(), Filters{Hours: 24}, "http")
	if got.Overview.ApplicationName != "http" {
		t.Fatalf("name=%q", got.Overview.ApplicationName)
	}
	if got.Overview.ErrorRate != 1.0 {
		t.Fatalf("error_rate=%v", got.Overview.ErrorRate)
	}
	if got.Overview.P50LatencyMS != 15.0 || got.Overview.P99LatencyMS != 200.0 {
		t.Fatalf("quantiles=%v", got.Overview)
	}
	if len(got.TopClients) != 1 || got.TopClients[0].ClientIP != "10.0.0.1" {
		t.Fatalf("clients=%v", got.TopClients)
	}
	if len(got.TopServers) != 1 || got.TopServers[0].ServerPort != 443 {
		t.Fatalf("servers=%v", got.TopServers)
	}
	if len(got.Timeline) != 1 {
		t.Fatalf("timeline=%v", got.Timeline)
	}

	if len(store.queries) != 4 {
		t.Fatalf("queries=%d", len(store.queries))
	}
	for i, sqlText := range store.queries {
		if !strings.Contains(sqlText, "application_name = @filter_app") {
			t.Fatalf("query %d missing app predicate: %s", i, sqlText)
		}
		if v := namedArg(t, store.args[i], "filter_app"); v.(string) != "http" {
			t.Fatalf("filter_app=%v", v)
		}
	}
}

// 底层查询失败时，四个公开方法都必须降级为形状正确的空结果，
// 而不是把错误抛给工具层。
func TestDegradeToEmptyOnStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("connect: connection refused")}
	q := NewQueries(store)
	ctx := context.Background()
	f := Filters{Hours: 24}

	overview := q.HealthOverview(ctx, f)
	if overview.TotalTransactions != 0 || overview.ErrorRate != 0 || len(overview.Applications) != 0 {
		t.Fatalf("overview=%+v", overview)
	}
	if overview.Applications == nil {
		t.Fatal("applications should be empty, not nil")
	}

	if talkers := q.TopTalkers(ctx, f); talkers == nil || len(talkers) != 0 {
		t.Fatalf("talkers=%v", talkers)
	}
	if timeline := q.TrafficTimeline(ctx, f); timeline == nil || len(timeline) != 0 {
		t.Fatalf("timeline=%v", timeline)
	}

	details := q.AppDetails(ctx, f, "http")
	if details.Overview.TotalTransactions != 0 || details.Overview.ErrorRate != 0 {
		t.Fatalf("details=%+v", details)
	}
	if details.TopClients == nil || details.TopServers == nil || details.Timeline == nil {
		t.Fatalf("detail lists should be empty, not nil: %+v", details)
	}
}
