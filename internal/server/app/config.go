package app

import "netdash/internal/server/storage/clickhouse"

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type Config struct {
	ListenAddr string
	Transport  string // stdio 或 http
	UIPath     string
	ClickHouse clickhouse.Config
}
