package storage

import "context"

// Store 是遥测库的查询抽象：输入带 @name 占位符的 SQL 与绑定参数，
// 输出按列名索引的行。本系统只读，不提供写入方法。
type Store interface {
	Query(ctx context.Context, query string, args ...any) ([]map[string]any, error)
	Close() error
}
