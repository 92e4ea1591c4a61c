package query

import (
	"math"
	"time"
)

// 行映射统一走下面三个全量函数：字段缺失、NULL、NaN 一律归零后再参与
// 运算，保证任何聚合结果里不会出现 NaN/未定义值。

func rowInt(row map[string]any, key string) int64 {
	v, ok := row[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return int64(n)
	case float64:
		return int64(n)
	case *int64:
		if n == nil {
			return 0
		}
		return *n
	case *uint64:
		if n == nil {
			return 0
		}
		return int64(*n)
	case *float64:
		if n == nil {
			return 0
		}
		return int64(*n)
	}
	return 0
}

func rowFloat(row map[string]any, key string) float64 {
	v, ok := row[key]
	if !ok || v == nil {
		return 0
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case *float64:
		if n == nil {
			return 0
		}
		f = *n
	case *float32:
		if n == nil {
			return 0
		}
		f = float64(*n)
	default:
		return 0
	}
	// ClickHouse 的 quantile 在空样本上返回 NaN，这里统一归零。
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func rowString(row map[string]any, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s == nil {
			return ""
		}
		return *s
	case time.Time:
		return s.UTC().Format("2006-01-02 15:04:05")
	case *time.Time:
		if s == nil {
			return ""
		}
		return s.UTC().Format("2006-01-02 15:04:05")
	}
	return ""
}
