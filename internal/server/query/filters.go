package query

import (
	"database/sql"
	"strings"
)

const (
	DefaultHours = 24
	DefaultLimit = 10
	MinHours     = 1
	MaxHours     = 168
)

// Filters 是单次请求的查询约束，构造后不再修改。
type Filters struct {
	Hours      int
	SensorIP   string
	SensorName string
	Limit      int
}

// ClampHours 把小时数收敛到 [1,168]，越界输入不报错、只收敛。
func ClampHours(hours int) int {
	if hours < MinHours {
		return MinHours
	}
	if hours > MaxHours {
		return MaxHours
	}
	return hours
}

func (f Filters) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// whereClause 把过滤条件拼成 WHERE 谓词与绑定参数。时间条件恒存在；
// IP、名称两个字符串条件只在设置时追加，且一律走 @name 绑定参数，
// 绝不把外部字符串拼进 SQL。
func (f Filters) whereClause() (string, []any) {
	conds := []string{"cal_timestamp_time >= now() - INTERVAL @filter_hours HOUR"}
	args := []any{sql.Named("filter_hours", f.Hours)}

	if f.SensorIP != "" {
		conds = append(conds, "device_ip_address = @filter_sensor_ip")
		args = append(args, sql.Named("filter_sensor_ip", f.SensorIP))
	}
	if f.SensorName != "" {
		conds = append(conds, "device_name = @filter_sensor_name")
		args = append(args, sql.Named("filter_sensor_name", f.SensorName))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}
