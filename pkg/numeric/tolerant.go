// Package numeric 提供面向表格单元格的宽松数值解析。
//
// 表格单元格常见空白、"3.0"、" 60 " 之类的不一致写法，这里的函数只做尽力解析：
// 先按整数解析，再按小数解析，都失败时返回调用方给定的默认值，永不返回错误。
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// Float 宽松解析为 float64
func Float(raw string, def float64) float64 {
	v, ok := parse(raw)
	if !ok {
		return def
	}
	return v
}

// Int 宽松解析为 int，小数部分向零截断
func Int(raw string, def int) int {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	v, ok := parse(s)
	if !ok || v > math.MaxInt32 || v < math.MinInt32 {
		return def
	}
	return int(v)
}

// OptionalFloat 宽松解析，空白或无法解析时返回 nil
func OptionalFloat(raw string) *float64 {
	v, ok := parse(raw)
	if !ok {
		return nil
	}
	return &v
}

func parse(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return float64(n), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
