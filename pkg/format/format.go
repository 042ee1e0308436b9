// Package format 提供API投影时统一的数值与时间格式
package format

import (
	"math"
	"time"
)

// Round2 四舍五入到两位小数
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// Round2Ptr 对可空数值四舍五入，nil保持nil
func Round2Ptr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := Round2(*f)
	return &v
}

// Time 输出ISO-8601 (RFC3339) 字符串，零值输出空字符串
func Time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
