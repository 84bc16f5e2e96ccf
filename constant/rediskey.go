package constant

import (
	"fmt"
	"time"
)

const (
	BasePrefix = "shorturl:"
	Separator  = ":"
)

// Redis 键模板
const (
	ShortKey      = BasePrefix + "key:%s"
	DailyClicks   = BasePrefix + "clicks" + Separator + "%s"                      // shorturl:clicks:yyyyMMdd
	DailyVisitors = BasePrefix + "visitors" + Separator + "%s" + Separator + "%s" // shorturl:visitors:yyyyMMdd:shortkey
)

// GetShortKeyCacheKey 生成短键缓存 key
func GetShortKeyCacheKey(shortKey string) string {
	return fmt.Sprintf(ShortKey, shortKey)
}

// GetDateKey 生成当前日期的键（格式：yyyyMMdd）
func GetDateKey() string {
	return time.Now().Format("20060102")
}

// GetDailyClicksKey 生成每日点击数键（hash，field 为短键）
func GetDailyClicksKey(date string) string {
	return fmt.Sprintf(DailyClicks, date)
}

// GetDailyVisitorsKey 生成每日独立访客键（HyperLogLog）
func GetDailyVisitorsKey(shortKey, date string) string {
	return fmt.Sprintf(DailyVisitors, date, shortKey)
}
