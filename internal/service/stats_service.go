package service

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"shorturl-go/constant"
	"shorturl-go/internal/model"
)

// RecordDailyClick 记录每日点击数（hash，field 为短键）
func RecordDailyClick(conn redis.Conn, shortKey string) {
	dailyClicksKey := constant.GetDailyClicksKey(constant.GetDateKey())

	_, err := conn.Do("HINCRBY", dailyClicksKey, shortKey, 1)
	if err != nil {
		zap.L().Error("Failed to record daily clicks",
			zap.String("key", dailyClicksKey),
			zap.String("short_key", shortKey),
			zap.Error(err))
	}

	_, err = conn.Do("EXPIRE", dailyClicksKey, 3*24*3600) // 3天过期
	if err != nil {
		zap.L().Error("Failed to set daily clicks expire",
			zap.String("key", dailyClicksKey),
			zap.String("short_key", shortKey),
			zap.Error(err))
	}
}

// RecordDailyVisitor 记录每日独立访客（HyperLogLog，按来源 IP）
func RecordDailyVisitor(conn redis.Conn, shortKey string, ip string) {
	dailyVisitorsKey := constant.GetDailyVisitorsKey(shortKey, constant.GetDateKey())

	_, err := conn.Do("PFADD", dailyVisitorsKey, ip)
	if err != nil {
		zap.L().Error("Failed to record daily visitors",
			zap.String("key", dailyVisitorsKey),
			zap.String("ip", ip),
			zap.Error(err))
	}

	_, err = conn.Do("EXPIRE", dailyVisitorsKey, 3*24*3600)
	if err != nil {
		zap.L().Error("Failed to set daily visitors expire",
			zap.String("key", dailyVisitorsKey),
			zap.String("short_key", shortKey),
			zap.Error(err))
	}
}

// GetDailyClicks 读取某日的短链点击数
func GetDailyClicks(conn redis.Conn, shortKey string, date string) (int64, error) {
	dailyClicksKey := constant.GetDailyClicksKey(date)

	reply, err := conn.Do("HGET", dailyClicksKey, shortKey)
	if err != nil {
		zap.L().Error("Failed to get daily clicks",
			zap.String("key", dailyClicksKey),
			zap.String("short_key", shortKey),
			zap.Error(err))
		return 0, err
	}
	if reply == nil {
		return 0, nil
	}

	return redis.Int64(reply, err)
}

// GetDailyVisitors 读取某日的短链独立访客数
func GetDailyVisitors(conn redis.Conn, shortKey string, date string) (int64, error) {
	dailyVisitorsKey := constant.GetDailyVisitorsKey(shortKey, date)

	reply, err := conn.Do("PFCOUNT", dailyVisitorsKey)
	if err != nil {
		zap.L().Error("Failed to get daily visitors",
			zap.String("key", dailyVisitorsKey),
			zap.String("short_key", shortKey),
			zap.Error(err))
		return 0, err
	}

	return redis.Int64(reply, err)
}

// FlushDailyStats 定时任务：把 redis 中的当日点击/访客数落库到 daily_stats。
// 权威点击计数始终是 short_links.click_count，这里只是按日切片
func (s *RedirectService) FlushDailyStats(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}

	zap.L().Info("FlushDailyStats start")

	links, err := s.registry.AllLinks(ctx)
	if err != nil {
		zap.L().Error("Failed to list short links for stats flush", zap.Error(err))
		return err
	}

	today := time.Now().Format("2006-01-02")
	dateKey := constant.GetDateKey()
	for i := range links {
		s.flushLinkStats(ctx, &links[i], today, dateKey)
	}

	zap.L().Info("FlushDailyStats end")
	return nil
}

func (s *RedirectService) flushLinkStats(ctx context.Context, link *model.ShortLink, today, dateKey string) {
	conn := s.redis.Get()
	defer s.closeConn(conn)

	clicks, _ := GetDailyClicks(conn, link.ShortKey, dateKey)
	visitors, _ := GetDailyVisitors(conn, link.ShortKey, dateKey)

	// 当日无访问则不落空行
	if clicks == 0 && visitors == 0 {
		return
	}

	if err := s.registry.UpsertDailyStat(ctx, link.ID, today, clicks, visitors); err != nil {
		zap.L().Error("Failed to upsert daily stat",
			zap.Uint("short_link_id", link.ID),
			zap.String("date", today),
			zap.Int64("clicks", clicks),
			zap.Int64("visitors", visitors),
			zap.Error(err))
	}
}
