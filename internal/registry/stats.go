package registry

import (
	"context"

	"shorturl-go/internal/model"
)

// AllLinks 全量短链列表（定时统计任务用）
func (r *URLRegistry) AllLinks(ctx context.Context) ([]model.ShortLink, error) {
	var links []model.ShortLink
	if err := r.db.WithContext(ctx).Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// UpsertDailyStat 写入或更新某短链某日的点击/访客统计
func (r *URLRegistry) UpsertDailyStat(ctx context.Context, shortLinkID uint, date string, clicks, visitors int64) error {
	stat := &model.DailyStat{
		ShortLinkID: shortLinkID,
		Date:        date,
		Clicks:      clicks,
		Visitors:    visitors,
	}

	return r.db.WithContext(ctx).
		Where("short_link_id = ? AND date = ?", shortLinkID, date).
		Assign("clicks", clicks, "visitors", visitors).
		FirstOrCreate(stat).Error
}

// StatsByShortLinkID 按日期倒序返回某短链的每日统计
func (r *URLRegistry) StatsByShortLinkID(ctx context.Context, shortLinkID uint) ([]model.DailyStat, error) {
	var stats []model.DailyStat
	err := r.db.WithContext(ctx).
		Where("short_link_id = ?", shortLinkID).
		Order("date DESC").
		Find(&stats).Error
	return stats, err
}
