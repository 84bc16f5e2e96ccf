package model

import "time"

type ShortLink struct {
	BaseModel
	ShortKey   string     `gorm:"uniqueIndex;size:10;not null" json:"shortKey"`
	TargetURL  string     `gorm:"size:2048;not null" json:"targetUrl"`
	OwnerID    string     `gorm:"index;size:64;not null" json:"ownerId"`
	ClickCount uint64     `gorm:"default:0" json:"clickCount"`
	QRImage    []byte     `gorm:"type:mediumblob" json:"-"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// Expired 过期判定：ExpiresAt 按天存储（当天零点生效），到点即不可跳转
func (l *ShortLink) Expired(now time.Time) bool {
	if l.ExpiresAt == nil {
		return false
	}
	return !now.Before(*l.ExpiresAt)
}

// HasQRImage QR 图为派生产物，创建后补写，允许暂缺
func (l *ShortLink) HasQRImage() bool {
	return len(l.QRImage) > 0
}
