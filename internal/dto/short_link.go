package dto

import "shorturl-go/internal/model"

// CreateShortLinkRequest 用于创建短链的请求参数
type CreateShortLinkRequest struct {
	TargetURL string `json:"targetUrl" binding:"required,max=2048"`
	// 自定义短键，留空则由系统生成
	CustomKey string `json:"customKey" binding:"omitempty,alphanum,max=10"`
	// 有效天数，0 表示使用默认策略
	TTLDays int `json:"ttlDays" binding:"omitempty,min=0,max=3650"`
}

// UpdateShortLinkRequest 用于更新短链目标地址的请求参数
type UpdateShortLinkRequest struct {
	TargetURL string `json:"targetUrl" binding:"required,max=2048" msg:"targetUrl must be a valid URL"`
}

// ShortLinkResponse 短链详情（跳转地址由服务端拼好返回）
type ShortLinkResponse struct {
	model.ShortLink
	ShortURL   string `json:"shortUrl"`
	HasQRImage bool   `json:"hasQrImage"`
}
