package qr

import (
	"shorturl-go/internal/apperrors"

	qrcode "github.com/skip2/go-qrcode"
)

// ImageSize 输出 PNG 边长（像素）
const ImageSize = 256

// Encode 将跳转 URL 渲染为 PNG 二维码，容错等级 Low（约 7%）。
// 纯函数：同一 payload 的输出字节一致，无 I/O。
// payload 超出符号容量时返回错误，由调用方降级为“无二维码”
func Encode(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Low, ImageSize)
	if err != nil {
		return nil, apperrors.EncodingFailedError(err)
	}
	return png, nil
}
