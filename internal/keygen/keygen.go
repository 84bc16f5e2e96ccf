package keygen

import (
	"crypto/rand"

	"shorturl-go/pkg/utils"
)

const (
	// GeneratedKeyLength 系统生成短键固定 6 位，62^6 ≈ 5.7e10 个组合
	GeneratedKeyLength = 6

	charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// maxUsableByte 之上的随机字节丢弃重采，256 不是 62 的整倍数，直接取模会偏向前 8 个字符
const maxUsableByte = byte(len(charset) * (256 / len(charset)))

// Generate 生成随机短键，各字符等概率。不保证唯一，调用方需在入库时校验冲突并重试
func Generate() string {
	key := make([]byte, 0, GeneratedKeyLength)
	buf := make([]byte, GeneratedKeyLength)
	for len(key) < GeneratedKeyLength {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if b >= maxUsableByte {
				continue
			}
			key = append(key, charset[int(b)%len(charset)])
			if len(key) == GeneratedKeyLength {
				break
			}
		}
	}
	return string(key)
}

// ValidateCustomKey 校验用户自定义短键（1-10 位字母数字）
func ValidateCustomKey(key string) error {
	return utils.ValidateShortKey(key)
}
