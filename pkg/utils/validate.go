package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var shortKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9]{1,10}$`)

// ValidateShortKey 校验短键是否合法（1-10 位字母数字）
func ValidateShortKey(shortKey string) error {
	if shortKey == "" {
		return fmt.Errorf("error.invalid_key_format")
	}

	if !shortKeyPattern.MatchString(shortKey) {
		return fmt.Errorf("error.invalid_key_format")
	}

	return nil
}

// NormalizeTargetURL 无 scheme 的目标 URL 统一补 http:// 前缀后入库
func NormalizeTargetURL(targetURL string) string {
	if !strings.HasPrefix(targetURL, "http://") && !strings.HasPrefix(targetURL, "https://") {
		return "http://" + targetURL
	}
	return targetURL
}

// ValidateTargetURL 校验目标 URL 的合法性（在归一化之后调用）
func ValidateTargetURL(targetURL string) error {
	// 1. 检查目标 URL 是否为空
	if targetURL == "" {
		return fmt.Errorf("error.target_url_required")
	}

	// 2. URL 格式校验
	if _, err := url.ParseRequestURI(targetURL); err != nil {
		return fmt.Errorf("error.target_url_invalid")
	}

	// 3. URL 长度限制
	if len(targetURL) > 2048 {
		return fmt.Errorf("error.target_url_max_length")
	}
	return nil
}
