package i18n

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// LocalizerContextKey 请求上下文中的 Localizer
type contextKey string

const LocalizerContextKey contextKey = "i18n.Localizer"

// SupportedLanguages 是加载时维护的支持语言列表
var SupportedLanguages []string

// InitI18n 初始化 i18n 包（加载 TOML 消息文件）
func InitI18n(filePaths []string, defaultLang string) (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.MustParse(defaultLang))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	SupportedLanguages = make([]string, 0)

	for _, filePath := range filePaths {
		file, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}

		// 文件名即语言标签（en.toml -> "en"）
		lang := extractLanguageFromPath(filePath)
		SupportedLanguages = append(SupportedLanguages, lang)

		_, err = bundle.ParseMessageFileBytes(file, filePath)
		if err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

func extractLanguageFromPath(filePath string) string {
	baseName := filepath.Base(filePath)
	return strings.TrimSuffix(baseName, filepath.Ext(baseName))
}

// Localize 本地化消息 ID。非消息 ID（不含 "."）或无 Localizer 时原样返回
func Localize(ctx context.Context, messageID string) string {
	if !strings.Contains(messageID, ".") {
		return messageID
	}

	localizer, ok := ctx.Value(LocalizerContextKey).(*i18n.Localizer)
	if !ok {
		return messageID
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		return messageID
	}
	return msg
}
