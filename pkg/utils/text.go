package utils

import (
	"unicode/utf8"
)

const (
	// GitHubの各種テキスト長制限
	// https://docs.github.com/en/rest/issues/issues?apiVersion=2022-11-28
	MaxIssueTitleLength       = 256   // Issueのタイトル最大長
	MaxIssueBodyLength        = 65536 // Issueの本文最大長（64KB）
	MaxCommentLength          = 65536 // コメントの最大長（64KB）
	MaxLabelDescriptionLength = 100   // ラベルの説明最大長

	// フッター用に確保しておく長さ
	FooterReserve = 512

	// 切り詰め表示用のサフィックス
	TruncateSuffix = "... [truncated]"
)

// TruncateText は指定された最大長に基づいてテキストを切り詰めます
func TruncateText(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}

	// 最大長からサフィックス長を引いた長さまで切り詰める
	availableLength := maxLength - utf8.RuneCountInString(TruncateSuffix)
	if availableLength <= 0 {
		return TruncateRunes(text, maxLength)
	}

	runes := []rune(text)
	return string(runes[:availableLength]) + TruncateSuffix
}

// TruncateRunes はサフィックスを付けずに最大長で切ります
func TruncateRunes(text string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLength])
}
