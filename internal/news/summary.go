package news

import (
	"strings"

	"golang.org/x/net/html"
)

const summaryMaxLen = 200

// ExtractSummary は記事本文のHTMLからプレーンテキストの要約を生成する。
// タグを除去し、空白を単一スペースに正規化して、200文字を超える場合は
// 200文字で切り詰めて "..." を付ける。
func ExtractSummary(content string) string {
	if content == "" {
		return ""
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(tokenizer.Text())
			b.WriteByte(' ')
		}
	}

	text := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(text)
	if len(runes) > summaryMaxLen {
		return string(runes[:summaryMaxLen]) + "..."
	}
	return text
}
