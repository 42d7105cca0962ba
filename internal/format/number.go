// Package format は表示用の数値整形ヘルパーを提供する。
package format

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Abbreviate は大きな数値を K/M/B 付きの短縮表記に整形する。
// 小数第1位まで表示し、末尾の ".0" は省略する（例: 1500000 -> "1.5M"）。
func Abbreviate(num int64) string {
	abs := num
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1e9:
		return trimZero(float64(num)/1e9) + "B"
	case abs >= 1e6:
		return trimZero(float64(num)/1e6) + "M"
	case abs >= 1e3:
		return trimZero(float64(num)/1e3) + "K"
	}
	return strconv.FormatInt(num, 10)
}

// Comma は桁区切りカンマ付きの完全表記に整形する（例: 1234567 -> "1,234,567"）。
// ツールチップや詳細表示向け。
func Comma(num int64) string {
	return humanize.Comma(num)
}

// trimZero は小数第1位までの表記から末尾の ".0" を取り除く。
func trimZero(v float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(v, 'f', 1, 64), ".0")
}
