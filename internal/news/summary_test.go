package news

import (
	"strings"
	"testing"
)

func TestExtractSummary(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "HTMLタグを除去する",
			content: "<p>Outbreak of <strong>cholera</strong> reported.</p>",
			want:    "Outbreak of cholera reported.",
		},
		{
			name:    "空白を正規化する",
			content: "Multiple   spaces\n\nand\tnewlines",
			want:    "Multiple spaces and newlines",
		},
		{
			name:    "空文字列はそのまま",
			content: "",
			want:    "",
		},
		{
			name:    "実体参照をデコードする",
			content: "Cases &amp; deaths",
			want:    "Cases & deaths",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractSummary(tt.content); got != tt.want {
				t.Errorf("ExtractSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractSummaryTruncatesLongContent(t *testing.T) {
	content := strings.Repeat("a", 300)
	got := ExtractSummary(content)
	if len(got) != 203 {
		t.Errorf("len(got) = %d, want 203", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("got = %q, want ...で終わる", got)
	}
}

func TestExtractSummaryExactBoundary(t *testing.T) {
	content := strings.Repeat("b", 200)
	got := ExtractSummary(content)
	if got != content {
		t.Errorf("200文字ちょうどは切り詰めない: len = %d", len(got))
	}
}
