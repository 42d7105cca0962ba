package security

import (
	"strings"
	"testing"
)

// TestValidateURL_AllowsPublicHosts は公開ホストのURLが許可されることを検証する。
func TestValidateURL_AllowsPublicHosts(t *testing.T) {
	g := NewOutboundGuard()

	urls := []string{
		"https://disease.sh/v3/covid-19/all",
		"https://api.rss2json.com/v1/api.json",
		"http://example.com/feed.xml",
	}
	for _, u := range urls {
		if err := g.ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
}

// TestValidateURL_BlocksDangerousTargets は危険なURLが拒否されることを検証する。
func TestValidateURL_BlocksDangerousTargets(t *testing.T) {
	g := NewOutboundGuard()

	urls := []string{
		"",
		"ftp://example.com/feed",
		"https://localhost/feed",
		"http://127.0.0.1/feed",
		"http://10.1.2.3/feed",
		"http://169.254.169.254/latest/meta-data",
		"http:///nohost",
	}
	for _, u := range urls {
		if err := g.ValidateURL(u); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", u)
		}
	}
}

// TestSanitize_RemovesScript はscriptタグが除去されることを検証する。
func TestSanitize_RemovesScript(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<p>outbreak update</p><script>alert(1)</script>`)
	if strings.Contains(got, "script") {
		t.Errorf("Sanitize出力にscriptが残っている: %q", got)
	}
	if !strings.Contains(got, "outbreak update") {
		t.Errorf("Sanitizeがテキストを落とした: %q", got)
	}
}

// TestSanitize_LinkPolicy はaタグにrel/targetが付与されることを検証する。
func TestSanitize_LinkPolicy(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<a href="https://www.who.int/news">WHO</a>`)
	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("target=_blankが付与されていない: %q", got)
	}
	if !strings.Contains(got, "noopener") {
		t.Errorf("rel=noopenerが付与されていない: %q", got)
	}
}

// TestSanitize_Idempotent は同一入力に同一出力を返すことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	in := `<p>hello <strong>world</strong><img src="https://x.test/a.png" alt="a"></p>`
	first := s.Sanitize(in)
	second := s.Sanitize(first)
	if first != second {
		t.Errorf("Sanitizeが冪等でない:\n1回目: %q\n2回目: %q", first, second)
	}
}

// TestSanitize_Empty は空入力に空出力を返すことを検証する。
func TestSanitize_Empty(t *testing.T) {
	s := NewContentSanitizer()
	if got := s.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want \"\"", got)
	}
}
