package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestCollector_RecordsCounters はカウンタが登録・加算されることを検証する。
func TestCollector_RecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamSuccess("disease-sh")
	c.RecordUpstreamSuccess("disease-sh")
	c.RecordUpstreamFailure("who-rss")
	c.RecordUpstreamStatus(502)
	c.RecordUpstreamLatency("disease-sh", 120*time.Millisecond)
	c.RecordCacheHit("news")
	c.RecordCacheMiss("news")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		`epiwatch_upstream_success_total{source="disease-sh"} 2`,
		`epiwatch_upstream_fail_total{source="who-rss"} 1`,
		`epiwatch_upstream_status_total{status_code="502"} 1`,
		`epiwatch_cache_hit_total{client="news"} 1`,
		`epiwatch_cache_miss_total{client="news"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("メトリクス出力に %q が含まれていない", want)
		}
	}
}

// TestCollector_DuplicateRegistrationPanics は二重登録がpanicすることを検証する。
func TestCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("同一レジストリへの二重登録がpanicしなかった")
		}
	}()
	NewCollector(reg)
}
