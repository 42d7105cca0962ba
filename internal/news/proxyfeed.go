package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/epiwatch/internal/metrics"
	"github.com/hitoshi/epiwatch/internal/model"
)

// ProxyFeedSource はCORSプロキシ経由で素のRSS XMLを取得して解析する。
// 国連ニュースの保健トピックフィードはこの経路で読む。
type ProxyFeedSource struct {
	httpClient *http.Client
	logger     *slog.Logger
	recorder   metrics.Recorder
	parser     *gofeed.Parser
	proxyBase  string // 例: https://api.allorigins.win/raw?url=
	feedURL    string
	maxItems   int
	name       string
	idPrefix   string
	category   string
	now        func() time.Time
}

// NewProxyFeedSource はProxyFeedSourceを生成する。
func NewProxyFeedSource(httpClient *http.Client, logger *slog.Logger, recorder metrics.Recorder, proxyBase, feedURL string) *ProxyFeedSource {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &ProxyFeedSource{
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
		parser:     gofeed.NewParser(),
		proxyBase:  proxyBase,
		feedURL:    feedURL,
		maxItems:   20,
		name:       "UN News",
		idPrefix:   "un",
		category:   "Global Health",
		now:        time.Now,
	}
}

// Name はソースの表示名を返す。
func (s *ProxyFeedSource) Name() string { return s.name }

// Fetch はプロキシ越しにフィードを取得して先頭maxItems件を正規化する。
func (s *ProxyFeedSource) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	endpoint := s.proxyBase + url.QueryEscape(s.feedURL)

	start := s.now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.recorder.RecordUpstreamFailure(s.name)
		return nil, fmt.Errorf("%sフィードの取得に失敗しました: %w", s.name, err)
	}
	defer resp.Body.Close()

	s.recorder.RecordUpstreamStatus(resp.StatusCode)
	s.recorder.RecordUpstreamLatency(s.name, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		s.recorder.RecordUpstreamFailure(s.name)
		return nil, fmt.Errorf("%sフィードが異常なステータスを返しました: status=%d", s.name, resp.StatusCode)
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		s.recorder.RecordUpstreamFailure(s.name)
		return nil, fmt.Errorf("%sフィードの解析に失敗しました: %w", s.name, err)
	}

	entries := feed.Items
	if len(entries) > s.maxItems {
		entries = entries[:s.maxItems]
	}

	now := s.now()
	items := make([]model.NewsItem, 0, len(entries))
	for i, entry := range entries {
		if entry.Title == "" || entry.Link == "" {
			continue
		}
		publishedAt := now
		if entry.PublishedParsed != nil {
			publishedAt = *entry.PublishedParsed
		}
		items = append(items, model.NewsItem{
			ID:          fmt.Sprintf("%s-%d-%d", s.idPrefix, now.UnixMilli(), i),
			Title:       entry.Title,
			Summary:     ExtractSummary(entry.Description),
			Content:     entry.Description,
			PublishedAt: publishedAt,
			Source:      s.name,
			Category:    s.category,
			URL:         entry.Link,
		})
	}

	s.recorder.RecordUpstreamSuccess(s.name)
	return items, nil
}
