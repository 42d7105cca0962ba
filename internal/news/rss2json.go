package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/epiwatch/internal/metrics"
	"github.com/hitoshi/epiwatch/internal/model"
)

// Source はニュース記事の取得元を表す。
// Fetch が返すエラーは1ソースの失敗境界として扱われ、他ソースの
// 結果には影響しない。
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.NewsItem, error)
}

// rss2jsonItem はRSS2JSONブリッジが返す記事のワイヤ表現。
type rss2jsonItem struct {
	Title       string `json:"title"`
	PubDate     string `json:"pubDate"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

type rss2jsonResponse struct {
	Status string         `json:"status"`
	Items  []rss2jsonItem `json:"items"`
}

// RSS2JSONSource はRSSフィードをRSS2JSONブリッジ経由でJSONとして取得する。
// WHOとCDCのフィードはこの経路で読む。
type RSS2JSONSource struct {
	httpClient *http.Client
	logger     *slog.Logger
	recorder   metrics.Recorder
	baseURL    string
	feedURL    string
	apiKey     string
	maxItems   int
	name       string
	idPrefix   string
	category   string
	now        func() time.Time
}

// RSS2JSONConfig はRSS2JSONSourceの生成パラメータ。
type RSS2JSONConfig struct {
	BaseURL  string
	FeedURL  string
	APIKey   string
	MaxItems int
	Name     string // 記事に付与する表示ソース名
	IDPrefix string // 合成IDの接頭辞
	Category string
}

// NewRSS2JSONSource はRSS2JSONSourceを生成する。
func NewRSS2JSONSource(httpClient *http.Client, logger *slog.Logger, recorder metrics.Recorder, cfg RSS2JSONConfig) *RSS2JSONSource {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &RSS2JSONSource{
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
		baseURL:    cfg.BaseURL,
		feedURL:    cfg.FeedURL,
		apiKey:     cfg.APIKey,
		maxItems:   cfg.MaxItems,
		name:       cfg.Name,
		idPrefix:   cfg.IDPrefix,
		category:   cfg.Category,
		now:        time.Now,
	}
}

// Name はソースの表示名を返す。
func (s *RSS2JSONSource) Name() string { return s.name }

// Fetch はブリッジから記事一覧を取得してドメインモデルに正規化する。
func (s *RSS2JSONSource) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	query := url.Values{}
	query.Set("rss_url", s.feedURL)
	if s.apiKey != "" {
		query.Set("api_key", s.apiKey)
	}
	query.Set("count", strconv.Itoa(s.maxItems))
	endpoint := s.baseURL + "/v1/api.json?" + query.Encode()

	start := s.now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")

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

	var payload rss2jsonResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.recorder.RecordUpstreamFailure(s.name)
		return nil, fmt.Errorf("%sフィードのデコードに失敗しました: %w", s.name, err)
	}

	nowMilli := s.now().UnixMilli()
	items := make([]model.NewsItem, 0, len(payload.Items))
	for i, item := range payload.Items {
		items = append(items, model.NewsItem{
			ID:          fmt.Sprintf("%s-%d-%d", s.idPrefix, nowMilli, i),
			Title:       item.Title,
			Summary:     ExtractSummary(item.Description),
			Content:     item.Description,
			PublishedAt: parsePubDate(item.PubDate),
			Source:      s.name,
			Category:    s.category,
			URL:         item.Link,
		})
	}

	s.recorder.RecordUpstreamSuccess(s.name)
	s.logger.Debug("フィードを取得しました", slog.String("source", s.name), slog.Int("count", len(items)))
	return items, nil
}

// parsePubDate は上流ごとに揺れる日時表記を解釈する。
// どの形式にも合致しない場合はゼロ値を返し、ソート順で末尾に回す。
func parsePubDate(raw string) time.Time {
	layouts := []string{
		"2006-01-02 15:04:05", // RSS2JSONの正規化形式
		time.RFC1123Z,
		time.RFC1123,
		time.RFC3339,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
