package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/epiwatch/internal/metrics"
	"github.com/hitoshi/epiwatch/internal/model"
)

const newsAPIQuery = "disease outbreak epidemic health WHO CDC pandemic"

// KeyProvider は第三者APIキーの公開参照口。
type KeyProvider interface {
	PublicAPIKey(ctx context.Context, name string) (*model.APIKeyRecord, error)
}

type newsAPIArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	PublishedAt string `json:"publishedAt"`
	URL         string `json:"url"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Articles []newsAPIArticle `json:"articles"`
}

// NewsAPISource はNewsAPIの /v2/everything から健康関連記事を取得する。
// 有効なAPIキーが登録されていないときは黙ってスキップし、
// 失敗ソースとしても数えない。
type NewsAPISource struct {
	httpClient *http.Client
	logger     *slog.Logger
	recorder   metrics.Recorder
	keys       KeyProvider
	baseURL    string
	maxItems   int
	now        func() time.Time
}

// NewNewsAPISource はNewsAPISourceを生成する。
func NewNewsAPISource(httpClient *http.Client, logger *slog.Logger, recorder metrics.Recorder, keys KeyProvider, baseURL string, maxItems int) *NewsAPISource {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &NewsAPISource{
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
		keys:       keys,
		baseURL:    baseURL,
		maxItems:   maxItems,
		now:        time.Now,
	}
}

// Name はソースの表示名を返す。
func (s *NewsAPISource) Name() string { return "NewsAPI" }

// Fetch は登録済みの有効なキーがある場合のみNewsAPIを呼び出す。
// キー未登録・無効のときは (nil, nil) を返す。
func (s *NewsAPISource) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	record, err := s.keys.PublicAPIKey(ctx, "NewsAPI")
	if err != nil {
		return nil, fmt.Errorf("NewsAPIキーの参照に失敗しました: %w", err)
	}
	if record == nil || !record.Active || record.KeyValue == "" {
		s.logger.Debug("NewsAPIキーが未登録のためスキップします")
		return nil, nil
	}

	query := url.Values{}
	query.Set("q", newsAPIQuery)
	query.Set("language", "en")
	query.Set("sortBy", "publishedAt")
	query.Set("pageSize", fmt.Sprintf("%d", s.maxItems))
	query.Set("apiKey", record.KeyValue)
	endpoint := s.baseURL + "/v2/everything?" + query.Encode()

	start := s.now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.recorder.RecordUpstreamFailure(s.Name())
		return nil, fmt.Errorf("NewsAPIへのリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	s.recorder.RecordUpstreamStatus(resp.StatusCode)
	s.recorder.RecordUpstreamLatency(s.Name(), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		s.recorder.RecordUpstreamFailure(s.Name())
		return nil, fmt.Errorf("NewsAPIが異常なステータスを返しました: status=%d", resp.StatusCode)
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.recorder.RecordUpstreamFailure(s.Name())
		return nil, fmt.Errorf("NewsAPIレスポンスのデコードに失敗しました: %w", err)
	}

	nowMilli := s.now().UnixMilli()
	items := make([]model.NewsItem, 0, len(payload.Articles))
	for i, article := range payload.Articles {
		if article.Title == "" || article.URL == "" {
			continue
		}
		item := model.NewsItem{
			ID:          fmt.Sprintf("newsapi-%d-%d", nowMilli, i),
			Title:       article.Title,
			Summary:     article.Description,
			Content:     article.Content,
			PublishedAt: parsePubDate(article.PublishedAt),
			Source:      article.Source.Name,
			Category:    "Health News",
			URL:         article.URL,
		}
		if item.Summary == "" {
			item.Summary = article.Title
		}
		if item.Content == "" {
			item.Content = item.Summary
		}
		if item.Source == "" {
			item.Source = "News"
		}
		items = append(items, item)
	}

	s.recorder.RecordUpstreamSuccess(s.Name())
	return items, nil
}
