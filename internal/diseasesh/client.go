// Package diseasesh はdisease.sh公開APIのクライアントを提供する。
// COVID-19の全世界・国別・大陸別集計の取得を含む。
package diseasesh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/epiwatch/internal/metrics"
)

// defaultBaseURL はdisease.sh APIのベースURL。
const defaultBaseURL = "https://disease.sh"

// sourceLabel はメトリクス用のソース名。
const sourceLabel = "disease-sh"

// Global は全世界集計レスポンスを表す。
type Global struct {
	Cases               int64   `json:"cases"`
	TodayCases          int64   `json:"todayCases"`
	Deaths              int64   `json:"deaths"`
	TodayDeaths         int64   `json:"todayDeaths"`
	Recovered           int64   `json:"recovered"`
	TodayRecovered      int64   `json:"todayRecovered"`
	Active              int64   `json:"active"`
	Critical            int64   `json:"critical"`
	ActivePerOneMillion float64 `json:"activePerOneMillion"`
	DeathsPerOneMillion float64 `json:"deathsPerOneMillion"`
	Tests               int64   `json:"tests"`
	TestsPerOneMillion  float64 `json:"testsPerOneMillion"`
	Population          int64   `json:"population"`
	AffectedCountries   int     `json:"affectedCountries"`
	Updated             int64   `json:"updated"` // エポックミリ秒
}

// CountryInfo は国メタデータを表す。
type CountryInfo struct {
	ISO2 string  `json:"iso2"`
	ISO3 string  `json:"iso3"`
	Flag string  `json:"flag"`
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Country は国別集計レスポンスの1件を表す。
type Country struct {
	Country             string      `json:"country"`
	CountryInfo         CountryInfo `json:"countryInfo"`
	Cases               int64       `json:"cases"`
	TodayCases          int64       `json:"todayCases"`
	Deaths              int64       `json:"deaths"`
	TodayDeaths         int64       `json:"todayDeaths"`
	Recovered           int64       `json:"recovered"`
	Active              int64       `json:"active"`
	Critical            int64       `json:"critical"`
	CasesPerOneMillion  float64     `json:"casesPerOneMillion"`
	DeathsPerOneMillion float64     `json:"deathsPerOneMillion"`
	Tests               int64       `json:"tests"`
	TestsPerOneMillion  float64     `json:"testsPerOneMillion"`
	Population          int64       `json:"population"`
	Continent           string      `json:"continent"`
	Updated             int64       `json:"updated"`
}

// Continent は大陸別集計レスポンスの1件を表す。
type Continent struct {
	Continent           string   `json:"continent"`
	Countries           []string `json:"countries"`
	Population          int64    `json:"population"`
	Cases               int64    `json:"cases"`
	Deaths              int64    `json:"deaths"`
	Recovered           int64    `json:"recovered"`
	Active              int64    `json:"active"`
	Critical            int64    `json:"critical"`
	TodayCases          int64    `json:"todayCases"`
	TodayDeaths         int64    `json:"todayDeaths"`
	CasesPerOneMillion  float64  `json:"casesPerOneMillion"`
	DeathsPerOneMillion float64  `json:"deathsPerOneMillion"`
	Tests               int64    `json:"tests"`
	TestsPerOneMillion  float64  `json:"testsPerOneMillion"`
}

// Client はdisease.sh APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	recorder   metrics.Recorder
	baseURL    string // 設定・テストでエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, recorder metrics.Recorder) *Client {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
		baseURL:    defaultBaseURL,
	}
}

// SetBaseURL はAPIのベースURLを差し替える。空文字列の場合は変更しない。
func (c *Client) SetBaseURL(baseURL string) {
	if baseURL == "" {
		return
	}
	c.baseURL = baseURL
}

// FetchGlobal は全世界のCOVID-19集計を取得する。
func (c *Client) FetchGlobal(ctx context.Context) (*Global, error) {
	var out Global
	if err := c.getJSON(ctx, c.baseURL+"/v3/covid-19/all", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchCountries は国別のCOVID-19集計を取得する。
func (c *Client) FetchCountries(ctx context.Context) ([]Country, error) {
	var out []Country
	if err := c.getJSON(ctx, c.baseURL+"/v3/covid-19/countries", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchContinents は大陸別のCOVID-19集計を取得する。
func (c *Client) FetchContinents(ctx context.Context) ([]Continent, error) {
	var out []Continent
	if err := c.getJSON(ctx, c.baseURL+"/v3/covid-19/continents", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// getJSON はGETリクエストを実行してJSONレスポンスをデコードする。
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Epiwatch/1.0 Disease Dashboard")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.RecordUpstreamFailure(sourceLabel)
		c.logger.Error("disease.sh APIの呼び出しに失敗しました",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	c.recorder.RecordUpstreamStatus(resp.StatusCode)
	c.recorder.RecordUpstreamLatency(sourceLabel, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		c.recorder.RecordUpstreamFailure(sourceLabel)
		c.logger.Error("disease.sh APIがエラーステータスを返しました",
			slog.String("url", url),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("disease.sh APIがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recorder.RecordUpstreamFailure(sourceLabel)
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.recorder.RecordUpstreamFailure(sourceLabel)
		c.logger.Error("disease.sh APIのレスポンスのパースに失敗しました",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	c.recorder.RecordUpstreamSuccess(sourceLabel)
	return nil
}
