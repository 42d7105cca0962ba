package disease

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/epiwatch/internal/model"
)

// backendDisease は管理バックエンドが返す疾病レコードのワイヤ表現。
type backendDisease struct {
	ID                int             `json:"id"`
	Name              string          `json:"name"`
	TotalCases        int64           `json:"totalCases"`
	ActiveCases       int64           `json:"activeCases"`
	Deaths            int64           `json:"deaths"`
	RecoveredCases    int64           `json:"recoveredCases"`
	AffectedCountries int             `json:"affectedCountries"`
	Description       string          `json:"description"`
	Symptoms          string          `json:"symptoms"`
	Prevention        string          `json:"prevention"`
	Treatment         string          `json:"treatment"`
	Severity          model.Severity  `json:"severity"`
	Featured          bool            `json:"featured"`
	Source            string          `json:"source"`
	CreatedAt         *time.Time      `json:"createdAt"`
	UpdatedAt         *time.Time      `json:"updatedAt"`
}

// BackendClient は管理バックエンドの公開疾病一覧を認証なしで取得する。
type BackendClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewBackendClient はBackendClientを生成する。
func NewBackendClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *BackendClient {
	return &BackendClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchDiseases はバックエンドの /diseases から疾病カタログを取得する。
// バックエンド停止時の呼び出し元のフォールバック判断のため、エラーは握り潰さず返す。
func (c *BackendClient) FetchDiseases(ctx context.Context) ([]model.Disease, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/diseases", nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("バックエンドへのリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("バックエンドが異常なステータスを返しました: status=%d", resp.StatusCode)
	}

	var rows []backendDisease
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("レスポンスのデコードに失敗しました: %w", err)
	}

	diseases := make([]model.Disease, 0, len(rows))
	for _, row := range rows {
		diseases = append(diseases, mapBackendDisease(row))
	}
	return diseases, nil
}

// mapBackendDisease はワイヤ表現を内部モデルに変換する。
// 欠落フィールドにはバックエンド由来レコードの既定値を補う。
func mapBackendDisease(row backendDisease) model.Disease {
	d := model.Disease{
		ID:                row.ID,
		Name:              row.Name,
		TotalCases:        row.TotalCases,
		ActiveCases:       row.ActiveCases,
		Deaths:            row.Deaths,
		RecoveredCases:    row.RecoveredCases,
		AffectedCountries: row.AffectedCountries,
		Description:       row.Description,
		Symptoms:          row.Symptoms,
		Prevention:        row.Prevention,
		Treatment:         row.Treatment,
		Severity:          row.Severity,
		Featured:          row.Featured,
		Source:            row.Source,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if d.Severity == "" {
		d.Severity = model.SeverityModerate
	}
	if d.Source == "" {
		d.Source = "Backend"
	}
	switch {
	case row.UpdatedAt != nil:
		d.LastUpdated = *row.UpdatedAt
	case row.CreatedAt != nil:
		d.LastUpdated = *row.CreatedAt
	}
	return d
}
