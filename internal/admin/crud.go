package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/epiwatch/internal/model"
)

// AllDiseases は管理対象の疾病一覧を返す。
func (c *Client) AllDiseases(ctx context.Context) ([]model.Disease, error) {
	data, err := c.do(ctx, http.MethodGet, "/admin/diseases", nil)
	if err != nil {
		return nil, err
	}
	var diseases []model.Disease
	if err := json.Unmarshal(data, &diseases); err != nil {
		return nil, fmt.Errorf("疾病一覧の解析に失敗しました: %w", err)
	}
	return diseases, nil
}

// Disease は疾病を1件返す。
func (c *Client) Disease(ctx context.Context, id int) (*model.Disease, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/admin/diseases/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var disease model.Disease
	if err := json.Unmarshal(data, &disease); err != nil {
		return nil, fmt.Errorf("疾病レコードの解析に失敗しました: %w", err)
	}
	return &disease, nil
}

// CreateDisease は疾病レコードを登録する。
func (c *Client) CreateDisease(ctx context.Context, disease model.Disease) (*model.Disease, error) {
	data, err := c.do(ctx, http.MethodPost, "/admin/diseases", disease)
	if err != nil {
		return nil, err
	}
	var created model.Disease
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("登録結果の解析に失敗しました: %w", err)
	}
	return &created, nil
}

// UpdateDisease は疾病レコードを更新する。
func (c *Client) UpdateDisease(ctx context.Context, id int, disease model.Disease) (*model.Disease, error) {
	data, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/admin/diseases/%d", id), disease)
	if err != nil {
		return nil, err
	}
	var updated model.Disease
	if err := json.Unmarshal(data, &updated); err != nil {
		return nil, fmt.Errorf("更新結果の解析に失敗しました: %w", err)
	}
	return &updated, nil
}

// DeleteDisease は疾病レコードを削除する。
func (c *Client) DeleteDisease(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/diseases/%d", id), nil)
	return err
}

// ToggleDiseaseVisibility は疾病のfeaturedフラグを反転させる。
// 取得してから反転更新する2段階の操作。
func (c *Client) ToggleDiseaseVisibility(ctx context.Context, id int) (*model.Disease, error) {
	disease, err := c.Disease(ctx, id)
	if err != nil {
		return nil, err
	}
	disease.Featured = !disease.Featured
	return c.UpdateDisease(ctx, id, *disease)
}

// AllNews は運用者登録ニュースの一覧を返す。
func (c *Client) AllNews(ctx context.Context) ([]model.CuratedNewsItem, error) {
	data, err := c.do(ctx, http.MethodGet, "/admin/news", nil)
	if err != nil {
		return nil, err
	}
	var items []model.CuratedNewsItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("ニュース一覧の解析に失敗しました: %w", err)
	}
	return items, nil
}

// CreateNews は運用者ニュースを登録する。
func (c *Client) CreateNews(ctx context.Context, item model.CuratedNewsItem) (*model.CuratedNewsItem, error) {
	data, err := c.do(ctx, http.MethodPost, "/admin/news", item)
	if err != nil {
		return nil, err
	}
	var created model.CuratedNewsItem
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("登録結果の解析に失敗しました: %w", err)
	}
	return &created, nil
}

// UpdateNews は運用者ニュースを更新する。
func (c *Client) UpdateNews(ctx context.Context, id string, item model.CuratedNewsItem) (*model.CuratedNewsItem, error) {
	data, err := c.do(ctx, http.MethodPut, "/admin/news/"+id, item)
	if err != nil {
		return nil, err
	}
	var updated model.CuratedNewsItem
	if err := json.Unmarshal(data, &updated); err != nil {
		return nil, fmt.Errorf("更新結果の解析に失敗しました: %w", err)
	}
	return &updated, nil
}

// DeleteNews は運用者ニュースを削除する。
func (c *Client) DeleteNews(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/admin/news/"+id, nil)
	return err
}

// ToggleNewsVisibility はニュースの公開状態を反転させる。
func (c *Client) ToggleNewsVisibility(ctx context.Context, id string) (*model.CuratedNewsItem, error) {
	data, err := c.do(ctx, http.MethodPut, "/admin/news/"+id+"/toggle-visibility", nil)
	if err != nil {
		return nil, err
	}
	var updated model.CuratedNewsItem
	if err := json.Unmarshal(data, &updated); err != nil {
		return nil, fmt.Errorf("更新結果の解析に失敗しました: %w", err)
	}
	return &updated, nil
}

// AllAPIKeys はAPIキー一覧を返す。
func (c *Client) AllAPIKeys(ctx context.Context) ([]model.APIKeyRecord, error) {
	data, err := c.do(ctx, http.MethodGet, "/admin/api-keys", nil)
	if err != nil {
		return nil, err
	}
	var keys []model.APIKeyRecord
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("APIキー一覧の解析に失敗しました: %w", err)
	}
	return keys, nil
}

// APIKeyByName は名前でAPIキーを1件返す。
func (c *Client) APIKeyByName(ctx context.Context, name string) (*model.APIKeyRecord, error) {
	data, err := c.do(ctx, http.MethodGet, "/admin/api-keys/"+name, nil)
	if err != nil {
		return nil, err
	}
	var key model.APIKeyRecord
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("APIキーの解析に失敗しました: %w", err)
	}
	return &key, nil
}

// CreateAPIKey はAPIキーを登録する。
func (c *Client) CreateAPIKey(ctx context.Context, key model.APIKeyRecord) (*model.APIKeyRecord, error) {
	data, err := c.do(ctx, http.MethodPost, "/admin/api-keys", key)
	if err != nil {
		return nil, err
	}
	var created model.APIKeyRecord
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("登録結果の解析に失敗しました: %w", err)
	}
	return &created, nil
}

// UpdateAPIKey はAPIキーを更新する。
func (c *Client) UpdateAPIKey(ctx context.Context, id int, key model.APIKeyRecord) (*model.APIKeyRecord, error) {
	data, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/admin/api-keys/%d", id), key)
	if err != nil {
		return nil, err
	}
	var updated model.APIKeyRecord
	if err := json.Unmarshal(data, &updated); err != nil {
		return nil, fmt.Errorf("更新結果の解析に失敗しました: %w", err)
	}
	return &updated, nil
}

// DeleteAPIKey はAPIキーを削除する。
func (c *Client) DeleteAPIKey(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/api-keys/%d", id), nil)
	return err
}

// ToggleAPIKeyStatus はAPIキーの有効状態を反転させる。
func (c *Client) ToggleAPIKeyStatus(ctx context.Context, id int) (*model.APIKeyRecord, error) {
	data, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/admin/api-keys/%d/toggle-status", id), nil)
	if err != nil {
		return nil, err
	}
	var updated model.APIKeyRecord
	if err := json.Unmarshal(data, &updated); err != nil {
		return nil, fmt.Errorf("更新結果の解析に失敗しました: %w", err)
	}
	return &updated, nil
}

// PublicAPIKey は認証なしの公開参照でAPIキーを返す。
// 取得できない場合は(nil, nil)を返し、呼び出し側はキー未登録として扱う。
// news.KeyProvider を実装する。
func (c *Client) PublicAPIKey(ctx context.Context, name string) (*model.APIKeyRecord, error) {
	resp, data, err := c.send(ctx, c.httpClient, http.MethodGet, "/public/api-keys/"+name, nil, false)
	if err != nil {
		c.logger.Debug("公開APIキーの取得に失敗しました", slog.String("name", name), slog.String("error", err.Error()))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	var key model.APIKeyRecord
	if err := json.Unmarshal(data, &key); err != nil {
		c.logger.Debug("公開APIキーの解析に失敗しました", slog.String("error", err.Error()))
		return nil, nil
	}
	return &key, nil
}
