package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/epiwatch/internal/localstore"
	"github.com/hitoshi/epiwatch/internal/model"
)

// CuratedStore はローカルストアの運用者ニュースを読み出す。
// news.CuratedStore を実装し、公開フィードへのマージに使われる。
type CuratedStore struct {
	store SessionStore
}

// NewCuratedStore はCuratedStoreを生成する。
func NewCuratedStore(store SessionStore) *CuratedStore {
	return &CuratedStore{store: store}
}

// CuratedNews は保存済みの運用者ニュース一覧を返す。
// 未保存の場合は空リストを返す。
func (s *CuratedStore) CuratedNews(ctx context.Context) ([]model.CuratedNewsItem, error) {
	raw, ok, err := s.store.Get(ctx, localstore.KeyAdminNews)
	if err != nil {
		return nil, fmt.Errorf("運用者ニュースの読み込みに失敗しました: %w", err)
	}
	if !ok {
		return []model.CuratedNewsItem{}, nil
	}
	var items []model.CuratedNewsItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("運用者ニュースの解析に失敗しました: %w", err)
	}
	return items, nil
}
