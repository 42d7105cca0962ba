package news

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/epiwatch/internal/localstore"
	"github.com/hitoshi/epiwatch/internal/model"
	"github.com/hitoshi/epiwatch/internal/security"
)

type stubSource struct {
	name  string
	items []model.NewsItem
	err   error
	calls atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	s.calls.Add(1)
	return s.items, s.err
}

type stubCurated struct {
	items []model.CuratedNewsItem
	err   error
}

func (s *stubCurated) CuratedNews(ctx context.Context) ([]model.CuratedNewsItem, error) {
	return s.items, s.err
}

func newsItem(id, title, url string, published time.Time) model.NewsItem {
	return model.NewsItem{ID: id, Title: title, URL: url, PublishedAt: published, Source: "test"}
}

func newTestService(t *testing.T, sources []Source, curated CuratedStore) *Service {
	t.Helper()
	return NewService(sources, curated, nil, security.NewContentSanitizer(), 15*time.Minute, testLogger())
}

func TestNewsMergesAndPaginates(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-1", "Alpha", "https://a", base.Add(2*time.Hour)),
		newsItem("who-2", "Beta", "https://b", base.Add(time.Hour)),
		newsItem("who-3", "Gamma", "https://c", base),
	}}
	svc := newTestService(t, []Source{src}, nil)

	page := svc.News(context.Background(), 1, 2)
	if len(page.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(page.Items))
	}
	if page.Items[0].Title != "Alpha" || page.Items[1].Title != "Beta" {
		t.Errorf("公開日時降順になっていない: %+v", page.Items)
	}
	p := page.Pagination
	if p.TotalItems != 3 || p.TotalPages != 2 || !p.HasNextPage || p.HasPrevPage {
		t.Errorf("pagination = %+v", p)
	}
}

func TestNewsDeduplicatesByTitleCaseInsensitive(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	who := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-1", "Cholera Outbreak", "https://who/a", base.Add(time.Hour)),
	}}
	cdc := &stubSource{name: "CDC", items: []model.NewsItem{
		newsItem("cdc-1", "CHOLERA OUTBREAK", "https://cdc/a", base),
		newsItem("cdc-2", "Other story", "https://cdc/b", base),
	}}
	svc := newTestService(t, []Source{who, cdc}, nil)

	page := svc.News(context.Background(), 1, 10)
	if page.Pagination.TotalItems != 2 {
		t.Fatalf("TotalItems = %d, want 2 (重複排除後)", page.Pagination.TotalItems)
	}
	// 新しい方が先に並び、先勝ちで残る
	if page.Items[0].ID != "who-1" {
		t.Errorf("Items[0].ID = %q, want who-1", page.Items[0].ID)
	}
}

func TestNewsDropsInvalidItems(t *testing.T) {
	base := time.Now()
	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("1", "", "https://a", base),
		newsItem("2", "No URL", "", base),
		newsItem("3", "Valid", "https://b", base),
	}}
	svc := newTestService(t, []Source{src}, nil)

	page := svc.News(context.Background(), 1, 10)
	if page.Pagination.TotalItems != 1 {
		t.Fatalf("TotalItems = %d, want 1", page.Pagination.TotalItems)
	}
}

func TestNewsPartialSourceFailure(t *testing.T) {
	ok := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-1", "Alpha", "https://a", time.Now()),
	}}
	broken := &stubSource{name: "CDC", err: errors.New("bad gateway")}
	svc := newTestService(t, []Source{ok, broken}, nil)

	page := svc.News(context.Background(), 1, 10)
	if page.Pagination.TotalItems != 1 {
		t.Fatalf("TotalItems = %d, want 1 (片側失敗でも継続)", page.Pagination.TotalItems)
	}
}

func TestNewsAllSourcesFailedReturnsEmptyPage(t *testing.T) {
	broken := &stubSource{name: "WHO", err: errors.New("down")}
	svc := newTestService(t, []Source{broken}, nil)

	page := svc.News(context.Background(), 1, 10)
	if len(page.Items) != 0 {
		t.Fatalf("Items = %+v, want 空", page.Items)
	}
	if page.Pagination.Page != 1 || page.Pagination.TotalItems != 0 {
		t.Errorf("pagination = %+v", page.Pagination)
	}
}

func TestNewsStaleCacheFallback(t *testing.T) {
	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-1", "Alpha", "https://a", time.Now()),
	}}
	svc := newTestService(t, []Source{src}, nil)

	ctx := context.Background()
	if got := svc.News(ctx, 1, 10); got.Pagination.TotalItems != 1 {
		t.Fatalf("初回取得に失敗: %+v", got.Pagination)
	}

	// キャッシュを期限切れにし、ソースも故障させる
	past := time.Now().Add(-time.Hour)
	svc.cache.PutAt("news-1-10", *paginate(src.items, 1, 10), past)
	svc.feedCache.Clear()
	src.err = errors.New("down")
	src.items = nil

	got := svc.News(ctx, 1, 10)
	if got.Pagination.TotalItems != 1 {
		t.Fatalf("期限切れキャッシュへのフォールバックが効いていない: %+v", got.Pagination)
	}
}

func TestNewsPrependsVisibleCuratedItems(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-1", "External", "https://a", base.Add(24*time.Hour)),
	}}
	curated := &stubCurated{items: []model.CuratedNewsItem{
		{ID: "c-1", Title: "Curated visible", Visible: true, CreatedAt: base},
		{ID: "c-2", Title: "Curated hidden", Visible: false, CreatedAt: base},
	}}
	svc := newTestService(t, []Source{src}, curated)

	page := svc.News(context.Background(), 1, 10)
	if page.Pagination.TotalItems != 2 {
		t.Fatalf("TotalItems = %d, want 2", page.Pagination.TotalItems)
	}
	// 運用者登録分は外部より新しくなくても先頭に来る
	if page.Items[0].ID != "c-1" {
		t.Errorf("Items[0].ID = %q, want c-1", page.Items[0].ID)
	}
	if page.Items[0].URL != "#" || page.Items[0].Source != "Admin" || page.Items[0].Category != "Admin Update" {
		t.Errorf("既定値の補完が効いていない: %+v", page.Items[0])
	}
}

func TestNewsCachesPerPageKey(t *testing.T) {
	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-1", "Alpha", "https://a", time.Now()),
	}}
	svc := newTestService(t, []Source{src}, nil)

	ctx := context.Background()
	svc.News(ctx, 1, 10)
	svc.News(ctx, 1, 10)
	if calls := src.calls.Load(); calls != 1 {
		t.Errorf("source.calls = %d, want 1 (フィードキャッシュで抑止)", calls)
	}
}

func TestSearchNews(t *testing.T) {
	base := time.Now()
	src := &stubSource{name: "WHO", items: []model.NewsItem{
		{ID: "1", Title: "Cholera in region", URL: "https://a", PublishedAt: base, Source: "WHO", Summary: "outbreak"},
		{ID: "2", Title: "Economy news", URL: "https://b", PublishedAt: base, Source: "CDC", Summary: "markets"},
	}}
	svc := newTestService(t, []Source{src}, nil)

	page := svc.SearchNews(context.Background(), "CHOLERA", 1, 10)
	if page.Pagination.TotalItems != 1 || page.Items[0].ID != "1" {
		t.Fatalf("検索結果 = %+v", page)
	}

	// ソース名にもマッチする
	page = svc.SearchNews(context.Background(), "cdc", 1, 10)
	if page.Pagination.TotalItems != 1 || page.Items[0].ID != "2" {
		t.Fatalf("ソース名検索 = %+v", page)
	}
}

func TestLatestNews(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("1", "Old", "https://a", base),
		newsItem("2", "Newest", "https://b", base.Add(2*time.Hour)),
		newsItem("3", "Mid", "https://c", base.Add(time.Hour)),
	}}
	svc := newTestService(t, []Source{src}, nil)

	items := svc.LatestNews(context.Background(), 2)
	if len(items) != 2 || items[0].Title != "Newest" {
		t.Fatalf("items = %+v", items)
	}
}

func TestNewsByID(t *testing.T) {
	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-1", "Alpha", "https://a", time.Now()),
	}}
	svc := newTestService(t, []Source{src}, nil)

	item, err := svc.NewsByID(context.Background(), "who-1")
	if err != nil {
		t.Fatalf("NewsByID() error = %v", err)
	}
	if item.Title != "Alpha" {
		t.Errorf("item.Title = %q", item.Title)
	}

	_, err = svc.NewsByID(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "NEWS_NOT_FOUND" {
		t.Errorf("error = %v, want NEWS_NOT_FOUND", err)
	}
}

func TestPreloadAdjacentPages(t *testing.T) {
	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-1", "Alpha", "https://a", time.Now()),
	}}
	svc := newTestService(t, []Source{src}, nil)

	svc.PreloadAdjacentPages(context.Background(), 2, 10)
	svc.preloadWG.Wait()

	if _, ok := svc.cache.Get("news-3-10"); !ok {
		t.Error("次ページが先読みされていない")
	}
	if _, ok := svc.cache.Get("news-1-10"); !ok {
		t.Error("前ページが先読みされていない")
	}
}

type memSnapshotStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{values: map[string]string{}}
}

func (m *memSnapshotStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memSnapshotStore) Put(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memSnapshotStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func seedSnapshot(t *testing.T, store *memSnapshotStore, items []model.NewsItem, timestamp time.Time) {
	t.Helper()
	raw, err := json.Marshal(feedSnapshot{Items: items, Timestamp: timestamp})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if err := store.Put(context.Background(), localstore.KeyNewsCache, string(raw)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
}

func TestNewServiceRestoresFreshSnapshot(t *testing.T) {
	store := newMemSnapshotStore()
	seedSnapshot(t, store, []model.NewsItem{
		newsItem("who-1", "Restored", "https://a", time.Now().Add(-time.Minute)),
	}, time.Now().Add(-time.Minute))

	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-2", "Fetched", "https://b", time.Now()),
	}}
	svc := NewService([]Source{src}, nil, store, security.NewContentSanitizer(), 15*time.Minute, testLogger())

	page := svc.News(context.Background(), 1, 10)
	if len(page.Items) != 1 || page.Items[0].ID != "who-1" {
		t.Fatalf("Items = %+v, want スナップショット復元分", page.Items)
	}
	if calls := src.calls.Load(); calls != 0 {
		t.Errorf("source.calls = %d, want 0 (復元済みなら取得しない)", calls)
	}
}

func TestNewServiceDeletesExpiredSnapshot(t *testing.T) {
	store := newMemSnapshotStore()
	seedSnapshot(t, store, []model.NewsItem{
		newsItem("who-1", "Old", "https://a", time.Now().Add(-time.Hour)),
	}, time.Now().Add(-time.Hour))

	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-2", "Fetched", "https://b", time.Now()),
	}}
	svc := NewService([]Source{src}, nil, store, security.NewContentSanitizer(), 15*time.Minute, testLogger())

	if _, ok, _ := store.Get(context.Background(), localstore.KeyNewsCache); ok {
		t.Error("期限切れスナップショットが削除されていない")
	}

	page := svc.News(context.Background(), 1, 10)
	if len(page.Items) != 1 || page.Items[0].ID != "who-2" {
		t.Errorf("Items = %+v, want 再取得分", page.Items)
	}
	if calls := src.calls.Load(); calls != 1 {
		t.Errorf("source.calls = %d, want 1", calls)
	}
}

func TestNewsSavesSnapshotAfterFetch(t *testing.T) {
	store := newMemSnapshotStore()
	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-1", "Alpha", "https://a", time.Now()),
	}}
	svc := NewService([]Source{src}, nil, store, security.NewContentSanitizer(), 15*time.Minute, testLogger())

	svc.News(context.Background(), 1, 10)

	raw, ok, err := store.Get(context.Background(), localstore.KeyNewsCache)
	if err != nil || !ok {
		t.Fatalf("Get() = (%v, %v), want 保存済み", ok, err)
	}
	var snapshot feedSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if len(snapshot.Items) != 1 || snapshot.Items[0].ID != "who-1" {
		t.Errorf("snapshot.Items = %+v", snapshot.Items)
	}
	if snapshot.Timestamp.IsZero() {
		t.Error("Timestamp がゼロ値")
	}
}

func TestPaginateClampsOutOfRangePages(t *testing.T) {
	items := []model.NewsItem{
		newsItem("1", "Alpha", "https://a", time.Now()),
		newsItem("2", "Beta", "https://b", time.Now()),
		newsItem("3", "Gamma", "https://c", time.Now()),
	}

	// 1未満のページ番号でもスライス範囲を外れない
	for _, page := range []int{0, -1, -100} {
		got := paginate(items, page, 2)
		if len(got.Items) != 2 || got.Items[0].ID != "1" {
			t.Errorf("paginate(page=%d) = %+v, want 先頭ページ", page, got.Items)
		}
	}

	// 総件数を超えるページは空
	got := paginate(items, 10, 2)
	if len(got.Items) != 0 {
		t.Errorf("paginate(page=10) = %+v, want 空", got.Items)
	}
}

func TestClearCache(t *testing.T) {
	src := &stubSource{name: "WHO", items: []model.NewsItem{
		newsItem("who-1", "Alpha", "https://a", time.Now()),
	}}
	svc := newTestService(t, []Source{src}, nil)

	ctx := context.Background()
	svc.News(ctx, 1, 10)
	svc.ClearCache(ctx)

	svc.News(ctx, 1, 10)
	if calls := src.calls.Load(); calls != 2 {
		t.Errorf("source.calls = %d, want 2 (キャッシュ破棄後は再取得)", calls)
	}
}
