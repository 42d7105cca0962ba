package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/epiwatch/internal/cache"
	"github.com/hitoshi/epiwatch/internal/localstore"
	"github.com/hitoshi/epiwatch/internal/model"
	"github.com/hitoshi/epiwatch/internal/security"
)

// CuratedStore は運用者登録ニュースの参照口。
type CuratedStore interface {
	CuratedNews(ctx context.Context) ([]model.CuratedNewsItem, error)
}

// SnapshotStore はフィードのスナップショットを再起動をまたいで保持する。
type SnapshotStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// feedSnapshot はローカルストアに永続化するフィードの写し。
type feedSnapshot struct {
	Items     []model.NewsItem `json:"items"`
	Timestamp time.Time        `json:"timestamp"`
}

// Service はニュースフィードの集約サービス。
// 複数の外部ソースを並行に取得し、運用者登録分を前置して
// ページ分割済みフィードとして提供する。
type Service struct {
	sources   []Source
	curated   CuratedStore
	snapshots SnapshotStore
	sanitizer security.ContentSanitizerService
	cache     *cache.Cache[model.NewsPage]
	feedCache *cache.Cache[[]model.NewsItem]
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time

	preloadWG sync.WaitGroup
}

const feedCacheKey = "feed"

// NewService はServiceを生成し、ローカルストアに残っている
// 有効期限内のスナップショットをキャッシュに復元する。
func NewService(sources []Source, curated CuratedStore, snapshots SnapshotStore, sanitizer security.ContentSanitizerService, ttl time.Duration, logger *slog.Logger) *Service {
	s := &Service{
		sources:   sources,
		curated:   curated,
		snapshots: snapshots,
		sanitizer: sanitizer,
		cache:     cache.New[model.NewsPage](ttl),
		feedCache: cache.New[[]model.NewsItem](ttl),
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
	s.restoreSnapshot(context.Background())
	return s
}

// restoreSnapshot はローカルストアのスナップショットを読み込む。
// 期限切れならストアから削除する。
func (s *Service) restoreSnapshot(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	raw, ok, err := s.snapshots.Get(ctx, localstore.KeyNewsCache)
	if err != nil {
		s.logger.Warn("スナップショットの読み込みに失敗しました", slog.String("error", err.Error()))
		return
	}
	if !ok {
		return
	}
	var snapshot feedSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.logger.Warn("スナップショットの解析に失敗しました", slog.String("error", err.Error()))
		return
	}
	if s.now().Sub(snapshot.Timestamp) >= s.ttl {
		if err := s.snapshots.Delete(ctx, localstore.KeyNewsCache); err != nil {
			s.logger.Warn("期限切れスナップショットの削除に失敗しました", slog.String("error", err.Error()))
		}
		return
	}
	s.feedCache.PutAt(feedCacheKey, snapshot.Items, snapshot.Timestamp)
	s.logger.Info("フィードスナップショットを復元しました", slog.Int("items", len(snapshot.Items)))
}

// saveSnapshot は取得済みフィードをローカルストアへ書き出す。
func (s *Service) saveSnapshot(ctx context.Context, items []model.NewsItem) {
	if s.snapshots == nil {
		return
	}
	raw, err := json.Marshal(feedSnapshot{Items: items, Timestamp: s.now()})
	if err != nil {
		s.logger.Warn("スナップショットのシリアライズに失敗しました", slog.String("error", err.Error()))
		return
	}
	if err := s.snapshots.Put(ctx, localstore.KeyNewsCache, string(raw)); err != nil {
		s.logger.Warn("スナップショットの保存に失敗しました", slog.String("error", err.Error()))
	}
}

// fetchExternal は全外部ソースを並行に取得してマージする。
// 個々のソースの失敗は境界内に留め、全ソースが失敗して1件も
// 得られなかったときだけエラーを返す。
func (s *Service) fetchExternal(ctx context.Context) ([]model.NewsItem, error) {
	if items, ok := s.feedCache.Get(feedCacheKey); ok {
		return items, nil
	}

	results := make([][]model.NewsItem, len(s.sources))
	var mu sync.Mutex
	var failed []string

	g, gctx := errgroup.WithContext(ctx)
	for i, source := range s.sources {
		g.Go(func() error {
			items, err := source.Fetch(gctx)
			if err != nil {
				s.logger.Warn("ソースの取得に失敗しました",
					slog.String("source", source.Name()), slog.String("error", err.Error()))
				mu.Lock()
				failed = append(failed, source.Name())
				mu.Unlock()
				return nil
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.NewsItem
	for _, items := range results {
		all = append(all, items...)
	}

	if len(all) == 0 && len(failed) > 0 {
		return nil, model.NewAllSourcesFailedError(failed)
	}

	merged := normalizeFeed(all)
	for i := range merged {
		merged[i].Content = s.sanitizer.Sanitize(merged[i].Content)
	}

	s.feedCache.Put(feedCacheKey, merged)
	s.saveSnapshot(ctx, merged)
	return merged, nil
}

// normalizeFeed は無効記事の除去、公開日時降順ソート、タイトルの
// 大文字小文字を無視した重複排除(先勝ち)を行う。
func normalizeFeed(items []model.NewsItem) []model.NewsItem {
	valid := make([]model.NewsItem, 0, len(items))
	for _, item := range items {
		if item.Title != "" && item.URL != "" {
			valid = append(valid, item)
		}
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].PublishedAt.After(valid[j].PublishedAt)
	})

	seen := make(map[string]struct{}, len(valid))
	unique := make([]model.NewsItem, 0, len(valid))
	for _, item := range valid {
		key := strings.ToLower(item.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}

// curatedItems は運用者登録分のうち公開状態の記事を正規化して返す。
func (s *Service) curatedItems(ctx context.Context) []model.NewsItem {
	if s.curated == nil {
		return nil
	}
	curated, err := s.curated.CuratedNews(ctx)
	if err != nil {
		s.logger.Warn("運用者登録ニュースの読み込みに失敗しました", slog.String("error", err.Error()))
		return nil
	}
	items := make([]model.NewsItem, 0, len(curated))
	for _, c := range curated {
		if !c.Visible {
			continue
		}
		item := model.NewsItem{
			ID:          c.ID,
			Title:       c.Title,
			Summary:     c.Description,
			Content:     s.sanitizer.Sanitize(c.Description),
			PublishedAt: c.CreatedAt,
			Source:      c.Source,
			Category:    c.Category,
			URL:         c.URL,
			ImageURL:    c.ImageURL,
		}
		if item.URL == "" {
			item.URL = "#"
		}
		if item.Source == "" {
			item.Source = "Admin"
		}
		if item.Category == "" {
			item.Category = "Admin Update"
		}
		items = append(items, item)
	}
	return items
}

// News はページ分割済みのニュースフィードを返す。
// 取得失敗時は期限切れキャッシュへのフォールバックを試み、
// それもなければ空ページを返す。エラーで呼び出し元に失敗を
// 伝播させることはない。
func (s *Service) News(ctx context.Context, page, pageSize int) *model.NewsPage {
	cacheKey := fmt.Sprintf("news-%d-%d", page, pageSize)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return &cached
	}

	external, err := s.fetchExternal(ctx)
	if err != nil {
		s.logger.Error("ニュースの取得に失敗しました", slog.String("error", err.Error()))
		if stale, ok := s.cache.GetStale(cacheKey); ok {
			s.logger.Info("期限切れキャッシュを返します", slog.String("key", cacheKey))
			return &stale
		}
		return emptyPage(pageSize)
	}

	all := append(s.curatedItems(ctx), external...)
	if len(all) == 0 {
		if stale, ok := s.cache.GetStale(cacheKey); ok {
			return &stale
		}
		return emptyPage(pageSize)
	}

	result := paginate(all, page, pageSize)
	s.cache.Put(cacheKey, *result)
	return result
}

// paginate はマージ済みリストから指定ページを切り出す。
func paginate(items []model.NewsItem, page, pageSize int) *model.NewsPage {
	start := (page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	if end < start {
		end = start
	}
	return &model.NewsPage{
		Items:      items[start:end],
		Pagination: model.NewPagination(page, pageSize, len(items)),
	}
}

// emptyPage はデータなしの空ページを返す。
func emptyPage(pageSize int) *model.NewsPage {
	return &model.NewsPage{
		Items: []model.NewsItem{},
		Pagination: model.Pagination{
			Page:     1,
			PageSize: pageSize,
		},
	}
}

// SearchNews はタイトル・要約・ソース名に部分一致する記事を返す。
// 大文字小文字は区別しない。取得失敗時は空ページを返す。
func (s *Service) SearchNews(ctx context.Context, query string, page, pageSize int) *model.NewsPage {
	cacheKey := fmt.Sprintf("search-%s-%d-%d", query, page, pageSize)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return &cached
	}

	external, err := s.fetchExternal(ctx)
	if err != nil {
		s.logger.Error("ニュース検索の取得に失敗しました", slog.String("error", err.Error()))
		return emptyPage(pageSize)
	}

	term := strings.ToLower(query)
	filtered := make([]model.NewsItem, 0)
	for _, item := range external {
		if strings.Contains(strings.ToLower(item.Title), term) ||
			strings.Contains(strings.ToLower(item.Summary), term) ||
			strings.Contains(strings.ToLower(item.Source), term) {
			filtered = append(filtered, item)
		}
	}

	result := paginate(filtered, page, pageSize)
	s.cache.Put(cacheKey, *result)
	return result
}

// LatestNews は最新の記事を先頭からlimit件返す。失敗時は空スライス。
func (s *Service) LatestNews(ctx context.Context, limit int) []model.NewsItem {
	external, err := s.fetchExternal(ctx)
	if err != nil {
		s.logger.Error("最新ニュースの取得に失敗しました", slog.String("error", err.Error()))
		return []model.NewsItem{}
	}
	if len(external) > limit {
		external = external[:limit]
	}
	return external
}

// NewsByID はIDで記事を1件返す。見つからなければNotFoundを返す。
func (s *Service) NewsByID(ctx context.Context, id string) (*model.NewsItem, error) {
	external, err := s.fetchExternal(ctx)
	if err != nil {
		return nil, err
	}
	for i := range external {
		if external[i].ID == id {
			return &external[i], nil
		}
	}
	for _, item := range s.curatedItems(ctx) {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, model.NewNewsNotFoundError(id)
}

// PreloadAdjacentPages は前後ページを非同期に先読みしてキャッシュを温める。
func (s *Service) PreloadAdjacentPages(ctx context.Context, page, pageSize int) {
	preload := func(p int) {
		s.preloadWG.Add(1)
		go func() {
			defer s.preloadWG.Done()
			s.News(ctx, p, pageSize)
		}()
	}
	if page > 0 {
		preload(page + 1)
	}
	if page > 1 {
		preload(page - 1)
	}
}

// ClearCache はページキャッシュ・フィードキャッシュ・永続スナップ
// ショットをすべて破棄する。
func (s *Service) ClearCache(ctx context.Context) {
	s.cache.Clear()
	s.feedCache.Clear()
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, localstore.KeyNewsCache); err != nil {
			s.logger.Warn("スナップショットの削除に失敗しました", slog.String("error", err.Error()))
		}
	}
}
