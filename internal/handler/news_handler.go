package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/epiwatch/internal/middleware"
	"github.com/hitoshi/epiwatch/internal/model"
)

const (
	// defaultNewsPageSize はニュース一覧の1ページあたりのデフォルト件数。
	defaultNewsPageSize = 10
	// defaultLatestNewsLimit は最新ニュースのデフォルト件数。
	defaultLatestNewsLimit = 5
)

// NewsServiceInterface はニュースハンドラーが必要とするサービスインターフェース。
type NewsServiceInterface interface {
	// News はページ分割されたニュースフィードを返す。失敗時も空ページを返す。
	News(ctx context.Context, page, pageSize int) *model.NewsPage
	// SearchNews はタイトル・要約・ソースの部分一致でニュースを検索する。
	SearchNews(ctx context.Context, query string, page, pageSize int) *model.NewsPage
	// LatestNews は最新のニュースを指定件数返す。
	LatestNews(ctx context.Context, limit int) []model.NewsItem
	// NewsByID はIDでニュースを1件返す。
	NewsByID(ctx context.Context, id string) (*model.NewsItem, error)
	// PreloadAdjacentPages は前後ページをバックグラウンドで先読みする。
	PreloadAdjacentPages(ctx context.Context, page, pageSize int)
}

// NewsHandler はニュースフィードのHTTPハンドラー。
type NewsHandler struct {
	service NewsServiceInterface
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service NewsServiceInterface) *NewsHandler {
	return &NewsHandler{service: service}
}

// ListNews はページ分割されたニュースフィードを取得する。
// GET /api/news?page=1&pageSize=10
// レスポンス返却後に前後ページの先読みを開始する。
func (h *NewsHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result := h.service.News(r.Context(), page, pageSize)
	writeJSON(w, result)

	h.service.PreloadAdjacentPages(context.WithoutCancel(r.Context()), page, pageSize)
}

// SearchNews はニュースを検索する。
// GET /api/news/search?q=xxx&page=1&pageSize=10
func (h *NewsHandler) SearchNews(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page, pageSize := pageParams(r)

	writeJSON(w, h.service.SearchNews(r.Context(), query, page, pageSize))
}

// LatestNews は最新ニュースを取得する。
// GET /api/news/latest?limit=5
func (h *NewsHandler) LatestNews(w http.ResponseWriter, r *http.Request) {
	limit := defaultLatestNewsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	writeJSON(w, h.service.LatestNews(r.Context(), limit))
}

// GetNews はニュースを1件取得する。
// GET /api/news/:id
func (h *NewsHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.NewsByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, item)
}

// pageParams はページネーションクエリを解析する。
// 不正値はデフォルト（page=1, pageSize=10）に落とす。
func pageParams(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = defaultNewsPageSize
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			pageSize = v
		}
	}
	return page, pageSize
}
