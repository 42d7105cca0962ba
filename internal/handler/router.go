package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/epiwatch/internal/metrics"
	"github.com/hitoshi/epiwatch/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 監視
	MetricsGatherer prometheus.Gatherer

	// サービス
	DiseaseService DiseaseServiceInterface
	NewsService    NewsServiceInterface
	StatsService   StatsServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → RateLimit
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	// 死活監視と監視メトリクス
	r.Get("/health", handleHealth)
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	diseaseHandler := NewDiseaseHandler(deps.DiseaseService)
	newsHandler := NewNewsHandler(deps.NewsService)
	statsHandler := NewStatsHandler(deps.StatsService)

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		// 疾病カタログ
		r.Route("/api/diseases", func(r chi.Router) {
			r.Get("/", diseaseHandler.ListDiseases)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", diseaseHandler.GetDisease)
				r.Get("/cases", diseaseHandler.GetDiseaseCases)
				r.Get("/statistics", diseaseHandler.GetDiseaseStatistics)
			})
		})

		// ニュースフィード
		r.Route("/api/news", func(r chi.Router) {
			r.Get("/", newsHandler.ListNews)
			r.Get("/search", newsHandler.SearchNews)
			r.Get("/latest", newsHandler.LatestNews)
			r.Get("/{id}", newsHandler.GetNews)
		})

		// 統計
		r.Route("/api/statistics", func(r chi.Router) {
			r.Get("/global", statsHandler.GetGlobalStats)
			r.Get("/countries", statsHandler.ListCountryStats)
			r.Get("/countries/{country}", statsHandler.GetCountryStats)
			r.Get("/trending", statsHandler.GetTrendingDiseases)
			r.Get("/continents", statsHandler.GetContinentStats)
			r.Get("/country-diseases", statsHandler.GetCountryDiseaseData)
		})
	})

	return r
}

// handleHealth は死活監視エンドポイント。
// GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
