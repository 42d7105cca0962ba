package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/epiwatch/internal/middleware"
	"github.com/hitoshi/epiwatch/internal/model"
)

// StatsServiceInterface は統計ハンドラーが必要とするサービスインターフェース。
type StatsServiceInterface interface {
	// GlobalStatistics は世界全体の統計サマリーを返す。失敗時もゼロ埋めで返す。
	GlobalStatistics(ctx context.Context) *model.GlobalStats
	// CountryStatistics は国名またはISOコードで国別統計を返す。
	CountryStatistics(ctx context.Context, country string) (*model.CountryStat, error)
	// AllCountryStatistics は全ての国の統計を返す。
	AllCountryStatistics(ctx context.Context) ([]*model.CountryStat, error)
	// TrendingDiseases は流行中疾病の上位を返す。
	TrendingDiseases(ctx context.Context) []model.TrendingDisease
	// ContinentStatistics は大陸別統計を返す。
	ContinentStatistics(ctx context.Context) []model.ContinentStat
	// CountryWiseDiseaseData は国ごとの疾病内訳推計を返す。
	CountryWiseDiseaseData(ctx context.Context) []model.CountryDiseaseData
}

// StatsHandler は統計のHTTPハンドラー。
type StatsHandler struct {
	service StatsServiceInterface
}

// NewStatsHandler はStatsHandlerを生成する。
func NewStatsHandler(service StatsServiceInterface) *StatsHandler {
	return &StatsHandler{service: service}
}

// GetGlobalStats は世界全体の統計を取得する。
// GET /api/statistics/global
func (h *StatsHandler) GetGlobalStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.service.GlobalStatistics(r.Context()))
}

// ListCountryStats は全ての国の統計を取得する。
// GET /api/statistics/countries
func (h *StatsHandler) ListCountryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.AllCountryStatistics(r.Context())
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, stats)
}

// GetCountryStats は国別統計を取得する。国名・ISO2・ISO3を受け付ける。
// GET /api/statistics/countries/:country
func (h *StatsHandler) GetCountryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CountryStatistics(r.Context(), chi.URLParam(r, "country"))
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, stats)
}

// GetTrendingDiseases は流行中疾病の上位を取得する。
// GET /api/statistics/trending
func (h *StatsHandler) GetTrendingDiseases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.service.TrendingDiseases(r.Context()))
}

// GetContinentStats は大陸別統計を取得する。
// GET /api/statistics/continents
func (h *StatsHandler) GetContinentStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.service.ContinentStatistics(r.Context()))
}

// GetCountryDiseaseData は国ごとの疾病内訳推計を取得する。
// GET /api/statistics/country-diseases
func (h *StatsHandler) GetCountryDiseaseData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.service.CountryWiseDiseaseData(r.Context()))
}
