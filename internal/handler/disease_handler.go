// Package handler はHTTP APIのハンドラーとルーティングを提供する。
// ハンドラーは薄いラッパーであり、ドメインロジックは各サービスに置く。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/epiwatch/internal/middleware"
	"github.com/hitoshi/epiwatch/internal/model"
)

// DiseaseServiceInterface は疾病ハンドラーが必要とするサービスインターフェース。
type DiseaseServiceInterface interface {
	// AllDiseases は疾病カタログ全件を返す。
	AllDiseases(ctx context.Context) ([]model.Disease, error)
	// DiseaseByID はIDで疾病を1件返す。
	DiseaseByID(ctx context.Context, id int) (*model.Disease, error)
	// DiseaseCases は疾病の国別症例データを返す。
	DiseaseCases(ctx context.Context, id int) ([]model.DiseaseCaseRow, error)
	// DiseaseByCountry は国別症例データを件数制限付きで返す。
	DiseaseByCountry(ctx context.Context, id, limit int) ([]model.DiseaseCaseRow, error)
	// DiseaseStatistics は疾病の派生統計を返す。
	DiseaseStatistics(ctx context.Context, id int) (*model.DiseaseStatistics, error)
	// DiseasesBySeverity は重大度で絞り込んだ疾病一覧を返す。
	DiseasesBySeverity(ctx context.Context, severity model.Severity) ([]model.Disease, error)
	// SearchDiseases は名称・説明・症状の部分一致で検索する。
	SearchDiseases(ctx context.Context, query string) ([]model.Disease, error)
}

// DiseaseHandler は疾病カタログのHTTPハンドラー。
type DiseaseHandler struct {
	service DiseaseServiceInterface
}

// NewDiseaseHandler はDiseaseHandlerを生成する。
func NewDiseaseHandler(service DiseaseServiceInterface) *DiseaseHandler {
	return &DiseaseHandler{service: service}
}

// ListDiseases は疾病カタログを取得する。
// GET /api/diseases?q=xxx&severity=HIGH
// qとseverityは排他ではなくq優先で適用する。
func (h *DiseaseHandler) ListDiseases(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	severity := r.URL.Query().Get("severity")

	var (
		diseases []model.Disease
		err      error
	)
	switch {
	case query != "":
		diseases, err = h.service.SearchDiseases(r.Context(), query)
	case severity != "":
		diseases, err = h.service.DiseasesBySeverity(r.Context(), model.Severity(strings.ToUpper(severity)))
	default:
		diseases, err = h.service.AllDiseases(r.Context())
	}
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, diseases)
}

// GetDisease は疾病を1件取得する。
// GET /api/diseases/:id
func (h *DiseaseHandler) GetDisease(w http.ResponseWriter, r *http.Request) {
	id, ok := diseaseID(w, r)
	if !ok {
		return
	}

	disease, err := h.service.DiseaseByID(r.Context(), id)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, disease)
}

// GetDiseaseCases は疾病の国別症例データを取得する。
// GET /api/diseases/:id/cases?limit=10
func (h *DiseaseHandler) GetDiseaseCases(w http.ResponseWriter, r *http.Request) {
	id, ok := diseaseID(w, r)
	if !ok {
		return
	}

	var (
		rows []model.DiseaseCaseRow
		err  error
	)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, convErr := strconv.Atoi(raw)
		if convErr != nil || limit < 1 {
			middleware.WriteAPIError(w, model.NewInvalidIDError(raw))
			return
		}
		rows, err = h.service.DiseaseByCountry(r.Context(), id, limit)
	} else {
		rows, err = h.service.DiseaseCases(r.Context(), id)
	}
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, rows)
}

// GetDiseaseStatistics は疾病の派生統計を取得する。
// GET /api/diseases/:id/statistics
func (h *DiseaseHandler) GetDiseaseStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := diseaseID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.DiseaseStatistics(r.Context(), id)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	writeJSON(w, stats)
}

// diseaseID はパスパラメータの疾病IDを解析する。
// 数値でない場合はエラーレスポンスを書き込みfalseを返す。
func diseaseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		middleware.WriteAPIError(w, model.NewInvalidIDError(raw))
		return 0, false
	}
	return id, true
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
