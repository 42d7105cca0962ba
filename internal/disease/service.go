package disease

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hitoshi/epiwatch/internal/cache"
	"github.com/hitoshi/epiwatch/internal/diseasesh"
	"github.com/hitoshi/epiwatch/internal/model"
)

const allDiseasesCacheKey = "all-diseases"

// CovidSource はCOVID-19の実績値を提供する外部ソース。
type CovidSource interface {
	FetchGlobal(ctx context.Context) (*diseasesh.Global, error)
	FetchCountries(ctx context.Context) ([]diseasesh.Country, error)
}

// BackendCatalog は管理バックエンドの疾病カタログ取得口。
type BackendCatalog interface {
	FetchDiseases(ctx context.Context) ([]model.Disease, error)
}

// Service は疾病カタログの集約サービス。
// バックエンドを第一ソースとし、不達時はCOVID-19の実績値と
// 静的カタログからフォールバックカタログを合成する。
type Service struct {
	backend BackendCatalog
	covid   CovidSource
	cache   *cache.Cache[[]model.Disease]
	logger  *slog.Logger
	now     func() time.Time
}

// NewService はServiceを生成する。
func NewService(backend BackendCatalog, covid CovidSource, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		covid:   covid,
		cache:   cache.New[[]model.Disease](ttl),
		logger:  logger,
		now:     time.Now,
	}
}

// AllDiseases は追跡対象の全疾病を返す。
// キャッシュ→バックエンド→フォールバック合成の順で解決する。
func (s *Service) AllDiseases(ctx context.Context) ([]model.Disease, error) {
	if cached, ok := s.cache.Get(allDiseasesCacheKey); ok {
		return cached, nil
	}

	diseases, err := s.backend.FetchDiseases(ctx)
	if err != nil {
		s.logger.Warn("バックエンドからの取得に失敗、外部ソースにフォールバックします", slog.String("error", err.Error()))
	}
	if err == nil && len(diseases) > 0 {
		s.cache.Put(allDiseasesCacheKey, diseases)
		return diseases, nil
	}

	fallback := s.buildFallbackCatalog(ctx)
	s.cache.Put(allDiseasesCacheKey, fallback)
	return fallback, nil
}

// buildFallbackCatalog はCOVID-19の実績値と静的データから10疾病の
// カタログを合成する。COVID-19の取得に失敗した場合はゼロ値で埋める。
func (s *Service) buildFallbackCatalog(ctx context.Context) []model.Disease {
	now := s.now()
	diseases := make([]model.Disease, 0, len(diseaseMetadata))

	covid := model.Disease{LastUpdated: now}
	if global, err := s.covid.FetchGlobal(ctx); err != nil {
		s.logger.Warn("COVID-19全世界データの取得に失敗しました", slog.String("error", err.Error()))
	} else {
		covid.TotalCases = global.Cases
		covid.ActiveCases = global.Active
		covid.Deaths = global.Deaths
		covid.RecoveredCases = global.Recovered
	}
	if countries, err := s.covid.FetchCountries(ctx); err != nil {
		s.logger.Warn("COVID-19国別データの取得に失敗しました", slog.String("error", err.Error()))
	} else {
		covid.AffectedCountries = len(countries)
	}
	diseases = append(diseases, applyMetadata("COVID-19", covid))

	for name, figure := range staticFigures {
		d := model.Disease{
			TotalCases:        figure.TotalCases,
			ActiveCases:       figure.ActiveCases,
			Deaths:            figure.Deaths,
			RecoveredCases:    figure.TotalCases - figure.Deaths - figure.ActiveCases,
			AffectedCountries: figure.Countries,
			LastUpdated:       now,
		}
		diseases = append(diseases, applyMetadata(name, d))
	}

	sort.Slice(diseases, func(i, j int) bool { return diseases[i].ID < diseases[j].ID })
	return diseases
}

// applyMetadata は静的メタデータを疾病レコードに適用する。
func applyMetadata(name string, d model.Disease) model.Disease {
	meta := diseaseMetadata[name]
	d.ID = meta.ID
	d.Name = name
	d.Description = meta.Description
	d.Symptoms = meta.Symptoms
	d.Prevention = meta.Prevention
	d.Treatment = meta.Treatment
	d.Severity = meta.Severity
	d.Source = meta.DataSource
	return d
}

// DiseaseByID はIDで疾病を1件返す。見つからなければNotFoundを返す。
func (s *Service) DiseaseByID(ctx context.Context, id int) (*model.Disease, error) {
	diseases, err := s.AllDiseases(ctx)
	if err != nil {
		return nil, err
	}
	for i := range diseases {
		if diseases[i].ID == id {
			return &diseases[i], nil
		}
	}
	return nil, model.NewDiseaseNotFoundError(id)
}

// DiseaseCases は疾病の国別症例内訳を返す。
// COVID-19は実績値を症例数降順で返し、取得失敗時は空スライスに落とす。
// それ以外の疾病は人口シェア近似で国別推計を合成する。
func (s *Service) DiseaseCases(ctx context.Context, id int) ([]model.DiseaseCaseRow, error) {
	disease, err := s.DiseaseByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if disease.Name == "COVID-19" {
		countries, err := s.covid.FetchCountries(ctx)
		if err != nil {
			s.logger.Error("国別症例データの取得に失敗しました", slog.String("error", err.Error()))
			return []model.DiseaseCaseRow{}, nil
		}
		rows := make([]model.DiseaseCaseRow, 0, len(countries))
		for _, c := range countries {
			rows = append(rows, model.DiseaseCaseRow{
				Country:     c.Country,
				TotalCases:  c.Cases,
				ActiveCases: c.Active,
				Deaths:      c.Deaths,
				Recovered:   c.Recovered,
			})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].TotalCases > rows[j].TotalCases })
		return rows, nil
	}

	return synthesizeCountryRows(disease), nil
}

// synthesizeCountryRows は総計値と人口シェア係数から国別推計を合成する。
func synthesizeCountryRows(d *model.Disease) []model.DiseaseCaseRow {
	rows := make([]model.DiseaseCaseRow, 0, len(countryShares))
	for _, share := range countryShares {
		rows = append(rows, model.DiseaseCaseRow{
			Country:     share.Country,
			TotalCases:  scaleRound(d.TotalCases, share.Share),
			ActiveCases: scaleRound(d.ActiveCases, share.Share),
			Deaths:      scaleRound(d.Deaths, share.Share),
		})
	}
	return rows
}

func scaleRound(v int64, factor float64) int64 {
	return int64(math.Round(float64(v) * factor))
}

// DiseaseStatistics は疾病の派生統計(致死率・回復率など)を返す。
// 率は総症例数が0のとき"0%"、それ以外は小数2桁のパーセント文字列。
func (s *Service) DiseaseStatistics(ctx context.Context, id int) (*model.DiseaseStatistics, error) {
	disease, err := s.DiseaseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.DiseaseStatistics{
		MortalityRate:     model.FormatRate(disease.Deaths, disease.TotalCases),
		RecoveryRate:      model.FormatRate(disease.RecoveredCases, disease.TotalCases),
		ActiveCases:       disease.ActiveCases,
		TotalCases:        disease.TotalCases,
		Deaths:            disease.Deaths,
		Recovered:         disease.RecoveredCases,
		AffectedCountries: disease.AffectedCountries,
		LastUpdated:       disease.LastUpdated,
	}, nil
}

// DiseasesBySeverity は指定した深刻度の疾病を返す。
func (s *Service) DiseasesBySeverity(ctx context.Context, severity model.Severity) ([]model.Disease, error) {
	diseases, err := s.AllDiseases(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]model.Disease, 0)
	for _, d := range diseases {
		if d.Severity == severity {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

// SearchDiseases は名前・説明・症状のいずれかに部分一致する疾病を返す。
// 大文字小文字は区別しない。
func (s *Service) SearchDiseases(ctx context.Context, query string) ([]model.Disease, error) {
	diseases, err := s.AllDiseases(ctx)
	if err != nil {
		return nil, err
	}
	term := strings.ToLower(query)
	matched := make([]model.Disease, 0)
	for _, d := range diseases {
		if strings.Contains(strings.ToLower(d.Name), term) ||
			strings.Contains(strings.ToLower(d.Description), term) ||
			strings.Contains(strings.ToLower(d.Symptoms), term) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

// DiseaseByCountry は疾病の国別データを上位limit件返す。
// COVID-19以外は人口シェア近似の全件をそのまま返す。
func (s *Service) DiseaseByCountry(ctx context.Context, id, limit int) ([]model.DiseaseCaseRow, error) {
	disease, err := s.DiseaseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.DiseaseCases(ctx, disease.ID)
	if err != nil {
		return nil, err
	}
	if disease.Name == "COVID-19" && limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// ClearCache はカタログキャッシュを破棄する。管理操作後の再取得に使う。
func (s *Service) ClearCache() {
	s.cache.Clear()
}
