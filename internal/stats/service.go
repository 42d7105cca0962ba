// Package stats は疫学統計の集約サービスを提供する。
// COVID-19の実測値を軸に、全世界・国別・大陸別の統計と
// 地域有病率係数による疾病横断推計を組み立てる。
package stats

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hitoshi/epiwatch/internal/cache"
	"github.com/hitoshi/epiwatch/internal/diseasesh"
	"github.com/hitoshi/epiwatch/internal/format"
	"github.com/hitoshi/epiwatch/internal/model"
)

// CovidSource はCOVID-19統計の外部ソース。
type CovidSource interface {
	FetchGlobal(ctx context.Context) (*diseasesh.Global, error)
	FetchCountries(ctx context.Context) ([]diseasesh.Country, error)
	FetchContinents(ctx context.Context) ([]diseasesh.Continent, error)
}

// 追跡疾病カタログ由来の固定値。
const (
	trackedDiseases      = 10
	criticalDiseases     = 3
	highSeverityDiseases = 6
)

// covidTrendingThreshold を超える日次新規症例があるとき
// COVID-19を注目疾病に含める。
const covidTrendingThreshold = 10000

// Service は統計集約サービス。結果は種別ごとのキーで共有キャッシュに乗る。
type Service struct {
	covid  CovidSource
	cache  *cache.Cache[any]
	logger *slog.Logger
	now    func() time.Time
}

// NewService はServiceを生成する。
func NewService(covid CovidSource, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		covid:  covid,
		cache:  cache.New[any](ttl),
		logger: logger,
		now:    time.Now,
	}
}

// GlobalStatistics は全世界の疫学集計を返す。
// 上流取得に失敗しても、追跡疾病数などの固定値だけを持つ
// ゼロ値レコードを返してエラーにはしない。
func (s *Service) GlobalStatistics(ctx context.Context) *model.GlobalStats {
	const cacheKey = "global-stats"
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*model.GlobalStats)
	}

	stats := &model.GlobalStats{
		TotalDiseases:        trackedDiseases,
		CriticalDiseases:     criticalDiseases,
		HighSeverityDiseases: highSeverityDiseases,
		LastUpdated:          s.now(),
	}

	global, err := s.covid.FetchGlobal(ctx)
	if err != nil {
		s.logger.Error("全世界統計の取得に失敗しました", slog.String("error", err.Error()))
		return stats
	}

	stats.TotalActiveCases = global.Active
	stats.TotalDeaths = global.Deaths
	stats.TotalRecovered = global.Recovered
	stats.TotalCases = global.Cases
	stats.TodayCases = global.TodayCases
	stats.TodayDeaths = global.TodayDeaths
	stats.TodayRecovered = global.TodayRecovered
	stats.Critical = global.Critical
	stats.Tests = global.Tests
	stats.Population = global.Population
	stats.AffectedCountries = global.AffectedCountries
	stats.ActiveCasesPerMillion = global.ActivePerOneMillion
	stats.DeathsPerMillion = global.DeathsPerOneMillion
	stats.TestsPerMillion = global.TestsPerOneMillion
	if global.Updated > 0 {
		stats.LastUpdated = time.UnixMilli(global.Updated)
	}

	s.logger.Info("全世界統計を再構築しました",
		slog.String("total_cases", format.Abbreviate(stats.TotalCases)),
		slog.String("total_deaths", format.Abbreviate(stats.TotalDeaths)),
		slog.String("population", format.Comma(stats.Population)),
	)

	s.cache.Put(cacheKey, stats)
	return stats
}

// CountryStatistics は1か国の疫学統計を返す。
// 国名(大文字小文字無視)・ISO2・ISO3のいずれでも照合する。
// 上流の取得に失敗した場合は国名だけを持つゼロ値レコードを返し、
// エラーにはしない。NotFoundは照合に失敗した場合のみ返す。
func (s *Service) CountryStatistics(ctx context.Context, country string) (*model.CountryStat, error) {
	cacheKey := "country-stats-" + country
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*model.CountryStat), nil
	}

	countries, err := s.covid.FetchCountries(ctx)
	if err != nil {
		s.logger.Error("国別統計の取得に失敗しました", slog.String("error", err.Error()))
		// 取得失敗は要求された国名だけを持つゼロ値レコードに落とす。
		// NotFoundは照合失敗のみに使う。
		return &model.CountryStat{
			Country:     country,
			Diseases:    []model.DiseaseBreakdown{},
			LastUpdated: s.now(),
		}, nil
	}

	for _, c := range countries {
		if !strings.EqualFold(c.Country, country) &&
			c.CountryInfo.ISO3 != country &&
			c.CountryInfo.ISO2 != country {
			continue
		}
		stat := s.mapCountryStat(c)
		s.cache.Put(cacheKey, stat)
		return stat, nil
	}
	return nil, model.NewCountryNotFoundError(country)
}

// AllCountryStatistics は全対象国の疫学統計を返す。
// 上流の取得に失敗した場合は空のスライスを返し、エラーにはしない。
func (s *Service) AllCountryStatistics(ctx context.Context) ([]*model.CountryStat, error) {
	const cacheKey = "all-countries-stats"
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.([]*model.CountryStat), nil
	}

	countries, err := s.covid.FetchCountries(ctx)
	if err != nil {
		s.logger.Error("全国別統計の取得に失敗しました", slog.String("error", err.Error()))
		return []*model.CountryStat{}, nil
	}

	stats := make([]*model.CountryStat, 0, len(countries))
	for _, c := range countries {
		stats = append(stats, s.mapCountryStat(c))
	}
	s.cache.Put(cacheKey, stats)
	return stats, nil
}

// mapCountryStat は上流の国別レコードを内部モデルに写像する。
func (s *Service) mapCountryStat(c diseasesh.Country) *model.CountryStat {
	lastUpdated := s.now()
	if c.Updated > 0 {
		lastUpdated = time.UnixMilli(c.Updated)
	}
	return &model.CountryStat{
		Country:          c.Country,
		CountryCode:      c.CountryInfo.ISO2,
		ISO3:             c.CountryInfo.ISO3,
		Continent:        c.Continent,
		Population:       c.Population,
		ActiveCases:      c.Active,
		TotalCases:       c.Cases,
		Deaths:           c.Deaths,
		Recovered:        c.Recovered,
		NewCases:         c.TodayCases,
		NewDeaths:        c.TodayDeaths,
		Critical:         c.Critical,
		Tests:            c.Tests,
		TestsPerMillion:  c.TestsPerOneMillion,
		CasesPerMillion:  c.CasesPerOneMillion,
		DeathsPerMillion: c.DeathsPerOneMillion,
		Flag:             c.CountryInfo.Flag,
		Lat:              c.CountryInfo.Lat,
		Long:             c.CountryInfo.Long,
		Diseases: []model.DiseaseBreakdown{
			{Name: "COVID-19", Cases: c.Cases, Deaths: c.Deaths, Recovered: c.Recovered},
		},
		LastUpdated: lastUpdated,
	}
}

// TrendingDiseases は注目疾病の上位5件を返す。
// COVID-19のみ実測の日次新規症例に基づき、他は季節性ヒューリス
// ティックで構成する。マラリアは通年で含める。取得失敗時は空。
func (s *Service) TrendingDiseases(ctx context.Context) []model.TrendingDisease {
	const cacheKey = "trending-diseases"
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.([]model.TrendingDisease)
	}

	global, err := s.covid.FetchGlobal(ctx)
	if err != nil {
		s.logger.Error("注目疾病の取得に失敗しました", slog.String("error", err.Error()))
		return []model.TrendingDisease{}
	}

	trending := make([]model.TrendingDisease, 0, 4)

	if global.TodayCases > covidTrendingThreshold {
		change := 0.0
		if global.Cases > 0 {
			change = math.Round(float64(global.TodayCases)/float64(global.Cases)*100*100) / 100
		}
		trending = append(trending, model.TrendingDisease{
			ID:                1,
			Name:              "COVID-19",
			Trend:             "increasing",
			NewCases:          global.TodayCases,
			TotalCases:        global.Cases,
			Severity:          model.SeverityHigh,
			AffectedCountries: global.AffectedCountries,
			PercentageChange:  change,
		})
	}

	month := s.now().Month()

	// インフルエンザの流行期は10月〜3月
	if month >= time.October || month <= time.March {
		trending = append(trending, model.TrendingDisease{
			ID: 6, Name: "Influenza", Trend: "seasonal",
			NewCases: 500000, TotalCases: 1000000000,
			Severity: model.SeverityMedium, AffectedCountries: 100, PercentageChange: 5.2,
		})
	}

	// デング熱の流行期は雨季(6月〜10月)
	if month >= time.June && month <= time.October {
		trending = append(trending, model.TrendingDisease{
			ID: 5, Name: "Dengue", Trend: "increasing",
			NewCases: 100000, TotalCases: 390000000,
			Severity: model.SeverityMedium, AffectedCountries: 70, PercentageChange: 3.8,
		})
	}

	// マラリアは恒常的に高水準のため通年で含める
	trending = append(trending, model.TrendingDisease{
		ID: 3, Name: "Malaria", Trend: "stable",
		NewCases: 600000, TotalCases: 241000000,
		Severity: model.SeverityHigh, AffectedCountries: 87, PercentageChange: 0.2,
	})

	sort.SliceStable(trending, func(i, j int) bool {
		return trending[i].NewCases > trending[j].NewCases
	})
	if len(trending) > 5 {
		trending = trending[:5]
	}

	s.cache.Put(cacheKey, trending)
	return trending
}

// ContinentStatistics は大陸別の疫学集計を返す。取得失敗時は空。
func (s *Service) ContinentStatistics(ctx context.Context) []model.ContinentStat {
	const cacheKey = "continent-stats"
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.([]model.ContinentStat)
	}

	continents, err := s.covid.FetchContinents(ctx)
	if err != nil {
		s.logger.Error("大陸別統計の取得に失敗しました", slog.String("error", err.Error()))
		return []model.ContinentStat{}
	}

	stats := make([]model.ContinentStat, 0, len(continents))
	for _, c := range continents {
		stats = append(stats, model.ContinentStat{
			Continent:        c.Continent,
			Countries:        c.Countries,
			Population:       c.Population,
			Cases:            c.Cases,
			Deaths:           c.Deaths,
			Recovered:        c.Recovered,
			Active:           c.Active,
			Critical:         c.Critical,
			TodayCases:       c.TodayCases,
			TodayDeaths:      c.TodayDeaths,
			CasesPerMillion:  c.CasesPerOneMillion,
			DeathsPerMillion: c.DeathsPerOneMillion,
			Tests:            c.Tests,
			TestsPerMillion:  c.TestsPerOneMillion,
		})
	}

	s.cache.Put(cacheKey, stats)
	return stats
}

// CountryWiseDiseaseData は全対象国の疾病横断データを総症例数の
// 降順で返す。COVID-19は実測、他疾病は地域有病率係数による推計。
// 取得失敗時は空。
func (s *Service) CountryWiseDiseaseData(ctx context.Context) []model.CountryDiseaseData {
	const cacheKey = "country-wise-disease-data"
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.([]model.CountryDiseaseData)
	}

	countries, err := s.covid.FetchCountries(ctx)
	if err != nil {
		s.logger.Error("疾病横断データの取得に失敗しました", slog.String("error", err.Error()))
		return []model.CountryDiseaseData{}
	}

	data := make([]model.CountryDiseaseData, 0, len(countries))
	for _, c := range countries {
		data = append(data, s.buildCountryDiseaseData(c))
	}
	sort.SliceStable(data, func(i, j int) bool {
		return data[i].TotalCases > data[j].TotalCases
	})

	s.cache.Put(cacheKey, data)
	return data
}

// buildCountryDiseaseData は1か国分の疾病横断データを組み立てる。
func (s *Service) buildCountryDiseaseData(c diseasesh.Country) model.CountryDiseaseData {
	population := c.Population
	factors := regionalFactorsFor(c.Continent)

	diseases := []model.DiseaseBreakdown{
		{Name: "COVID-19", Cases: c.Cases, Active: c.Active, Deaths: c.Deaths, Recovered: c.Recovered},
	}
	diseases = append(diseases, estimateDiseases(population, factors)...)

	var totalCases, totalActive, totalDeaths, totalRecovered int64
	for _, d := range diseases {
		totalCases += d.Cases
		totalActive += d.Active
		totalDeaths += d.Deaths
		totalRecovered += d.Recovered
	}

	sort.SliceStable(diseases, func(i, j int) bool {
		return diseases[i].Cases > diseases[j].Cases
	})

	var casesPerMillion, deathsPerMillion int64
	if population > 0 {
		casesPerMillion = int64(math.Round(float64(totalCases) / float64(population) * 1000000))
		deathsPerMillion = int64(math.Round(float64(totalDeaths) / float64(population) * 1000000))
	}

	lastUpdated := s.now()
	if c.Updated > 0 {
		lastUpdated = time.UnixMilli(c.Updated)
	}

	return model.CountryDiseaseData{
		Country:          c.Country,
		CountryCode:      c.CountryInfo.ISO2,
		Flag:             c.CountryInfo.Flag,
		Continent:        c.Continent,
		Population:       population,
		TotalCases:       totalCases,
		TotalActive:      totalActive,
		TotalDeaths:      totalDeaths,
		TotalRecovered:   totalRecovered,
		CasesPerMillion:  casesPerMillion,
		DeathsPerMillion: deathsPerMillion,
		DiseaseCount:     len(diseases),
		Diseases:         diseases,
		LastUpdated:      lastUpdated,
	}
}

// ClearCache は統計キャッシュを破棄する。
func (s *Service) ClearCache() {
	s.cache.Clear()
}
