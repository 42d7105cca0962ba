package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/epiwatch/internal/diseasesh"
	"github.com/hitoshi/epiwatch/internal/model"
)

type stubCovid struct {
	global        *diseasesh.Global
	globalErr     error
	countries     []diseasesh.Country
	countriesErr  error
	continents    []diseasesh.Continent
	continentsErr error
	globalCalls   int
}

func (s *stubCovid) FetchGlobal(ctx context.Context) (*diseasesh.Global, error) {
	s.globalCalls++
	return s.global, s.globalErr
}

func (s *stubCovid) FetchCountries(ctx context.Context) ([]diseasesh.Country, error) {
	return s.countries, s.countriesErr
}

func (s *stubCovid) FetchContinents(ctx context.Context) ([]diseasesh.Continent, error) {
	return s.continents, s.continentsErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(covid *stubCovid) *Service {
	return NewService(covid, 5*time.Minute, testLogger())
}

func usaCountry() diseasesh.Country {
	return diseasesh.Country{
		Country: "USA",
		CountryInfo: diseasesh.CountryInfo{
			ISO2: "US", ISO3: "USA", Flag: "https://flags.example/us.png",
		},
		Cases: 100000, Active: 5000, Deaths: 1000, Recovered: 94000,
		TodayCases: 120, TodayDeaths: 3,
		Population: 331000000, Continent: "North America",
	}
}

func TestGlobalStatistics(t *testing.T) {
	covid := &stubCovid{global: &diseasesh.Global{
		Cases: 700000000, Deaths: 7000000, Recovered: 650000000, Active: 43000000,
		TodayCases: 15000, AffectedCountries: 230,
		Updated: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
	}}
	svc := newTestService(covid)

	stats := svc.GlobalStatistics(context.Background())
	if stats.TotalCases != 700000000 {
		t.Errorf("TotalCases = %d", stats.TotalCases)
	}
	if stats.TotalDiseases != 10 || stats.CriticalDiseases != 3 || stats.HighSeverityDiseases != 6 {
		t.Errorf("固定値が設定されていない: %+v", stats)
	}
	if !stats.LastUpdated.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("LastUpdated = %v", stats.LastUpdated)
	}
}

func TestGlobalStatisticsUpstreamFailure(t *testing.T) {
	covid := &stubCovid{globalErr: errors.New("timeout")}
	svc := newTestService(covid)

	stats := svc.GlobalStatistics(context.Background())
	if stats.TotalCases != 0 || stats.TotalDeaths != 0 {
		t.Errorf("取得失敗時はゼロ値: %+v", stats)
	}
	if stats.TotalDiseases != 10 || stats.CriticalDiseases != 3 {
		t.Errorf("固定値は失敗時も設定される: %+v", stats)
	}
	if stats.LastUpdated.IsZero() {
		t.Error("LastUpdated がゼロ値")
	}
}

func TestGlobalStatisticsCached(t *testing.T) {
	covid := &stubCovid{global: &diseasesh.Global{Cases: 1}}
	svc := newTestService(covid)

	ctx := context.Background()
	svc.GlobalStatistics(ctx)
	svc.GlobalStatistics(ctx)
	if covid.globalCalls != 1 {
		t.Errorf("globalCalls = %d, want 1", covid.globalCalls)
	}
}

func TestCountryStatisticsMatchesAnyIdentifier(t *testing.T) {
	covid := &stubCovid{countries: []diseasesh.Country{usaCountry()}}
	svc := newTestService(covid)

	ctx := context.Background()
	for _, query := range []string{"usa", "USA", "US", "Usa"} {
		stat, err := svc.CountryStatistics(ctx, query)
		if err != nil {
			t.Fatalf("CountryStatistics(%q) error = %v", query, err)
		}
		if stat.Country != "USA" || stat.CountryCode != "US" {
			t.Errorf("CountryStatistics(%q) = %+v", query, stat)
		}
	}
}

func TestCountryStatisticsNotFound(t *testing.T) {
	covid := &stubCovid{countries: []diseasesh.Country{usaCountry()}}
	svc := newTestService(covid)

	_, err := svc.CountryStatistics(context.Background(), "Atlantis")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "COUNTRY_NOT_FOUND" {
		t.Errorf("error = %v, want COUNTRY_NOT_FOUND", err)
	}
}

func TestCountryStatisticsUpstreamFailureReturnsZeroRecord(t *testing.T) {
	covid := &stubCovid{countriesErr: errors.New("timeout")}
	svc := newTestService(covid)

	stat, err := svc.CountryStatistics(context.Background(), "Japan")
	if err != nil {
		t.Fatalf("CountryStatistics() error = %v", err)
	}
	if stat.Country != "Japan" {
		t.Errorf("Country = %q, want Japan", stat.Country)
	}
	if stat.TotalCases != 0 || stat.Deaths != 0 || stat.Population != 0 {
		t.Errorf("取得失敗時はゼロ値: %+v", stat)
	}
	if stat.Diseases == nil || len(stat.Diseases) != 0 {
		t.Errorf("Diseases = %v, want 空スライス", stat.Diseases)
	}
	if stat.LastUpdated.IsZero() {
		t.Error("LastUpdated がゼロ値")
	}
}

func TestAllCountryStatisticsUpstreamFailureReturnsEmpty(t *testing.T) {
	covid := &stubCovid{countriesErr: errors.New("timeout")}
	svc := newTestService(covid)

	stats, err := svc.AllCountryStatistics(context.Background())
	if err != nil {
		t.Fatalf("AllCountryStatistics() error = %v", err)
	}
	if stats == nil || len(stats) != 0 {
		t.Errorf("stats = %v, want 空スライス", stats)
	}
}

func TestCountryStatisticsIncludesCovidBreakdown(t *testing.T) {
	covid := &stubCovid{countries: []diseasesh.Country{usaCountry()}}
	svc := newTestService(covid)

	stat, err := svc.CountryStatistics(context.Background(), "US")
	if err != nil {
		t.Fatalf("CountryStatistics() error = %v", err)
	}
	if len(stat.Diseases) != 1 || stat.Diseases[0].Name != "COVID-19" {
		t.Errorf("Diseases = %+v", stat.Diseases)
	}
}

func TestAllCountryStatistics(t *testing.T) {
	covid := &stubCovid{countries: []diseasesh.Country{usaCountry(), {Country: "Japan"}}}
	svc := newTestService(covid)

	stats, err := svc.AllCountryStatistics(context.Background())
	if err != nil {
		t.Fatalf("AllCountryStatistics() error = %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}
}

func TestTrendingDiseasesWinterIncludesInfluenza(t *testing.T) {
	covid := &stubCovid{global: &diseasesh.Global{
		Cases: 700000000, TodayCases: 50000, AffectedCountries: 230,
	}}
	svc := newTestService(covid)
	svc.now = func() time.Time { return time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC) }

	trending := svc.TrendingDiseases(context.Background())

	names := make(map[string]bool)
	for _, d := range trending {
		names[d.Name] = true
	}
	if !names["COVID-19"] || !names["Influenza"] || !names["Malaria"] {
		t.Errorf("trending = %+v", trending)
	}
	if names["Dengue"] {
		t.Error("1月にデング熱が含まれている")
	}

	// 新規症例数の降順
	for i := 1; i < len(trending); i++ {
		if trending[i-1].NewCases < trending[i].NewCases {
			t.Errorf("ソート順が不正: %+v", trending)
		}
	}
}

func TestTrendingDiseasesSummerIncludesDengue(t *testing.T) {
	covid := &stubCovid{global: &diseasesh.Global{TodayCases: 100}}
	svc := newTestService(covid)
	svc.now = func() time.Time { return time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC) }

	trending := svc.TrendingDiseases(context.Background())

	names := make(map[string]bool)
	for _, d := range trending {
		names[d.Name] = true
	}
	// 閾値未満のCOVID-19は含まれない
	if names["COVID-19"] {
		t.Error("日次1万件以下のCOVID-19が含まれている")
	}
	if !names["Dengue"] || !names["Malaria"] {
		t.Errorf("trending = %+v", trending)
	}
	if names["Influenza"] {
		t.Error("7月にインフルエンザが含まれている")
	}
}

func TestTrendingDiseasesUpstreamFailure(t *testing.T) {
	covid := &stubCovid{globalErr: errors.New("down")}
	svc := newTestService(covid)

	trending := svc.TrendingDiseases(context.Background())
	if len(trending) != 0 {
		t.Errorf("trending = %+v, want 空", trending)
	}
}

func TestContinentStatistics(t *testing.T) {
	covid := &stubCovid{continents: []diseasesh.Continent{
		{Continent: "Asia", Countries: []string{"Japan", "India"}, Cases: 300000000},
	}}
	svc := newTestService(covid)

	stats := svc.ContinentStatistics(context.Background())
	if len(stats) != 1 || stats[0].Continent != "Asia" {
		t.Fatalf("stats = %+v", stats)
	}
	if len(stats[0].Countries) != 2 {
		t.Errorf("Countries = %v", stats[0].Countries)
	}
}

func TestCountryWiseDiseaseData(t *testing.T) {
	africa := diseasesh.Country{
		Country: "Nigeria", Continent: "Africa", Population: 200000000,
		Cases: 1000, Active: 100, Deaths: 10, Recovered: 890,
		CountryInfo: diseasesh.CountryInfo{ISO2: "NG"},
	}
	unknown := diseasesh.Country{
		Country: "Micronesia", Continent: "", Population: 100000, Cases: 5,
	}
	covid := &stubCovid{countries: []diseasesh.Country{unknown, africa}}
	svc := newTestService(covid)

	data := svc.CountryWiseDiseaseData(context.Background())
	if len(data) != 2 {
		t.Fatalf("len(data) = %d, want 2", len(data))
	}

	// 総症例数の降順
	if data[0].Country != "Nigeria" {
		t.Errorf("data[0].Country = %q, want Nigeria", data[0].Country)
	}

	nigeria := data[0]
	names := make(map[string]model.DiseaseBreakdown)
	for _, d := range nigeria.Diseases {
		names[d.Name] = d
	}
	// アフリカの係数: マラリア・結核・HIV・麻しん相当の推計を含む
	malaria, ok := names["Malaria"]
	if !ok {
		t.Fatalf("Malaria がない: %+v", nigeria.Diseases)
	}
	if want := int64(200000000 * 0.15 * 0.01); malaria.Cases != want {
		t.Errorf("Malaria.Cases = %d, want %d", malaria.Cases, want)
	}
	hiv := names["HIV/AIDS"]
	if hiv.Recovered != 0 {
		t.Errorf("HIV.Recovered = %d, want 0", hiv.Recovered)
	}

	// 大陸不明の国は既定係数(結核とHIVのみ)
	micronesia := data[1]
	if micronesia.DiseaseCount != 3 {
		t.Errorf("DiseaseCount = %d, want 3 (COVID+TB+HIV)", micronesia.DiseaseCount)
	}

	// 疾病は症例数の降順
	for i := 1; i < len(nigeria.Diseases); i++ {
		if nigeria.Diseases[i-1].Cases < nigeria.Diseases[i].Cases {
			t.Errorf("疾病のソート順が不正: %+v", nigeria.Diseases)
		}
	}
}

func TestCountryWiseDiseaseDataPerMillion(t *testing.T) {
	country := diseasesh.Country{
		Country: "Testland", Continent: "Europe", Population: 1000000,
		Cases: 1000, Deaths: 10,
	}
	covid := &stubCovid{countries: []diseasesh.Country{country}}
	svc := newTestService(covid)

	data := svc.CountryWiseDiseaseData(context.Background())
	if len(data) != 1 {
		t.Fatalf("len(data) = %d", len(data))
	}
	// ヨーロッパ: TB 0.0002, HIV 0.001, インフルエンザ 0.08
	// totalCases = 1000 + 200 + 1000 + 80000 = 82200
	if data[0].TotalCases != 82200 {
		t.Errorf("TotalCases = %d, want 82200", data[0].TotalCases)
	}
	if data[0].CasesPerMillion != 82200 {
		t.Errorf("CasesPerMillion = %d, want 82200", data[0].CasesPerMillion)
	}
}
