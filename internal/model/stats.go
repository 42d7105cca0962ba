// Package model はドメインモデルを定義する。
package model

import "time"

// GlobalStats は全世界の疫学集計を表す。
// 上流取得失敗時はゼロ値のレコード（追跡疾病数などの固定値のみ設定）を返す。
type GlobalStats struct {
	TotalActiveCases      int64     `json:"totalActiveCases"`
	TotalDeaths           int64     `json:"totalDeaths"`
	TotalRecovered        int64     `json:"totalRecovered"`
	TotalCases            int64     `json:"totalCases"`
	TodayCases            int64     `json:"todayCases"`
	TodayDeaths           int64     `json:"todayDeaths"`
	TodayRecovered        int64     `json:"todayRecovered"`
	Critical              int64     `json:"critical"`
	Tests                 int64     `json:"tests"`
	Population            int64     `json:"population"`
	AffectedCountries     int       `json:"affectedCountries"`
	ActiveCasesPerMillion float64   `json:"activeCasesPerMillion"`
	DeathsPerMillion      float64   `json:"deathsPerMillion"`
	TestsPerMillion       float64   `json:"testsPerMillion"`
	TotalDiseases         int       `json:"totalDiseases"`
	CriticalDiseases      int       `json:"criticalDiseases"`
	HighSeverityDiseases  int       `json:"highSeverityDiseases"`
	LastUpdated           time.Time `json:"lastUpdated"`
}

// DiseaseBreakdown は国別統計に含まれる疾病ごとの内訳を表す。
type DiseaseBreakdown struct {
	Name      string `json:"name"`
	Cases     int64  `json:"cases"`
	Active    int64  `json:"active,omitempty"`
	Deaths    int64  `json:"deaths,omitempty"`
	Recovered int64  `json:"recovered,omitempty"`
}

// CountryStat は1か国の疫学統計を表す。
// 取得のたびに上流データから再構築され、変更されることはない。
type CountryStat struct {
	Country          string             `json:"country"`
	CountryCode      string             `json:"countryCode"`
	ISO3             string             `json:"iso3,omitempty"`
	Continent        string             `json:"continent"`
	Population       int64              `json:"population"`
	ActiveCases      int64              `json:"activeCases"`
	TotalCases       int64              `json:"totalCases"`
	Deaths           int64              `json:"deaths"`
	Recovered        int64              `json:"recovered"`
	NewCases         int64              `json:"newCases"`
	NewDeaths        int64              `json:"newDeaths"`
	Critical         int64              `json:"critical"`
	Tests            int64              `json:"tests"`
	TestsPerMillion  float64            `json:"testsPerMillion"`
	CasesPerMillion  float64            `json:"casesPerMillion"`
	DeathsPerMillion float64            `json:"deathsPerMillion"`
	Flag             string             `json:"flag"`
	Lat              float64            `json:"lat"`
	Long             float64            `json:"long"`
	Diseases         []DiseaseBreakdown `json:"diseases"`
	LastUpdated      time.Time          `json:"lastUpdated"`
}

// ContinentStat は大陸ごとの疫学集計を表す。上流レスポンスの直接写像。
type ContinentStat struct {
	Continent        string   `json:"continent"`
	Countries        []string `json:"countries"`
	Population       int64    `json:"population"`
	Cases            int64    `json:"cases"`
	Deaths           int64    `json:"deaths"`
	Recovered        int64    `json:"recovered"`
	Active           int64    `json:"active"`
	Critical         int64    `json:"critical"`
	TodayCases       int64    `json:"todayCases"`
	TodayDeaths      int64    `json:"todayDeaths"`
	CasesPerMillion  float64  `json:"casesPerMillion"`
	DeathsPerMillion float64  `json:"deathsPerMillion"`
	Tests            int64    `json:"tests"`
	TestsPerMillion  float64  `json:"testsPerMillion"`
}

// TrendingDisease は注目疾病ランキングの1件を表す。
// 実測に基づくのはCOVID-19のみで、他は季節性ヒューリスティックによる表示用の値。
type TrendingDisease struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	Trend             string   `json:"trend"`
	NewCases          int64    `json:"newCases"`
	TotalCases        int64    `json:"totalCases"`
	Severity          Severity `json:"severity"`
	AffectedCountries int      `json:"affectedCountries"`
	PercentageChange  float64  `json:"percentageChange"`
}

// CountryDiseaseData は1か国の疾病横断データを表す。
// COVID-19以外の数値は地域有病率係数による推計であり実測値ではない。
type CountryDiseaseData struct {
	Country          string             `json:"country"`
	CountryCode      string             `json:"countryCode"`
	Flag             string             `json:"flag"`
	Continent        string             `json:"continent"`
	Population       int64              `json:"population"`
	TotalCases       int64              `json:"totalCases"`
	TotalActive      int64              `json:"totalActive"`
	TotalDeaths      int64              `json:"totalDeaths"`
	TotalRecovered   int64              `json:"totalRecovered"`
	CasesPerMillion  int64              `json:"casesPerMillion"`
	DeathsPerMillion int64              `json:"deathsPerMillion"`
	DiseaseCount     int                `json:"diseaseCount"`
	Diseases         []DiseaseBreakdown `json:"diseases"`
	LastUpdated      time.Time          `json:"lastUpdated"`
}
