// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Severity は疾病の重大度を表す。
type Severity string

const (
	// SeverityLow は低重大度。
	SeverityLow Severity = "LOW"
	// SeverityModerate は中重大度（バックエンドのデフォルト表記）。
	SeverityModerate Severity = "MODERATE"
	// SeverityMedium は中重大度（静的カタログの表記）。
	// 上流データの表記揺れをそのまま保持する。
	SeverityMedium Severity = "MEDIUM"
	// SeverityHigh は高重大度。
	SeverityHigh Severity = "HIGH"
	// SeverityCritical は最重大度。
	SeverityCritical Severity = "CRITICAL"
)

// Disease は疾病カタログの1レコードを表す。
// バックエンド由来と静的フォールバック由来の両方をこの正規形に揃える。
// activeCases + deaths + recoveredCases == totalCases は保証されない。
// 異種上流データの不整合は検証せずそのまま保持する。
type Disease struct {
	ID                int        `json:"id"`
	Name              string     `json:"name"`
	TotalCases        int64      `json:"totalCases"`
	ActiveCases       int64      `json:"activeCases"`
	Deaths            int64      `json:"deaths"`
	RecoveredCases    int64      `json:"recoveredCases"`
	AffectedCountries int        `json:"affectedCountries"`
	Description       string     `json:"description"`
	Symptoms          string     `json:"symptoms"`
	Prevention        string     `json:"prevention"`
	Treatment         string     `json:"treatment"`
	Severity          Severity   `json:"severity"`
	Featured          bool       `json:"featured"`
	Source            string     `json:"source"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
	LastUpdated       time.Time  `json:"lastUpdated"`
}

// FormatRate は count/total を "5.00%" 形式のパーセント文字列にする。
// total が0以下のときは "0%" を返す。
func FormatRate(count, total int64) string {
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(count)/float64(total)*100)
}

// DiseaseCaseRow は疾病の国別症例データの1行を表す。
// COVID-19は実測値、その他の疾病は人口シェア係数による推計値が入る。
type DiseaseCaseRow struct {
	Country     string `json:"country"`
	TotalCases  int64  `json:"totalCases"`
	ActiveCases int64  `json:"activeCases"`
	Deaths      int64  `json:"deaths"`
	Recovered   int64  `json:"recovered"`
}

// DiseaseStatistics は疾病の派生統計を表す。
// 死亡率・回復率は "5.00%" 形式の文字列。totalCases が0の場合は "0%"。
type DiseaseStatistics struct {
	MortalityRate     string    `json:"mortalityRate"`
	RecoveryRate      string    `json:"recoveryRate"`
	ActiveCases       int64     `json:"activeCases"`
	TotalCases        int64     `json:"totalCases"`
	Deaths            int64     `json:"deaths"`
	Recovered         int64     `json:"recovered"`
	AffectedCountries int       `json:"affectedCountries"`
	LastUpdated       time.Time `json:"lastUpdated"`
}
