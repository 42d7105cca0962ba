// Package model はドメインモデルを定義する。
package model

import "time"

// Credentials は管理バックエンドへのBasic認証資格情報を表す。
// ローカルストアの adminAuth キーにJSONで永続化される。
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminUser は管理者の表示用プロフィールを表す。
// ログイン成功時にバックエンドが返し、adminUser キーに永続化される。
type AdminUser struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// APIKeyRecord は第三者APIキーのレコードを表す。
// 所有者はバックエンドで、このシステムはCRUDの中継と公開参照のみ行う。
type APIKeyRecord struct {
	ID          int    `json:"id,omitempty"`
	Name        string `json:"name"`
	KeyValue    string `json:"keyValue"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// ImportCount はインポートの成否件数を表す。
type ImportCount struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// ImportResult は一括インポートのカテゴリ別集計を表す。
// 1件の失敗はバッチ全体を中断しない。
type ImportResult struct {
	Diseases ImportCount `json:"diseases"`
	News     ImportCount `json:"news"`
}

// ExportPayload はエクスポートで生成されるデータ一式を表す。
// インポートはこの形式を受け取る。
type ExportPayload struct {
	Diseases   []Disease         `json:"diseases"`
	News       []CuratedNewsItem `json:"news"`
	ExportedAt time.Time         `json:"exportedAt"`
	Version    string            `json:"version"`
}

// DashboardStats は管理ダッシュボードの集計を表す。
type DashboardStats struct {
	TotalDiseases   int    `json:"totalDiseases"`
	VisibleDiseases int    `json:"visibleDiseases"`
	TotalNews       int    `json:"totalNews"`
	VisibleNews     int    `json:"visibleNews"`
	TotalCases      int64  `json:"totalCases"`
	TotalDeaths     int64  `json:"totalDeaths"`
	TotalRecovered  int64  `json:"totalRecovered"`
	ActiveCases     int64  `json:"activeCases"`
	LastUpdated     string `json:"lastUpdated"`
}
