// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: lookup, upstream, auth, validation
	Action   string // ユーザー向け対処方法
	Handled  bool   // 認証エラーとして処理済みであることを示す
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDiseaseNotFound     = "DISEASE_NOT_FOUND"
	ErrCodeCountryNotFound     = "COUNTRY_NOT_FOUND"
	ErrCodeNewsNotFound        = "NEWS_NOT_FOUND"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeAllSourcesFailed    = "ALL_SOURCES_FAILED"
	ErrCodeAuthRequired        = "AUTH_REQUIRED"
	ErrCodeInvalidID           = "INVALID_ID"
)

// NewDiseaseNotFoundError は疾病未検出エラーを生成する。
// 空データセットとの区別が必要なため、デフォルト値では代替しない。
func NewDiseaseNotFoundError(id int) *APIError {
	return &APIError{
		Code:     ErrCodeDiseaseNotFound,
		Message:  fmt.Sprintf("指定された疾病が見つかりません: %d", id),
		Category: "lookup",
		Action:   "疾病IDを確認してください。",
	}
}

// NewInvalidIDError はID形式が不正な場合のエラーを生成する。
func NewInvalidIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("無効なIDです: %s", raw),
		Category: "validation",
		Action:   "IDには整数を指定してください。",
	}
}

// NewCountryNotFoundError は国未検出エラーを生成する。
func NewCountryNotFoundError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeCountryNotFound,
		Message:  fmt.Sprintf("指定された国が見つかりません: %s", name),
		Category: "lookup",
		Action:   "国名またはISO2/ISO3コードを確認してください。",
	}
}

// NewNewsNotFoundError はニュース記事未検出エラーを生成する。
func NewNewsNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeNewsNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", id),
		Category: "lookup",
		Action:   "記事IDを確認してください。",
	}
}

// NewUpstreamUnavailableError は単一上流ソースの取得失敗エラーを生成する。
// 集約操作の内側では捕捉され、そのソース分のみ空結果に変換される。
func NewUpstreamUnavailableError(source string, cause error) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  fmt.Sprintf("上流ソース %s の取得に失敗しました: %v", source, cause),
		Category: "upstream",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewAllSourcesFailedError は全ソース失敗エラーを生成する。
// 集約で1件も取得できず、かつ1つ以上のソースがエラーだった場合のみ使用する。
func NewAllSourcesFailedError(sources []string) *APIError {
	return &APIError{
		Code:     ErrCodeAllSourcesFailed,
		Message:  fmt.Sprintf("すべてのニュースソースの取得に失敗しました: %s", strings.Join(sources, ", ")),
		Category: "upstream",
		Action:   "ネットワーク状態を確認し、しばらく待ってから再度お試しください。",
	}
}

// NewAuthRequiredError は認証必須エラーを生成する。
// 401を受けた呼び出しは最終的にこのエラーに正規化される。
// Handled=true のため、呼び出し側は独自のエラー表示を重ねる必要がない。
func NewAuthRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthRequired,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインし直してください。",
		Handled:  true,
	}
}
