// Package model はドメインモデルを定義する。
package model

import "time"

// NewsItem はニュース記事1件を表す。
// 外部ソース由来（ソース接頭辞付き合成ID）と運用者登録分（固定ID）の
// 両方をこの形に正規化する。
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}

// CuratedNewsItem は運用者がローカルストアで管理するニュース記事を表す。
// Visible=false の記事は公開フィードにマージされない。
type CuratedNewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Visible     bool      `json:"visible"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Pagination はページネーションのメタデータを表す。
type Pagination struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// NewsPage はページ分割されたニュースフィードを表す。
type NewsPage struct {
	Items      []NewsItem `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination はリスト長とページ指定からメタデータを計算する。
// totalPages = ceil(totalItems / pageSize)。
func NewPagination(page, pageSize, totalItems int) Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}
	return Pagination{
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}
