package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/epiwatch/internal/localstore"
	"github.com/hitoshi/epiwatch/internal/model"
)

// exportVersion はエクスポート形式のバージョン。
const exportVersion = "1.0"

// ImportData は一括インポートを実行する。
// 疾病は1件ずつバックエンドに登録し、個々の失敗はバッチを中断せず
// 件数に計上する。ニュースは新しいIDと公開状態を付与して
// 既存リストに追記し、ローカルストアへ保存する。
func (c *Client) ImportData(ctx context.Context, payload model.ExportPayload) (*model.ImportResult, error) {
	result := &model.ImportResult{}

	for _, disease := range payload.Diseases {
		if _, err := c.CreateDisease(ctx, disease); err != nil {
			c.logger.Warn("疾病のインポートに失敗しました",
				slog.String("name", disease.Name), slog.String("error", err.Error()))
			result.Diseases.Failed++
			continue
		}
		result.Diseases.Imported++
	}

	if len(payload.News) > 0 {
		existing, err := c.AllNews(ctx)
		if err != nil {
			c.logger.Warn("既存ニュースの取得に失敗しました", slog.String("error", err.Error()))
			existing = nil
		}
		merged := make([]model.CuratedNewsItem, 0, len(existing)+len(payload.News))
		merged = append(merged, existing...)
		for _, item := range payload.News {
			item.ID = uuid.NewString()
			item.Visible = true
			if item.CreatedAt.IsZero() {
				item.CreatedAt = c.now()
			}
			merged = append(merged, item)
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("ニュースのシリアライズに失敗しました: %w", err)
		}
		if err := c.store.Put(ctx, localstore.KeyAdminNews, string(raw)); err != nil {
			return nil, fmt.Errorf("ニュースの保存に失敗しました: %w", err)
		}
		result.News.Imported = len(payload.News)
	}

	return result, nil
}

// ExportData は疾病とニュースの一括エクスポートを生成する。
func (c *Client) ExportData(ctx context.Context) (*model.ExportPayload, error) {
	diseases, err := c.AllDiseases(ctx)
	if err != nil {
		return nil, err
	}
	news, err := c.AllNews(ctx)
	if err != nil {
		return nil, err
	}
	return &model.ExportPayload{
		Diseases:   diseases,
		News:       news,
		ExportedAt: c.now(),
		Version:    exportVersion,
	}, nil
}

// DashboardStats は管理ダッシュボード向けの集計を返す。
// 取得失敗時はゼロ値の集計を返す。
func (c *Client) DashboardStats(ctx context.Context) *model.DashboardStats {
	stats := &model.DashboardStats{
		LastUpdated: c.now().UTC().Format(time.RFC3339),
	}
	diseases, err := c.AllDiseases(ctx)
	if err != nil {
		c.logger.Error("ダッシュボード集計の取得に失敗しました", slog.String("error", err.Error()))
		return stats
	}
	news, err := c.AllNews(ctx)
	if err != nil {
		c.logger.Error("ダッシュボード集計の取得に失敗しました", slog.String("error", err.Error()))
		return stats
	}

	stats.TotalDiseases = len(diseases)
	stats.TotalNews = len(news)
	for _, d := range diseases {
		if d.Featured {
			stats.VisibleDiseases++
		}
		stats.TotalCases += d.TotalCases
		stats.TotalDeaths += d.Deaths
		stats.TotalRecovered += d.RecoveredCases
		stats.ActiveCases += d.ActiveCases
	}
	for _, n := range news {
		if n.Visible {
			stats.VisibleNews++
		}
	}
	return stats
}
