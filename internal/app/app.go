// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/epiwatch/internal/admin"
	"github.com/hitoshi/epiwatch/internal/config"
	"github.com/hitoshi/epiwatch/internal/disease"
	"github.com/hitoshi/epiwatch/internal/diseasesh"
	"github.com/hitoshi/epiwatch/internal/handler"
	"github.com/hitoshi/epiwatch/internal/localstore"
	"github.com/hitoshi/epiwatch/internal/logger"
	"github.com/hitoshi/epiwatch/internal/metrics"
	"github.com/hitoshi/epiwatch/internal/middleware"
	"github.com/hitoshi/epiwatch/internal/news"
	"github.com/hitoshi/epiwatch/internal/security"
	"github.com/hitoshi/epiwatch/internal/stats"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.Debug)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// ローカルストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. ローカルストア
	store, err := localstore.Open(cfg.LocalStorePath)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	defer store.Close()

	slog.Info("local store opened", slog.String("path", cfg.LocalStorePath))

	// 2. セキュリティサービス
	guard := security.NewOutboundGuard()
	sanitizer := security.NewContentSanitizer()

	// 設定されたフィードURLの安全性を起動時に検証する
	for _, feedURL := range []string{cfg.WHOFeedURL, cfg.CDCFeedURL, cfg.ProxyFeedURL} {
		if err := guard.ValidateURL(feedURL); err != nil {
			return fmt.Errorf("unsafe feed URL %q: %w", feedURL, err)
		}
	}

	// 3. 監視メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 上流フェッチはSSRF防止付きクライアント、
	// ファーストパーティのバックエンドは素のクライアントを使う
	safeClient := guard.NewSafeClient(cfg.FetchTimeout)
	backendHTTPClient := &http.Client{Timeout: cfg.FetchTimeout}

	// 4. 上流クライアント
	covidClient := diseasesh.NewClient(safeClient, slog.Default(), collector)
	covidClient.SetBaseURL(cfg.DiseaseShBaseURL)

	backendClient := disease.NewBackendClient(backendHTTPClient, slog.Default(), cfg.BackendBaseURL)

	// 5. 管理クライアント
	adminClient := admin.NewClient(
		backendHTTPClient,
		&http.Client{Timeout: cfg.FetchTimeout},
		store, slog.Default(), cfg.BackendBaseURL,
	)

	// 6. ドメインサービス
	diseaseService := disease.NewService(backendClient, covidClient, cfg.DiseaseCacheTTL, slog.Default())
	statsService := stats.NewService(covidClient, cfg.StatsCacheTTL, slog.Default())

	sources := []news.Source{
		news.NewRSS2JSONSource(safeClient, slog.Default(), collector, news.RSS2JSONConfig{
			BaseURL:  cfg.RSS2JSONBaseURL,
			FeedURL:  cfg.WHOFeedURL,
			APIKey:   cfg.RSS2JSONAPIKey,
			MaxItems: cfg.FeedMaxItems,
			Name:     "WHO",
			IDPrefix: "who",
			Category: "Disease Outbreak",
		}),
		news.NewRSS2JSONSource(safeClient, slog.Default(), collector, news.RSS2JSONConfig{
			BaseURL:  cfg.RSS2JSONBaseURL,
			FeedURL:  cfg.CDCFeedURL,
			APIKey:   cfg.RSS2JSONAPIKey,
			MaxItems: cfg.FeedMaxItems,
			Name:     "CDC",
			IDPrefix: "cdc",
			Category: "Health News",
		}),
		news.NewNewsAPISource(safeClient, slog.Default(), collector, adminClient, cfg.NewsAPIBaseURL, cfg.FeedMaxItems),
		news.NewProxyFeedSource(safeClient, slog.Default(), collector, cfg.ProxyBaseURL, cfg.ProxyFeedURL),
	}

	newsService := news.NewService(
		sources,
		admin.NewCuratedStore(store),
		store,
		sanitizer,
		cfg.NewsCacheTTL,
		slog.Default(),
	)

	// 7. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		// configのRateLimitGeneralはreq/min単位なのでreq/secに変換する
		rateLimiterCfg.Rate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.Burst = cfg.RateLimitGeneral
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		MetricsGatherer:   registry,
		DiseaseService:    diseaseService,
		NewsService:       newsService,
		StatsService:      statsService,
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
