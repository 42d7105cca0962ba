package config

import (
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort        string
	CORSAllowedOrigin string

	// Local store (localStorage相当の永続KVファイル)
	LocalStorePath string

	// First-party backend
	BackendBaseURL string

	// Upstreams
	DiseaseShBaseURL string
	RSS2JSONBaseURL  string
	RSS2JSONAPIKey   string
	WHOFeedURL       string
	CDCFeedURL       string
	ProxyBaseURL     string
	ProxyFeedURL     string
	NewsAPIBaseURL   string
	FeedMaxItems     int

	// Fetch
	FetchTimeout time.Duration
	FetchMaxSize int64

	// Cache TTLs（上流の変動頻度に応じてクライアントごとに設定）
	DiseaseCacheTTL time.Duration
	StatsCacheTTL   time.Duration
	NewsCacheTTL    time.Duration

	// Rate Limit (req/min)
	RateLimitGeneral int

	// Logging
	Debug bool
}

// Load は環境変数からConfigを読み込む。
// すべての項目にデフォルト値があり、未設定でも起動できる。
// RSS2JSON_API_KEYが空の場合、ブリッジ経由のソースはキーなしで呼び出される。
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:        getEnvString("SERVER_PORT", "8080"),
		CORSAllowedOrigin: getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		LocalStorePath:    getEnvString("LOCAL_STORE_PATH", "epiwatch.db"),

		BackendBaseURL: getEnvString("BACKEND_BASE_URL", "http://localhost:8080/api"),

		DiseaseShBaseURL: getEnvString("DISEASE_SH_BASE_URL", "https://disease.sh"),
		RSS2JSONBaseURL:  getEnvString("RSS2JSON_BASE_URL", "https://api.rss2json.com"),
		RSS2JSONAPIKey:   getEnvString("RSS2JSON_API_KEY", ""),
		WHOFeedURL:       getEnvString("WHO_FEED_URL", "https://www.who.int/rss-feeds/disease-outbreak-news.xml"),
		CDCFeedURL:       getEnvString("CDC_FEED_URL", "https://tools.cdc.gov/api/v2/resources/media/316422.rss"),
		ProxyBaseURL:     getEnvString("PROXY_BASE_URL", "https://api.allorigins.win/raw?url="),
		ProxyFeedURL:     getEnvString("PROXY_FEED_URL", "https://news.un.org/feed/subscribe/en/news/topic/health/feed/rss.xml"),
		NewsAPIBaseURL:   getEnvString("NEWSAPI_BASE_URL", "https://newsapi.org"),
		FeedMaxItems:     getEnvInt("FEED_MAX_ITEMS", 50),

		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchMaxSize: getEnvInt64("FETCH_MAX_SIZE", 5242880),

		DiseaseCacheTTL: getEnvDuration("DISEASE_CACHE_TTL", 30*time.Minute),
		StatsCacheTTL:   getEnvDuration("STATS_CACHE_TTL", 5*time.Minute),
		NewsCacheTTL:    getEnvDuration("NEWS_CACHE_TTL", 15*time.Minute),

		RateLimitGeneral: getEnvInt("RATE_LIMIT_GENERAL", 120),

		Debug: getEnvBool("DEBUG", false),
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
