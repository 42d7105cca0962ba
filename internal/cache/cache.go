// Package cache はTTL付きのインメモリキャッシュを提供する。
//
// 各クライアントサービスが専用のインスタンスを1つずつ所有する。
// 期限切れエントリは能動的に削除されず、Getで無視されるだけで、
// 次の成功フェッチのPutで上書きされる。キー空間は小さく有限であり、
// セッション寿命の範囲では無制限成長を許容する。
package cache

import (
	"sync"
	"time"
)

// entry は値と格納時刻の組。
type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Cache はキー文字列から値へのTTL付きマップ。
// now関数を差し替えることでテスト時に時計を注入できる。
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// New は指定TTLのCacheを生成する。
func New[T any](ttl time.Duration) *Cache[T] {
	return NewWithClock[T](ttl, time.Now)
}

// NewWithClock は時計関数を注入してCacheを生成する。テスト用。
func NewWithClock[T any](ttl time.Duration, now func() time.Time) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     now,
	}
}

// Get はTTL内のキャッシュ値を返す。
// 期限切れまたは未登録の場合はゼロ値とfalseを返す（値は削除しない）。
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.value, true
}

// GetStale は期限切れを無視してキャッシュ値を返す。
// フェッチ失敗時の古いデータへのフォールバックに使用する。
func (c *Cache[T]) GetStale(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Put は値を現在時刻で格納する。既存エントリは無条件に上書きする。
func (c *Cache[T]) Put(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[T]{value: value, storedAt: c.now()}
}

// PutAt は格納時刻を指定して値を格納する。
// 永続化済みスナップショットの復元に使用する。
func (c *Cache[T]) PutAt(key string, value T, storedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[T]{value: value, storedAt: storedAt}
}

// Clear は全エントリを破棄する。
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[T])
}
