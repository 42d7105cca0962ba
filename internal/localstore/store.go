// Package localstore は永続キーバリューストアを提供する。
//
// ブラウザのlocalStorageに相当する小さな不透明ストアで、
// 管理者の資格情報 (adminAuth)・表示プロフィール (adminUser)・
// 運用者登録ニュース (adminNews)・ニュースキャッシュスナップショット
// (newsCache) の4つの固定キーを保持する。値はJSON文字列として扱い、
// 解釈は各所有サービスに委ねる。
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLiteドライバ登録
)

// ストアが使用する固定キー。
const (
	KeyAdminAuth  = "adminAuth"
	KeyAdminUser  = "adminUser"
	KeyAdminNews  = "adminNews"
	KeyNewsCache  = "newsCache"
)

const timeLayout = time.RFC3339

// Store はSQLiteファイルに裏付けられたキーバリューストア。
type Store struct {
	db *sql.DB
}

// Open は指定パスのローカルストアを開き、未適用のマイグレーションを適用する。
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(path); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close は下位のデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Get はキーに対応する値を返す。未登録の場合は空文字列とfalseを返す。
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select kv entry: %w", err)
	}
	return value, true, nil
}

// Put は値を格納する。既存エントリは無条件に上書きする。
func (s *Store) Put(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("upsert kv entry: %w", err)
	}
	return nil
}

// Delete はキーを削除する。存在しないキーの削除はエラーにしない。
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE key = ?`, key,
	); err != nil {
		return fmt.Errorf("delete kv entry: %w", err)
	}
	return nil
}
