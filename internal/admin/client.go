// Package admin は管理バックエンドとのセッションクライアントを提供する。
// Basic認証の資格情報をローカルストアに保持し、401に対する
// 有界の再試行と資格情報の無効化を行う。
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/epiwatch/internal/localstore"
	"github.com/hitoshi/epiwatch/internal/model"
)

// SessionStore は資格情報と運用者データの永続化口。
type SessionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Client は管理バックエンドのセッションクライアント。
// 認証付きリクエストが401を返した場合、保存済み資格情報で
// ちょうど1回だけ再試行し、それも失敗したらセッションを破棄する。
type Client struct {
	httpClient   *http.Client
	verifyClient *http.Client
	store        SessionStore
	logger       *slog.Logger
	baseURL      string
	now          func() time.Time
}

// NewClient はClientを生成する。
// verifyClient はnil可で、その場合はhttpClientと同じ設定を使う。
// 検証リクエストは401処理を通らないため、専用インスタンスに分けてある。
func NewClient(httpClient, verifyClient *http.Client, store SessionStore, logger *slog.Logger, baseURL string) *Client {
	if verifyClient == nil {
		verifyClient = httpClient
	}
	return &Client{
		httpClient:   httpClient,
		verifyClient: verifyClient,
		store:        store,
		logger:       logger,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		now:          time.Now,
	}
}

// credentials は保存済みのBasic認証資格情報を読み出す。
func (c *Client) credentials(ctx context.Context) (*model.Credentials, bool) {
	raw, ok, err := c.store.Get(ctx, localstore.KeyAdminAuth)
	if err != nil {
		c.logger.Warn("資格情報の読み込みに失敗しました", slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var creds model.Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		c.logger.Warn("資格情報の解析に失敗しました", slog.String("error", err.Error()))
		return nil, false
	}
	return &creds, true
}

// clearSession は保存済みの資格情報とプロフィールを破棄する。
func (c *Client) clearSession(ctx context.Context) {
	if err := c.store.Delete(ctx, localstore.KeyAdminAuth); err != nil {
		c.logger.Warn("資格情報の削除に失敗しました", slog.String("error", err.Error()))
	}
	if err := c.store.Delete(ctx, localstore.KeyAdminUser); err != nil {
		c.logger.Warn("プロフィールの削除に失敗しました", slog.String("error", err.Error()))
	}
}

// 401の特別処理を免除するパス。ログイン試行・公開エンドポイント・
// セッション検証はセッション破棄の引き金にしない。
func exemptFrom401Handling(path string) bool {
	return strings.Contains(path, "/auth/login") ||
		strings.Contains(path, "/public/") ||
		strings.Contains(path, "/auth/verify")
}

// 再試行の状態。再帰ではなく明示的な状態遷移で1回に制限する。
type retryState int

const (
	attemptInitial retryState = iota
	attemptRetry
	attemptFailed
)

// do は認証付きリクエストを実行する。401に対しては保存済み資格情報で
// ちょうど1回再試行し、再試行も401ならセッションを破棄して
// Handled付きのAuthRequiredを返す。
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	state := attemptInitial
	for {
		resp, data, err := c.send(ctx, c.httpClient, method, path, payload, true)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusUnauthorized {
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("バックエンドがエラーを返しました: %s %s status=%d", method, path, resp.StatusCode)
			}
			return data, nil
		}

		// 401: 免除パスと再試行済みリクエストは即座に確定させる
		if exemptFrom401Handling(path) {
			return nil, model.NewAuthRequiredError()
		}

		switch state {
		case attemptInitial:
			if _, ok := c.credentials(ctx); !ok {
				return nil, model.NewAuthRequiredError()
			}
			c.logger.Info("401を受信、保存済み資格情報で再試行します", slog.String("path", path))
			state = attemptRetry
		case attemptRetry:
			state = attemptFailed
			c.logger.Warn("再試行も401、セッションを破棄します", slog.String("path", path))
			c.clearSession(ctx)
			return nil, model.NewAuthRequiredError()
		}
	}
}

// send は1回分のHTTPリクエストを実行してボディを読み切る。
func (c *Client) send(ctx context.Context, client *http.Client, method, path string, payload []byte, attachAuth bool) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if attachAuth {
		if creds, ok := c.credentials(ctx); ok {
			req.SetBasicAuth(creds.Email, creds.Password)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("バックエンドへのリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("レスポンスの読み込みに失敗しました: %w", err)
	}
	return resp, data, nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("リクエストボディのシリアライズに失敗しました: %w", err)
	}
	return payload, nil
}

// LoginResponse はログイン応答を表す。
type LoginResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	User    *model.AdminUser `json:"user,omitempty"`
}

// Login は資格情報を検証し、成功したらローカルストアに保存する。
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	payload, err := encodeBody(model.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	resp, data, err := c.send(ctx, c.httpClient, http.MethodPost, "/auth/login", payload, false)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return &LoginResponse{Success: false}, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("ログインに失敗しました: status=%d", resp.StatusCode)
	}

	var result LoginResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("ログイン応答の解析に失敗しました: %w", err)
	}

	if result.Success {
		raw, err := json.Marshal(model.Credentials{Email: email, Password: password})
		if err != nil {
			return nil, fmt.Errorf("資格情報のシリアライズに失敗しました: %w", err)
		}
		if err := c.store.Put(ctx, localstore.KeyAdminAuth, string(raw)); err != nil {
			return nil, fmt.Errorf("資格情報の保存に失敗しました: %w", err)
		}
		if result.User != nil {
			userRaw, err := json.Marshal(result.User)
			if err == nil {
				if err := c.store.Put(ctx, localstore.KeyAdminUser, string(userRaw)); err != nil {
					c.logger.Warn("プロフィールの保存に失敗しました", slog.String("error", err.Error()))
				}
			}
		}
	}
	return &result, nil
}

// Logout は保存済みの資格情報を破棄する。
func (c *Client) Logout(ctx context.Context) {
	if err := c.store.Delete(ctx, localstore.KeyAdminAuth); err != nil {
		c.logger.Warn("資格情報の削除に失敗しました", slog.String("error", err.Error()))
	}
}

// VerifyAuth は保存済み資格情報の有効性を確認する。
// 専用クライアントを使い、失敗してもセッションは破棄しない。
// 一時的なバックエンド障害でログアウトさせないための意図的な方針。
func (c *Client) VerifyAuth(ctx context.Context) bool {
	resp, data, err := c.send(ctx, c.verifyClient, http.MethodGet, "/auth/verify", nil, true)
	if err != nil {
		c.logger.Debug("セッション検証に失敗しました", slog.String("error", err.Error()))
		return false
	}
	if resp.StatusCode != http.StatusOK {
		return false
	}
	var result struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return false
	}
	return result.Success
}

// CurrentUser はローカルストアに保存された管理者プロフィールを返す。
func (c *Client) CurrentUser(ctx context.Context) (*model.AdminUser, bool) {
	raw, ok, err := c.store.Get(ctx, localstore.KeyAdminUser)
	if err != nil || !ok {
		return nil, false
	}
	var user model.AdminUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}
