package app

import (
	"bytes"
	"strings"
	"testing"
)

// TestRun_Healthcheck_NoServer はサーバーが起動していない環境で
// healthcheckコマンドがエラーを返すことを検証する。
func TestRun_Healthcheck_NoServer(t *testing.T) {
	t.Setenv("SERVER_PORT", "1") // 接続できないポート

	var buf bytes.Buffer
	err := Run(&buf, []string{"healthcheck"})
	if err == nil {
		t.Fatal("Run(healthcheck) without a server should return error")
	}
	if !strings.Contains(err.Error(), "health check failed") {
		t.Errorf("err = %v", err)
	}
}

// TestRun_ServeWithUnwritableStore はローカルストアが開けない場合に
// serveコマンドがエラーを返すことを検証する。
func TestRun_ServeWithUnwritableStore(t *testing.T) {
	t.Setenv("LOCAL_STORE_PATH", "/nonexistent-dir/epiwatch.db")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run(serve) with unwritable store path should return error")
	}
}

// TestRun_ServeWithUnsafeFeedURL は危険なフィードURLが設定された場合に
// 起動が拒否されることを検証する。
func TestRun_ServeWithUnsafeFeedURL(t *testing.T) {
	t.Setenv("LOCAL_STORE_PATH", t.TempDir()+"/epiwatch.db")
	t.Setenv("WHO_FEED_URL", "http://169.254.169.254/latest/meta-data")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run(serve) with metadata IP feed URL should return error")
	}
	if !strings.Contains(err.Error(), "unsafe feed URL") {
		t.Errorf("err = %v", err)
	}
}
