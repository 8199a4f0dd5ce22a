package cli

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/otpauth/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_AndRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		ServerURL:      srv.URL,
		SessionDBPath:  filepath.Join(t.TempDir(), "session.db"),
		RequestTimeout: time.Second,
	}

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)

	capturePrint(t)
	var out bytes.Buffer
	app.out = &out
	app.reader = bufio.NewReader(strings.NewReader("whoami\nexit\n"))

	require.NoError(t, app.Run(context.Background()))
	assert.Contains(t, out.String(), "Welcome to the auth CLI")
	assert.NotContains(t, out.String(), "Warning")
	assert.Contains(t, out.String(), "please log in first")
}

func TestRun_WarnsWhenServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := &config.Config{
		ServerURL:      url,
		SessionDBPath:  filepath.Join(t.TempDir(), "session.db"),
		RequestTimeout: time.Second,
	}
	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)

	capturePrint(t)
	var out bytes.Buffer
	app.out = &out
	app.reader = bufio.NewReader(strings.NewReader(""))

	require.NoError(t, app.Run(context.Background()))
	assert.Contains(t, out.String(), "Warning: server unavailable")
}

func TestNewApp_BadDBPath(t *testing.T) {
	cfg := &config.Config{SessionDBPath: filepath.Join(t.TempDir(), "missing", "dir", "session.db")}
	_, err := NewApp(context.Background(), cfg)
	assert.Error(t, err)
}
