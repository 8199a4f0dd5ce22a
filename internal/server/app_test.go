package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/otpauth/internal/server/config"
	"github.com/dmitrijs2005/otpauth/internal/server/notify"
	"github.com/dmitrijs2005/otpauth/internal/server/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()
	return addr
}

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.StoreBackend = config.StoreMemory
	c.Notifier = config.NotifierLog
	c.SecretKey = "secret"
	c.LogLevel = "error"
	c.HTTPAddr = freeAddr(t)
	c.GRPCHealthAddr = freeAddr(t)
	return c
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := memoryConfig(t)
	c.SecretKey = ""

	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestNewApp_RedisOTPStore(t *testing.T) {
	mr := miniredis.RunT(t)

	c := memoryConfig(t)
	c.OTPBackend = config.OTPRedis
	c.RedisAddr = mr.Addr()

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	require.NotNil(t, app.redis)
	assert.NoError(t, app.redis.Ping(context.Background()).Err())

	app.close(context.Background())
}

func TestNewOTPStore_Record(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig(t))
	require.NoError(t, err)

	store, err := app.newOTPStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &otp.RecordStore{}, store)
	assert.Nil(t, app.redis)
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	c := memoryConfig(t)
	c.OTPBackend = config.OTPRedis
	c.RedisAddr = freeAddr(t)

	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	c := memoryConfig(t)
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	c.Notifier = config.NotifierSMTP
	n, err := newNotifier(context.Background(), c, app.logger)
	require.NoError(t, err)
	assert.IsType(t, &notify.SMTPNotifier{}, n)

	c.Notifier = config.NotifierLog
	n, err = newNotifier(context.Background(), c, app.logger)
	require.NoError(t, err)
	assert.IsType(t, &notify.LogNotifier{}, n)

	c.Notifier = config.NotifierSES
	c.SESAccessKeyID, c.SESSecretAccessKey = "id", "secret"
	n, err = newNotifier(context.Background(), c, app.logger)
	require.NoError(t, err)
	assert.IsType(t, &notify.SESNotifier{}, n)
}

func TestApp_RunServesAndStops(t *testing.T) {
	c := memoryConfig(t)
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	url := "http://" + c.HTTPAddr + "/api/test"
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(url)
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}
