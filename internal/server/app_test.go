package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-helper/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8787, ShutdownTimeoutSeconds: 2},
		Auth:   config.AuthConfig{AllowedKeys: "web:abc"},
		CORS:   config.CORSConfig{AllowLocalhost: true, AllowedDomains: []string{"hexagonlabs.cloud"}},
		Web:    config.WebConfig{Enabled: true, APIBase: "/api", DefaultLang: "en", TimeoutSeconds: 5},
	}
}

func TestNewAppServesAPIAndFrontend(t *testing.T) {
	t.Parallel()

	app, err := NewApp(testConfig(), ModeAll, zap.NewNop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(`{}`))
	req.Header.Set("x-api-key", "abc")
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "News Helper")
}

func TestNewAppWithoutFrontend(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Web.Enabled = false
	app, err := NewApp(cfg, ModeAll, zap.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewAppWebMode(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Web.Enabled = false
	app, err := NewApp(cfg, ModeWeb, zap.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewBufferString(`{}`))
	req.Header.Set("x-api-key", "abc")
	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListenFailsWhenPortTaken(t *testing.T) {
	t.Parallel()

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close() //nolint:errcheck // test cleanup

	cfg := testConfig()
	cfg.Server.Port = taken.Addr().(*net.TCPAddr).Port
	app, err := NewApp(cfg, ModeAll, zap.NewNop())
	require.NoError(t, err)

	err = app.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "listen on")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	app, err := NewApp(testConfig(), ModeAll, zap.NewNop())
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	transport := &http.Transport{}
	hc := &http.Client{Transport: transport, Timeout: 2 * time.Second}
	resp, err := hc.Get(fmt.Sprintf("http://%s/healthz", ln.Addr()))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.JSONEq(t, `{"ok":true}`, string(body))
	transport.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestFrontendCallsOwnListenerRegardlessOfHost(t *testing.T) {
	var elsewhereHits atomic.Int32
	elsewhere := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		elsewhereHits.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"elsewhere"}`))
	}))
	t.Cleanup(elsewhere.Close)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port
	app, err := NewApp(cfg, ModeAll, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	form := url.Values{"url": {"https://a.example"}, "key": {"abc"}}
	req, err := http.NewRequest(http.MethodPost, "http://"+ln.Addr().String()+"/analyze", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Host = strings.TrimPrefix(elsewhere.URL, "http://")
	req.Header.Set("X-Forwarded-Proto", "http")

	transport := &http.Transport{}
	defer transport.CloseIdleConnections()
	resp, err := (&http.Client{Transport: transport, Timeout: 5 * time.Second}).Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.True(t, strings.HasPrefix(string(body), `<pre class="markdown"># News Helper (Stub)`), string(body))
	require.Zero(t, elsewhereHits.Load())
}
