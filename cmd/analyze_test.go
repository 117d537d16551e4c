package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/news-helper/internal/api"
	"github.com/JakeFAU/news-helper/internal/auth"
	"github.com/JakeFAU/news-helper/internal/config"
	"github.com/JakeFAU/news-helper/internal/id/uuid"
)

func stubRuntime(t *testing.T) {
	t.Helper()
	orig := loadRuntime
	loadRuntime = func(string, string) (*runtime, error) {
		return &runtime{
			cfg: config.Config{
				Server: config.ServerConfig{Port: 8787},
				Web:    config.WebConfig{APIBase: "/api"},
			},
			logger: zap.NewNop(),
		}, nil
	}
	t.Cleanup(func() { loadRuntime = orig })
}

func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := api.NewServer(config.Config{}, auth.ParseAllowList("cli:k1"), uuid.New(), zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestAnalyzeCommandPrintsMarkdown(t *testing.T) {
	stubRuntime(t)
	ts := newAPI(t)

	out, _, err := runRoot(t, "analyze",
		"--api-base", ts.URL+"/api",
		"--url", "https://news.example/a",
		"--mode", "background",
		"--lang", "es",
		"--key", "k1",
	)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "# News Helper (Borrador)"), out)
	require.Contains(t, out, "## Modo: background")
	require.Contains(t, out, "**Artículo:** https://news.example/a")
}

func TestAnalyzeCommandRendersForTerminal(t *testing.T) {
	stubRuntime(t)
	ts := newAPI(t)

	out, _, err := runRoot(t, "analyze", "--api-base", ts.URL+"/api", "--key", "k1", "--render")
	require.NoError(t, err)
	require.Contains(t, out, "News Helper (Stub)")
	require.Contains(t, out, "Key Points")
}

func TestAnalyzeCommandUnauthorized(t *testing.T) {
	stubRuntime(t)
	ts := newAPI(t)

	_, errOut, err := runRoot(t, "analyze", "--api-base", ts.URL+"/api", "--key", "wrong")
	require.Error(t, err)
	require.Equal(t, exitCode(1), err)
	require.Equal(t, "Error: unauthorized\n", errOut)
}

func TestAnalyzeCommandRateLimited(t *testing.T) {
	stubRuntime(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(ts.Close)

	_, errOut, err := runRoot(t, "analyze", "--api-base", ts.URL)
	require.Error(t, err)
	require.Equal(t, "Rate limited. Please retry in ~60s.\n", errOut)
}

func TestDefaultAPIBase(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Server: config.ServerConfig{Port: 9000}, Web: config.WebConfig{APIBase: "/api"}}
	require.Equal(t, "http://127.0.0.1:9000/api", defaultAPIBase(cfg))

	cfg.Web.APIBase = "https://api.example/api"
	require.Equal(t, "https://api.example/api", defaultAPIBase(cfg))
}

func TestResolveRuntimeRequiresInit(t *testing.T) {
	t.Parallel()

	_, err := resolveRuntime(context.Background())
	require.Error(t, err)
}
