package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repomatch/internal/api"
	"repomatch/internal/config"
)

// execute runs the CLI with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

// writeConfig saves a config pointing at ts with a cache under a temp dir.
func writeConfig(t *testing.T, ts *httptest.Server, mutate func(*config.Config)) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.GitHub.Token = "test"
	cfg.GitHub.RPS = 1000
	cfg.GitHub.Burst = 100
	cfg.GitHub.SearchRPS = 1000
	cfg.GitHub.SearchBurst = 100
	cfg.Storage.DBPath = filepath.Join(dir, "cache.db")
	cfg.Logging.Level = "disabled"
	if ts != nil {
		cfg.GitHub.APIBaseURL = ts.URL
		cfg.GitHub.RawBaseURL = ts.URL + "/raw"
	}
	if mutate != nil {
		mutate(&cfg)
	}
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

func profileServer(t *testing.T) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/dev":
			_, _ = w.Write([]byte(`{"login":"dev","name":"Dev"}`))
		case "/users/dev/repos":
			_, _ = w.Write([]byte(`[{"full_name":"dev/op","name":"op","owner":{"login":"dev","type":"User"},"language":"Go","topics":["kubernetes"],"description":"a kubernetes operator","pushed_at":"2025-05-01T00:00:00Z"}]`))
		case "/users/dev/starred":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "repomatch.yaml")

	out, err := execute(t, "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Config written to:")
	assert.Contains(t, out, "REPOMATCH")

	_, err = os.Stat(path)
	require.NoError(t, err)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Recommend.Quota)
}

func TestInitRejectsArgs(t *testing.T) {
	_, err := execute(t, "init", "extra")
	assert.Error(t, err)
}

func TestRecommendRequiresLogin(t *testing.T) {
	path := writeConfig(t, nil, nil)

	_, err := execute(t, "--config", path, "recommend")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no login")
}

func TestInvalidConfigFails(t *testing.T) {
	path := writeConfig(t, nil, func(c *config.Config) { c.Recommend.MutualMode = "both" })

	_, err := execute(t, "--config", path, "keywords", "dev")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestKeywordsCommandJSON(t *testing.T) {
	ts := profileServer(t)
	path := writeConfig(t, ts, nil)

	out, err := execute(t, "--config", path, "keywords", "dev", "--json")
	require.NoError(t, err)

	var resp api.KeywordsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "dev", resp.Login)
	assert.Contains(t, resp.Keywords, "go")
	assert.Contains(t, resp.Keywords, "kubernetes")
	assert.Equal(t, 1, resp.Summary.OwnedRepos)

	stats, err := execute(t, "--config", path, "cache", "stats")
	require.NoError(t, err)
	assert.Regexp(t, `^[1-9]\d* cached responses`, stats)
}

func TestKeywordsUsesConfiguredLogin(t *testing.T) {
	ts := profileServer(t)
	path := writeConfig(t, ts, func(c *config.Config) { c.Account.Login = "dev" })

	out, err := execute(t, "--config", path, "keywords")
	require.NoError(t, err)
	assert.Contains(t, out, "@dev")
	assert.Contains(t, out, "Go(1)")
}

func TestKeywordsUnknownLogin(t *testing.T) {
	ts := profileServer(t)
	path := writeConfig(t, ts, nil)

	_, err := execute(t, "--config", path, "keywords", "ghost")
	assert.Error(t, err)
}

func TestCachePurgeEmpty(t *testing.T) {
	path := writeConfig(t, nil, nil)

	out, err := execute(t, "--config", path, "cache", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "purged 0 responses")
}
