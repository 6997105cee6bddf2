package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/gitguide/internal/config"
	"github.com/conneroisu/gitguide/internal/content"
	"github.com/conneroisu/gitguide/internal/logging"
	"github.com/conneroisu/gitguide/internal/metrics"
	"github.com/conneroisu/gitguide/internal/settings"
	"github.com/conneroisu/gitguide/internal/toc"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(viper.New())
	require.NoError(t, err)
	cfg.Server.Port = 0
	return cfg
}

type testEnv struct {
	srv     *Server
	http    *httptest.Server
	client  *http.Client
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, configure func(*config.Config, *Options)) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	m := metrics.New("test", "go-test")
	opts := Options{Config: cfg, Metrics: m}
	if configure != nil {
		configure(cfg, &opts)
	}

	srv, err := New(opts)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
		ts.Close()
	})

	client := ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &testEnv{srv: srv, http: ts, client: client, metrics: m}
}

func (e *testEnv) get(t *testing.T, path string, cookies ...*http.Cookie) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.http.URL+path, nil)
	require.NoError(t, err)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(t, req)
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func writeCatalog(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

const alphaYAML = `- id: alpha
  category: Basics
  title: Alpha
  description: First article.
  overview: Alpha overview.
`

const betaYAML = `- id: beta
  category: Basics
  title: Beta
  description: Second article.
  overview: Beta overview.
`

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "<title>Git Guide</title>")
	assert.Contains(t, body, `class="theme-light"`)
	assert.Contains(t, body, `id="toc"`)
	assert.Contains(t, body, "Browse the guide")

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "connect-src 'self' ws: wss:")
}

func TestEscapedArticleIDs(t *testing.T) {
	cat, err := content.NewCatalog([]content.Record{
		{ID: "intro", Category: "Start", Title: "Intro"},
		{ID: "git basics", Category: "Start", Title: "Git Basics", Overview: "Spaces in the id."},
		{ID: "ci/cd", Category: "Start", Title: "CI/CD", Overview: "A slash in the id."},
	})
	require.NoError(t, err)
	env := newTestEnv(t, func(_ *config.Config, opts *Options) { opts.Catalog = cat })

	for _, id := range []string{"git basics", "ci/cd"} {
		t.Run(id, func(t *testing.T) {
			escaped := url.PathEscape(id)

			resp, body := env.get(t, "/docs/"+escaped)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, `data-route="/docs/`+escaped+`"`)

			resp, body = env.get(t, "/api/toc/"+escaped)
			require.Equal(t, http.StatusOK, resp.StatusCode, body)
			var outline outlineResponse
			require.NoError(t, json.Unmarshal([]byte(body), &outline))
			assert.Equal(t, id, outline.ID)
			assert.NotEmpty(t, outline.Headings)
		})
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDocPage(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/docs/commits")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<title>Commits and the Staging Area | Git Guide</title>")
	assert.Contains(t, body, `href="#the-three-areas"`)
	assert.Contains(t, body, `aria-current="page"`)
	assert.NotContains(t, body, `href="#stage-and-commit"`, "code example titles stay out of the outline")

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.PageViewsTotal.WithLabelValues("commits")))
}

func TestUnknownDocRedirectsHome(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.get(t, "/docs/no-such-article")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RedirectsTotal))
}

func TestTOCAPI(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/api/toc/commits")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out outlineResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "commits", out.ID)

	ids := make([]string, len(out.Headings))
	for i, h := range out.Headings {
		ids[i] = h.ID
	}
	assert.Equal(t, []string{
		"overview", "explanation", "the-three-areas", "writing-good-messages",
		"code-examples", "workflow-steps", "key-takeaways", "common-mistakes",
		"warnings", "interview-questions",
	}, ids)
	assert.Equal(t, toc.Heading{ID: "the-three-areas", Text: "The three areas", Level: 3}, out.Headings[2])
}

func TestTOCAPIUnknown(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/api/toc/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var out errorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Contains(t, out.Error, "missing")
}

func themeCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == settings.CookieName {
			return c
		}
	}
	return nil
}

func TestThemeToggle(t *testing.T) {
	env := newTestEnv(t, nil)

	post := func(form url.Values, referer string, cookie *http.Cookie) *http.Response {
		req, err := http.NewRequest(http.MethodPost, env.http.URL+"/theme", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if referer != "" {
			req.Header.Set("Referer", referer)
		}
		if cookie != nil {
			req.AddCookie(cookie)
		}
		resp, _ := env.do(t, req)
		return resp
	}

	resp := post(nil, env.http.URL+"/docs/commits#overview", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/docs/commits", resp.Header.Get("Location"))
	dark := themeCookie(resp)
	require.NotNil(t, dark)
	assert.Equal(t, "dark", dark.Value)

	resp = post(nil, "", dark)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	require.NotNil(t, themeCookie(resp))
	assert.Equal(t, "light", themeCookie(resp).Value)

	resp = post(url.Values{"theme": {"dark"}}, "https://elsewhere.example/page", dark)
	assert.Equal(t, "/", resp.Header.Get("Location"), "foreign referers are not followed")
	assert.Equal(t, "dark", themeCookie(resp).Value)

	resp = post(url.Values{"theme": {"sepia"}}, "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body := env.get(t, "/", dark)
	assert.Contains(t, body, `class="theme-dark"`)
}

func TestCrossOriginPostRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	req, err := http.NewRequest(http.MethodPost, env.http.URL+"/theme", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example")
	resp, _ := env.do(t, req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPost, env.http.URL+"/theme", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", env.http.URL)
	resp, _ = env.do(t, req)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestDefaultTheme(t *testing.T) {
	env := newTestEnv(t, func(_ *config.Config, o *Options) {
		o.DefaultTheme = settings.ThemeDark
	})

	_, body := env.get(t, "/")
	assert.Contains(t, body, `class="theme-dark"`)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, float64(env.srv.Catalog().Len()), health["articles"])

	env.get(t, "/docs/branching")
	resp, body = env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `gitguide_page_views_total{id="branching"} 1`)
	assert.Contains(t, body, "gitguide_toc_headings_count")
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/static/toc.js")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "max-age=3600")
	assert.Contains(t, body, "WebSocket")
}

func TestReloadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "01.yaml", alphaYAML)

	env := newTestEnv(t, func(c *config.Config, _ *Options) {
		c.Content.Dir = dir
	})
	require.Equal(t, 1, env.srv.Catalog().Len())

	writeCatalog(t, dir, "02.yaml", betaYAML)
	require.NoError(t, env.srv.ReloadCatalog(context.Background()))
	assert.Equal(t, 2, env.srv.Catalog().Len())

	resp, _ := env.get(t, "/docs/beta")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A duplicate id fails validation; the previous catalog stays.
	writeCatalog(t, dir, "03.yaml", betaYAML)
	assert.Error(t, env.srv.ReloadCatalog(context.Background()))
	assert.Equal(t, 2, env.srv.Catalog().Len())

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CatalogReloadsTotal.WithLabelValues(metrics.ReloadOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CatalogReloadsTotal.WithLabelValues(metrics.ReloadFailed)))
}

func TestCatalogLoadsAreTimed(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "01.yaml", alphaYAML)

	var buf bytes.Buffer
	cfg := testConfig(t)
	cfg.Content.Dir = dir
	srv, err := New(Options{
		Config: cfg,
		Logger: logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelInfo, Format: "text", Output: &buf}),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "operation=load_catalog")
	assert.Contains(t, buf.String(), "articles=1")

	buf.Reset()
	writeCatalog(t, dir, "02.yaml", alphaYAML)
	require.Error(t, srv.ReloadCatalog(context.Background()))
	assert.Contains(t, buf.String(), "operation=reload_catalog")
	assert.Contains(t, buf.String(), "keeping previous catalog")
	assert.Contains(t, buf.String(), "duration_ms=")

	require.NoError(t, srv.Shutdown(context.Background()))
}

func TestReloadWithoutDirIsNoop(t *testing.T) {
	env := newTestEnv(t, nil)
	before := env.srv.Catalog()

	require.NoError(t, env.srv.ReloadCatalog(context.Background()))
	assert.Same(t, before, env.srv.Catalog())
}

func TestNewRejectsBadContentDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Content.Dir = filepath.Join(t.TempDir(), "missing")

	_, err := New(Options{Config: cfg})
	assert.Error(t, err)

	_, err = New(Options{})
	assert.Error(t, err)
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "01.yaml", alphaYAML)

	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Content.Dir = dir
	cfg.Content.Watch = true
	cfg.Content.Debounce = 20 * time.Millisecond

	srv, err := New(Options{Config: cfg})
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(context.Background()) }()

	// The watch is installed before Start begins listening; retry the
	// write until the reload is observed.
	require.Eventually(t, func() bool {
		writeCatalog(t, dir, "02.yaml", betaYAML)
		_, ok := srv.Catalog().Get("beta")
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	require.NoError(t, <-errc)
}

func TestShutdownConcurrent(t *testing.T) {
	srv, err := New(Options{Config: testConfig(t)})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			results <- srv.Shutdown(ctx)
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		assert.NoError(t, err)
	}
	assert.NoError(t, <-errc)
}

func TestShutdownBeforeStart(t *testing.T) {
	srv, err := New(Options{Config: testConfig(t)})
	require.NoError(t, err)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, srv.Shutdown(context.Background()))
}
