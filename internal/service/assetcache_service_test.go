package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/config"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/repository"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrigin serves the application's static resources over HTTP and lets
// tests mutate content between cache generations.
type fakeOrigin struct {
	mu    sync.Mutex
	files map[string]string
	srv   *httptest.Server
}

func newFakeOrigin() *fakeOrigin {
	origin := &fakeOrigin{files: map[string]string{
		"/index.html":   "<html>home v1</html>",
		"/quiz.html":    "<html>quiz v1</html>",
		"/css/app.css":  "body {}",
		"/js/app.js":    "console.log('v1')",
		"/icon-192.png": "PNGDATA",
	}}
	origin.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin.mu.Lock()
		body, ok := origin.files[r.URL.Path]
		origin.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(body))
	}))
	return origin
}

func (o *fakeOrigin) set(path, body string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files[path] = body
}

func (o *fakeOrigin) remove(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.files, path)
}

func newCacheFixture(t *testing.T, origin string) (*AssetCacheService, *repository.CacheRepository) {
	t.Helper()
	repo := repository.NewCacheRepository(newTestDB(t))
	cfg := config.AssetCacheConfig{
		RootDocument:   "/index.html",
		BypassPrefixes: []string{"/rest/v1"},
	}
	return NewAssetCacheService(repo, cfg, origin), repo
}

var manifestV1 = []string{"/index.html", "/quiz.html", "/css/app.css", "/js/app.js"}

func TestInstallAndActivateServesFromCache(t *testing.T) {
	origin := newFakeOrigin()
	defer origin.srv.Close()
	svc, _ := newCacheFixture(t, origin.srv.URL)

	require.NoError(t, svc.Install(context.Background(), "v1", manifestV1))
	require.NoError(t, svc.Activate("v1"))

	// origin changes after the snapshot; the cache keeps serving v1 bytes
	origin.set("/quiz.html", "<html>changed upstream</html>")

	resp, err := svc.Serve(context.Background(), "/quiz.html", "text/html")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "<html>quiz v1</html>", string(resp.Body))
}

func TestInstallIsAtomic(t *testing.T) {
	origin := newFakeOrigin()
	defer origin.srv.Close()
	svc, repo := newCacheFixture(t, origin.srv.URL)

	require.NoError(t, svc.Install(context.Background(), "v1", manifestV1))
	require.NoError(t, svc.Activate("v1"))

	// one manifest entry 404s; nothing of v2 may survive
	err := svc.Install(context.Background(), "v2", append(manifestV1, "/js/missing.js"))
	require.ErrorIs(t, err, util.ErrCacheInstall)

	buckets, err := repo.ListBuckets()
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, "v1", buckets[0].Version)

	// the prior generation remains fully intact and serving
	for _, url := range manifestV1 {
		_, err := repo.FindEntry("v1", url)
		require.NoError(t, err, "entry %s must survive the failed install", url)
	}

	resp, err := svc.Serve(context.Background(), "/index.html", "text/html")
	require.NoError(t, err)
	assert.Equal(t, "<html>home v1</html>", string(resp.Body))
}

func TestActivationSupersedesOlderGenerations(t *testing.T) {
	origin := newFakeOrigin()
	defer origin.srv.Close()
	svc, repo := newCacheFixture(t, origin.srv.URL)

	require.NoError(t, svc.Install(context.Background(), "v1", manifestV1))
	require.NoError(t, svc.Activate("v1"))

	origin.set("/index.html", "<html>home v2</html>")
	require.NoError(t, svc.Install(context.Background(), "v2", manifestV1))
	require.NoError(t, svc.Activate("v2"))

	buckets, err := repo.ListBuckets()
	require.NoError(t, err)
	require.Len(t, buckets, 1, "no bucket from the first generation remains")
	assert.Equal(t, "v2", buckets[0].Version)

	_, err = repo.FindEntry("v1", "/index.html")
	assert.Error(t, err)

	resp, err := svc.Serve(context.Background(), "/index.html", "text/html")
	require.NoError(t, err)
	assert.Equal(t, "<html>home v2</html>", string(resp.Body))
}

func TestServeMissFetchesThenCaches(t *testing.T) {
	origin := newFakeOrigin()
	svc, _ := newCacheFixture(t, origin.srv.URL)

	require.NoError(t, svc.Install(context.Background(), "v1", []string{"/index.html"}))
	require.NoError(t, svc.Activate("v1"))

	// not in the manifest: first request goes to the network
	resp, err := svc.Serve(context.Background(), "/js/app.js", "*/*")
	require.NoError(t, err)
	assert.Equal(t, "console.log('v1')", string(resp.Body))

	// network disappears; the stored copy keeps serving
	origin.srv.Close()

	resp, err = svc.Serve(context.Background(), "/js/app.js", "*/*")
	require.NoError(t, err)
	assert.Equal(t, "console.log('v1')", string(resp.Body))
}

func TestOfflineFallbacks(t *testing.T) {
	origin := newFakeOrigin()
	svc, _ := newCacheFixture(t, origin.srv.URL)

	require.NoError(t, svc.Install(context.Background(), "v1", []string{"/index.html"}))
	require.NoError(t, svc.Activate("v1"))

	origin.srv.Close()

	// navigations fall back to the cached root document
	resp, err := svc.Serve(context.Background(), "/some/uncached/page", "text/html,application/xhtml+xml")
	require.NoError(t, err)
	assert.Equal(t, "<html>home v1</html>", string(resp.Body))

	// images degrade to an empty response instead of broken-image noise
	resp, err = svc.Serve(context.Background(), "/icons/missing.png", "image/avif,image/webp")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)

	// everything else propagates the failure
	_, err = svc.Serve(context.Background(), "/js/uncached.js", "*/*")
	assert.Error(t, err)
}

func TestLiveDataPrefixBypassesCache(t *testing.T) {
	origin := newFakeOrigin()
	defer origin.srv.Close()
	svc, repo := newCacheFixture(t, origin.srv.URL)

	origin.set("/rest/v1/quizzes", `[{"id":"quiz-1"}]`)

	require.NoError(t, svc.Install(context.Background(), "v1", []string{"/index.html"}))
	require.NoError(t, svc.Activate("v1"))

	resp, err := svc.Serve(context.Background(), "/rest/v1/quizzes", "application/json")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"quiz-1"}]`, string(resp.Body))

	// live data is never captured into the bucket
	_, err = repo.FindEntry("v1", "/rest/v1/quizzes")
	assert.Error(t, err)
}

func TestInstallRejectsReinstallOfActiveVersion(t *testing.T) {
	origin := newFakeOrigin()
	defer origin.srv.Close()
	svc, _ := newCacheFixture(t, origin.srv.URL)

	require.NoError(t, svc.Install(context.Background(), "v1", []string{"/index.html"}))
	require.NoError(t, svc.Activate("v1"))

	err := svc.Install(context.Background(), "v1", []string{"/index.html"})
	assert.ErrorIs(t, err, util.ErrCacheInstall)
}
