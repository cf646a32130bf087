package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/config"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/repository"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/util"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/logger"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/monitoring"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/pkg/tracing"

	"go.uber.org/zap"
)

// AssetCacheService keeps a versioned bucket of the application's static
// resources so the front end stays usable offline. Install stages a full
// bucket or nothing; Activate atomically supersedes every older
// generation.
type AssetCacheService struct {
	repo   *repository.CacheRepository
	cfg    config.AssetCacheConfig
	origin string
	client *http.Client

	mu     sync.Mutex
	active string // cached active version, "" until looked up
}

func NewAssetCacheService(repo *repository.CacheRepository, cfg config.AssetCacheConfig, origin string) *AssetCacheService {
	return &AssetCacheService{
		repo:   repo,
		cfg:    cfg,
		origin: strings.TrimRight(origin, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Install fetches every manifest URL into a staged bucket tagged with the
// version. Any failed fetch rolls the whole bucket back; the previously
// active generation keeps serving.
func (s *AssetCacheService) Install(ctx context.Context, version string, manifest []string) error {
	ctx, span := tracing.Tracer.Start(ctx, "assetcache.install")
	defer span.End()

	active, err := s.repo.ActiveBucket()
	if err != nil {
		return err
	}
	if active != nil && active.Version == version {
		return fmt.Errorf("%w: version %s is already active", util.ErrCacheInstall, version)
	}

	// restart an interrupted install of the same version from scratch
	if err := s.repo.DropBucket(version); err != nil {
		return err
	}
	if err := s.repo.CreateBucket(version); err != nil {
		return err
	}

	for _, rawURL := range manifest {
		body, contentType, err := s.fetch(ctx, rawURL)
		if err != nil {
			if dropErr := s.repo.DropBucket(version); dropErr != nil {
				logger.Log.Error("failed to roll back staged bucket", zap.Error(dropErr))
			}
			logger.Log.Warn("cache install aborted",
				zap.String("version", version), zap.String("url", rawURL), zap.Error(err))
			return fmt.Errorf("%w: %s: %v", util.ErrCacheInstall, rawURL, err)
		}

		entry := &model.CacheEntry{
			Version:     version,
			URL:         rawURL,
			ContentType: contentType,
			Body:        body,
		}
		if err := s.repo.PutEntry(entry); err != nil {
			if dropErr := s.repo.DropBucket(version); dropErr != nil {
				logger.Log.Error("failed to roll back staged bucket", zap.Error(dropErr))
			}
			return fmt.Errorf("%w: %v", util.ErrCacheInstall, err)
		}
	}

	logger.Log.Info("cache bucket installed",
		zap.String("version", version), zap.Int("entries", len(manifest)))
	return nil
}

// Activate deletes every bucket whose version differs, then marks the new
// generation live. Only after the sweep does the new version start
// serving.
func (s *AssetCacheService) Activate(version string) error {
	buckets, err := s.repo.ListBuckets()
	if err != nil {
		return err
	}

	found := false
	for _, b := range buckets {
		if b.Version == version {
			found = true
			continue
		}
		if err := s.repo.DropBucket(b.Version); err != nil {
			return err
		}
		logger.Log.Info("deleted superseded cache bucket", zap.String("version", b.Version))
	}
	if !found {
		return fmt.Errorf("%w: version %s was never installed", util.ErrCacheInstall, version)
	}

	if err := s.repo.MarkActive(version); err != nil {
		return err
	}

	s.mu.Lock()
	s.active = version
	s.mu.Unlock()

	logger.Log.Info("cache bucket activated", zap.String("version", version))
	return nil
}

func (s *AssetCacheService) ActiveVersion() (string, error) {
	s.mu.Lock()
	if s.active != "" {
		v := s.active
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	bucket, err := s.repo.ActiveBucket()
	if err != nil || bucket == nil {
		return "", err
	}

	s.mu.Lock()
	s.active = bucket.Version
	s.mu.Unlock()
	return bucket.Version, nil
}

type AssetResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// Serve is the read path: cache first, network on miss (storing a copy of
// cacheable responses), offline fallbacks on total network failure. Only
// GET requests reach this point; other methods are proxied untouched by
// the controller.
func (s *AssetCacheService) Serve(ctx context.Context, path, accept string) (*AssetResponse, error) {
	for _, prefix := range s.cfg.BypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			monitoring.AssetCacheLookups.WithLabelValues("bypass").Inc()
			return s.fromNetwork(ctx, path, "")
		}
	}

	version, err := s.ActiveVersion()
	if err != nil {
		logger.Log.Warn("cache lookup failed", zap.Error(err))
	}

	if version != "" {
		if entry, err := s.repo.FindEntry(version, path); err == nil {
			monitoring.AssetCacheLookups.WithLabelValues("hit").Inc()
			return &AssetResponse{Status: http.StatusOK, ContentType: entry.ContentType, Body: entry.Body}, nil
		}
	}

	monitoring.AssetCacheLookups.WithLabelValues("miss").Inc()
	resp, err := s.fromNetwork(ctx, path, version)
	if err == nil {
		return resp, nil
	}

	return s.fallback(version, path, accept, err)
}

func (s *AssetCacheService) fromNetwork(ctx context.Context, path, cacheVersion string) (*AssetResponse, error) {
	body, contentType, err := s.fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	if cacheVersion != "" && s.cacheable(path) {
		entry := &model.CacheEntry{
			Version:     cacheVersion,
			URL:         path,
			ContentType: contentType,
			Body:        body,
		}
		if err := s.repo.PutEntry(entry); err != nil {
			logger.Log.Warn("failed to store fetched asset", zap.String("url", path), zap.Error(err))
		}
	}

	return &AssetResponse{Status: http.StatusOK, ContentType: contentType, Body: body}, nil
}

// fallback keeps the offline UI from breaking: navigations get the cached
// root document, images an empty body, everything else the failure.
func (s *AssetCacheService) fallback(version, path, accept string, cause error) (*AssetResponse, error) {
	if version != "" && strings.Contains(accept, "text/html") {
		if entry, err := s.repo.FindEntry(version, s.cfg.RootDocument); err == nil {
			monitoring.AssetCacheLookups.WithLabelValues("fallback").Inc()
			logger.Log.Info("serving offline fallback document", zap.String("requested", path))
			return &AssetResponse{Status: http.StatusOK, ContentType: entry.ContentType, Body: entry.Body}, nil
		}
	}

	if strings.Contains(accept, "image/") || isImagePath(path) {
		monitoring.AssetCacheLookups.WithLabelValues("fallback").Inc()
		return &AssetResponse{Status: http.StatusNoContent}, nil
	}

	return nil, cause
}

// cacheable allows same-origin resources plus explicitly allow-listed
// cross-origin hosts (CDN bundles in the manifest).
func (s *AssetCacheService) cacheable(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "http") {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	origin, err := url.Parse(s.origin)
	if err == nil && u.Host == origin.Host {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if u.Host == allowed {
			return true
		}
	}
	return false
}

func (s *AssetCacheService) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	target := rawURL
	if !strings.HasPrefix(rawURL, "http") {
		target = s.origin + rawURL
	}

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, target)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func isImagePath(path string) bool {
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
