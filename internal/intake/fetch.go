package intake

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	cacheEnvVar        = "LUCID_CACHE_DIR"
	cacheSubdir        = "lucid/docs"
	cacheTTL           = 24 * time.Hour
	partialSuffix      = ".part"
	metaSuffix         = ".meta"
	defaultHTTPTimeout = 90 * time.Second
)

type docCache struct {
	dir    string
	client *http.Client
}

type docCacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
}

// Fetch downloads the document at rawURL into the on-disk cache and returns
// the local path, suitable for Load. Recently cached copies are reused;
// stale ones are revalidated with conditional requests.
func Fetch(ctx context.Context, rawURL string) (string, error) {
	cache, err := newDocCache(nil)
	if err != nil {
		return "", err
	}
	return cache.fetch(ctx, rawURL)
}

func newDocCache(client *http.Client) (*docCache, error) {
	dir := os.Getenv(cacheEnvVar)
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "lucid-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &docCache{dir: dir, client: client}, nil
}

func (c *docCache) fetch(ctx context.Context, rawURL string) (string, error) {
	docPath, metaPath := c.pathsFor(rawURL)

	if info, err := os.Stat(docPath); err == nil && info.Size() > 0 && time.Since(info.ModTime()) < cacheTTL {
		return docPath, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	meta, haveMeta := readMeta(metaPath)
	if haveMeta {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if info, statErr := os.Stat(docPath); statErr == nil && info.Size() > 0 {
			return docPath, nil
		}
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if info, err := os.Stat(docPath); err == nil && info.Size() > 0 {
			meta.CachedAt = time.Now().UTC()
			writeMeta(metaPath, meta)
			touch(docPath)
			return docPath, nil
		}
		return "", fmt.Errorf("server reported not-modified but no cached copy exists for %s", rawURL)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("document download failed: %s (%s)", resp.Status, strings.TrimSpace(string(body)))
	}

	partial := docPath + partialSuffix
	file, err := os.Create(partial)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(partial)
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(partial, docPath); err != nil {
		return "", err
	}

	writeMeta(metaPath, docCacheMeta{
		URL:          rawURL,
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CachedAt:     time.Now().UTC(),
	})
	return docPath, nil
}

// pathsFor keys the cache on the URL hash but keeps the original extension so
// Load can still sniff PDFs by name.
func (c *docCache) pathsFor(rawURL string) (string, string) {
	sum := sha1.Sum([]byte(rawURL))
	key := hex.EncodeToString(sum[:])
	if parsed, err := url.Parse(rawURL); err == nil {
		if ext := filepath.Ext(parsed.Path); ext != "" && len(ext) <= 8 {
			key += ext
		}
	}
	return filepath.Join(c.dir, key), filepath.Join(c.dir, key+metaSuffix)
}

func readMeta(path string) (docCacheMeta, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return docCacheMeta{}, false
	}
	var meta docCacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return docCacheMeta{}, false
	}
	return meta, true
}

func writeMeta(path string, meta docCacheMeta) {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o644)
}

func touch(path string) {
	now := time.Now()
	_ = os.Chtimes(path, now, now)
}
