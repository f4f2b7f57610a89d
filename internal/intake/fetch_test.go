package intake

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func timeAgo(t *testing.T) time.Time {
	t.Helper()
	return time.Now().Add(-2 * cacheTTL)
}

func TestFetchReusesFreshFile(t *testing.T) {
	t.Setenv(cacheEnvVar, t.TempDir())

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Etag", `"v1"`)
		_, _ = w.Write([]byte("plain document body"))
	}))
	t.Cleanup(server.Close)

	cache, err := newDocCache(server.Client())
	if err != nil {
		t.Fatalf("newDocCache: %v", err)
	}
	ctx := context.Background()

	path, err := cache.fetch(ctx, server.URL+"/docs/contract.txt")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cached file missing: %v", err)
	}
	if string(data) != "plain document body" {
		t.Fatalf("unexpected cached content: %q", data)
	}

	if _, err := cache.fetch(ctx, server.URL+"/docs/contract.txt"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected single download, got %d hits", hits)
	}
}

func TestFetchRevalidatesWithETag(t *testing.T) {
	t.Setenv(cacheEnvVar, t.TempDir())

	var conditional bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional = true
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Etag", `"v1"`)
		_, _ = w.Write([]byte("versioned body"))
	}))
	t.Cleanup(server.Close)

	cache, err := newDocCache(server.Client())
	if err != nil {
		t.Fatalf("newDocCache: %v", err)
	}
	ctx := context.Background()

	path, err := cache.fetch(ctx, server.URL+"/doc.txt")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	// Age the cached copy past the TTL to force revalidation.
	old := timeAgo(t)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if _, err := cache.fetch(ctx, server.URL+"/doc.txt"); err != nil {
		t.Fatalf("revalidating fetch: %v", err)
	}
	if !conditional {
		t.Fatal("expected a conditional request after TTL expiry")
	}
}

func TestFetchSurfacesHTTPError(t *testing.T) {
	t.Setenv(cacheEnvVar, t.TempDir())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	t.Cleanup(server.Close)

	cache, err := newDocCache(server.Client())
	if err != nil {
		t.Fatalf("newDocCache: %v", err)
	}
	if _, err := cache.fetch(context.Background(), server.URL+"/doc.txt"); err == nil {
		t.Fatal("expected error for HTTP failure with no cached copy")
	}
}

func TestFetchKeepsURLExtension(t *testing.T) {
	t.Setenv(cacheEnvVar, t.TempDir())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 body"))
	}))
	t.Cleanup(server.Close)

	cache, err := newDocCache(server.Client())
	if err != nil {
		t.Fatalf("newDocCache: %v", err)
	}
	path, err := cache.fetch(context.Background(), server.URL+"/files/report.pdf")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := path[len(path)-4:]; got != ".pdf" {
		t.Fatalf("cached path should keep the .pdf extension, got %q", path)
	}
}
