package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestImageCacheFetch(t *testing.T) {
	downloads := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		downloads++

		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()

	cache, err := NewImageCache(dir, NewFetcher(100, 5*time.Second))
	require.NoError(t, err)

	name, err := cache.Fetch(context.Background(), "examplechan", server.URL)
	require.NoError(t, err)
	require.Equal(t, "examplechan.jpg", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, "jpeg-bytes", string(data))

	// Second fetch is served from disk, no second download.
	name, err = cache.Fetch(context.Background(), "examplechan", server.URL)
	require.NoError(t, err)
	require.Equal(t, "examplechan.jpg", name)
	require.Equal(t, 1, downloads)
}

func TestImageCacheFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cache, err := NewImageCache(t.TempDir(), NewFetcher(100, 5*time.Second))
	require.NoError(t, err)

	_, err = cache.Fetch(context.Background(), "examplechan", server.URL)
	require.Error(t, err)
	require.Empty(t, cache.File("examplechan"), "failed download must not leave a file behind")
}

func TestImageCacheStore(t *testing.T) {
	cache, err := NewImageCache(t.TempDir(), nil)
	require.NoError(t, err)

	name, err := cache.Store("somechan", strings.NewReader("img"))
	require.NoError(t, err)
	require.Equal(t, "somechan.jpg", name)
	require.Equal(t, "somechan.jpg", cache.File("somechan"))
}

func TestImageCacheFileUnknownKey(t *testing.T) {
	cache, err := NewImageCache(t.TempDir(), nil)
	require.NoError(t, err)

	require.Empty(t, cache.File("neverseen"))
}
