package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/tgway/internal/link"
)

const channelPageHTML = `<!DOCTYPE html>
<html><body>
<img class="tgme_page_photo_image" src="https://cdn.example/photo.jpg">
<div class="tgme_page_title"><span>Example Channel</span></div>
<div class="tgme_page_description">Daily news from <a href="https://t.me/examplechan">@examplechan</a></div>
<div class="tgme_page_extra">12 345 members</div>
</body></html>`

const embedPageHTML = `<!DOCTYPE html>
<html><body>
<div class="tgme_widget_message_text">Hello, <b>world</b></div>
</body></html>`

func newTestScrapeSource(t *testing.T, handler http.Handler) (*ScrapeSource, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := zerolog.Nop()
	source := NewScrapeSource(NewFetcher(100, 5*time.Second), &logger)
	source.base = server.URL

	return source, server
}

func TestScrapeSourceAccount(t *testing.T) {
	source, _ := newTestScrapeSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/examplechan", r.URL.Path)

		_, _ = w.Write([]byte(channelPageHTML))
	}))

	preview, err := source.Preview(context.Background(), &link.Target{Kind: link.KindAccount, Identifier: "examplechan"})
	require.NoError(t, err)

	require.Equal(t, "Example Channel", preview.DisplayName)
	require.Contains(t, preview.StatusHTML, "Daily news from")
	require.Contains(t, preview.StatusHTML, `<a href="https://t.me/examplechan">@examplechan</a>`)
	require.Equal(t, "https://cdn.example/photo.jpg", preview.ImageURL)
	require.Equal(t, "12 345 members", preview.ExtraHTML)
	require.Empty(t, preview.MessageHTML)
}

func TestScrapeSourceMissingFragments(t *testing.T) {
	source, _ := newTestScrapeSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>nothing useful</body></html>"))
	}))

	preview, err := source.Preview(context.Background(), &link.Target{Kind: link.KindAccount, Identifier: "examplechan"})
	require.NoError(t, err)

	require.Empty(t, preview.DisplayName)
	require.Empty(t, preview.StatusHTML)
	require.Empty(t, preview.ImageURL)
	require.Empty(t, preview.ExtraHTML)
}

func TestScrapeSourcePost(t *testing.T) {
	source, _ := newTestScrapeSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("embed") == "1" {
			require.Equal(t, "/examplechan/42", r.URL.Path)
			_, _ = w.Write([]byte(embedPageHTML))

			return
		}

		_, _ = w.Write([]byte(channelPageHTML))
	}))

	preview, err := source.Preview(context.Background(), &link.Target{Kind: link.KindPost, Identifier: "examplechan", PostID: 42})
	require.NoError(t, err)

	require.Equal(t, "Example Channel", preview.DisplayName)
	require.Equal(t, "Hello, <b>world</b>", preview.MessageHTML)
}

func TestScrapeSourcePostEmbedFailureIsNonFatal(t *testing.T) {
	source, _ := newTestScrapeSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("embed") == "1" {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		_, _ = w.Write([]byte(channelPageHTML))
	}))

	preview, err := source.Preview(context.Background(), &link.Target{Kind: link.KindPost, Identifier: "examplechan", PostID: 42})
	require.NoError(t, err)

	require.Equal(t, "Example Channel", preview.DisplayName)
	require.Empty(t, preview.MessageHTML, "failed embed fetch silently omits the excerpt")
}

func TestScrapeSourcePrimaryFetchFailure(t *testing.T) {
	source, _ := newTestScrapeSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := source.Preview(context.Background(), &link.Target{Kind: link.KindAccount, Identifier: "examplechan"})
	require.ErrorIs(t, err, ErrHTTPStatusNotOK)
}

func TestScrapeSourceProxyHasNoPreview(t *testing.T) {
	logger := zerolog.Nop()
	source := NewScrapeSource(NewFetcher(100, time.Second), &logger)

	preview, err := source.Preview(context.Background(), &link.Target{
		Kind:  link.KindProxy,
		Proxy: &link.ProxyParams{Server: "1.2.3.4", Port: 443, Secret: "0123456789abcdef0123456789abcdef"},
	})
	require.NoError(t, err)
	require.Nil(t, preview)
}
