package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/tgway/internal/link"
)

type stubSource struct {
	preview *Preview
	err     error
}

func (s *stubSource) Preview(_ context.Context, _ *link.Target) (*Preview, error) {
	return s.preview, s.err
}

func TestPipelineDegradesOnSourceFailure(t *testing.T) {
	logger := zerolog.Nop()
	pipeline := NewPipeline(&stubSource{err: errors.New("network down")}, nil, &logger)

	preview := pipeline.Enrich(context.Background(), &link.Target{Kind: link.KindAccount, Identifier: "examplechan"})
	require.Nil(t, preview, "enrichment failure must degrade, not propagate")
}

func TestPipelineSkipsProxyTargets(t *testing.T) {
	logger := zerolog.Nop()
	pipeline := NewPipeline(&stubSource{preview: &Preview{DisplayName: "x"}}, nil, &logger)

	preview := pipeline.Enrich(context.Background(), &link.Target{Kind: link.KindProxy})
	require.Nil(t, preview)
}

func TestPipelineFetchesImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("jpeg"))
	}))
	defer server.Close()

	images, err := NewImageCache(t.TempDir(), NewFetcher(100, time.Second))
	require.NoError(t, err)

	logger := zerolog.Nop()
	source := &stubSource{preview: &Preview{DisplayName: "Example", ImageURL: server.URL + "/photo.jpg"}}
	pipeline := NewPipeline(source, images, &logger)

	preview := pipeline.Enrich(context.Background(), &link.Target{Kind: link.KindAccount, Identifier: "examplechan"})
	require.NotNil(t, preview)
	require.Equal(t, "examplechan.jpg", preview.ImageFile)
}

func TestPipelineImageFailureIsNonFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	images, err := NewImageCache(t.TempDir(), NewFetcher(100, time.Second))
	require.NoError(t, err)

	logger := zerolog.Nop()
	source := &stubSource{preview: &Preview{DisplayName: "Example", ImageURL: server.URL + "/photo.jpg"}}
	pipeline := NewPipeline(source, images, &logger)

	preview := pipeline.Enrich(context.Background(), &link.Target{Kind: link.KindAccount, Identifier: "examplechan"})
	require.NotNil(t, preview)
	require.Equal(t, "Example", preview.DisplayName)
	require.Empty(t, preview.ImageFile)
}

func TestPipelineNilSource(t *testing.T) {
	logger := zerolog.Nop()
	pipeline := NewPipeline(nil, nil, &logger)

	require.Nil(t, pipeline.Enrich(context.Background(), &link.Target{Kind: link.KindAccount, Identifier: "examplechan"}))
}
