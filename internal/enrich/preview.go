// Package enrich populates best-effort preview metadata for classified link
// targets, either by scraping the public t.me page or by authenticated
// MTProto lookups with an on-disk cache. Every failure here degrades the
// response; it never aborts the redirect.
package enrich

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/tgway/internal/link"
)

// Preview is the enrichment result. Every field is optional: absence of data
// is a valid outcome, not an error.
type Preview struct {
	// DisplayName is the human-readable name of the target.
	DisplayName string
	// StatusHTML is the bio/about/description block; may carry markup
	// produced by the mention linkifier.
	StatusHTML string
	// ImageURL is the external image source, set by the scrape strategy.
	ImageURL string
	// ImageFile is the cached image file name once the image is stored.
	ImageFile string
	// MessageHTML is the message excerpt, set only for Post targets.
	MessageHTML string
	// ExtraHTML is an auxiliary block such as a member count.
	ExtraHTML string
}

// Source fetches preview metadata for a target. A nil Preview with a nil
// error means the source had nothing to say about the target.
type Source interface {
	Preview(ctx context.Context, target *link.Target) (*Preview, error)
}

// Pipeline runs the configured source and then acquires the preview image.
type Pipeline struct {
	source Source
	images *ImageCache
	logger *zerolog.Logger
}

func NewPipeline(source Source, images *ImageCache, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{source: source, images: images, logger: logger}
}

// Enrich returns preview metadata for the target, or nil when nothing could
// be fetched. Proxy targets carry no preview and are skipped outright.
func (p *Pipeline) Enrich(ctx context.Context, target *link.Target) *Preview {
	if p.source == nil || target.Kind == link.KindProxy {
		return nil
	}

	preview, err := p.source.Preview(ctx, target)
	if err != nil {
		failuresTotal.WithLabelValues(stageSource).Inc()
		p.logger.Warn().Err(err).Str("identifier", target.Identifier).Msg("enrichment source failed")

		return nil
	}

	if preview == nil {
		return nil
	}

	p.acquireImage(ctx, target, preview)

	return preview
}

func (p *Pipeline) acquireImage(ctx context.Context, target *link.Target, preview *Preview) {
	if preview.ImageFile != "" || preview.ImageURL == "" || p.images == nil {
		return
	}

	file, err := p.images.Fetch(ctx, target.Identifier, preview.ImageURL)
	if err != nil {
		failuresTotal.WithLabelValues(stageImage).Inc()
		p.logger.Warn().Err(err).Str("identifier", target.Identifier).Msg("image download failed")

		return
	}

	preview.ImageFile = file
}
