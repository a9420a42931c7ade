package enrich

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/lueurxax/tgway/internal/link"
)

// t.me preview page selectors.
const (
	selectorPhoto       = ".tgme_page_photo_image"
	selectorTitle       = ".tgme_page_title"
	selectorDescription = ".tgme_page_description"
	selectorExtra       = ".tgme_page_extra"
	selectorMessageText = ".tgme_widget_message_text"
)

const scrapeBase = "https://t.me"

// ScrapeSource obtains preview metadata by fetching and parsing the public
// t.me page of a target. Every fragment is optional; a fragment absent from
// the markup yields an empty field, not an error.
type ScrapeSource struct {
	fetcher *Fetcher
	logger  *zerolog.Logger

	// base replaces the t.me host in tests.
	base string
}

func NewScrapeSource(fetcher *Fetcher, logger *zerolog.Logger) *ScrapeSource {
	return &ScrapeSource{fetcher: fetcher, logger: logger, base: scrapeBase}
}

func (s *ScrapeSource) Preview(ctx context.Context, target *link.Target) (*Preview, error) {
	redirect := link.Build(target)
	if redirect.PreviewURL == "" {
		return nil, nil
	}

	body, err := s.fetcher.Fetch(ctx, s.rebase(redirect.PreviewURL))
	if err != nil {
		return nil, fmt.Errorf("fetch preview page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse preview page: %w", err)
	}

	preview := &Preview{
		DisplayName: strings.TrimSpace(doc.Find(selectorTitle).First().Text()),
		StatusHTML:  innerHTML(doc.Find(selectorDescription).First()),
		ExtraHTML:   innerHTML(doc.Find(selectorExtra).First()),
	}

	if src, ok := doc.Find(selectorPhoto).First().Attr("src"); ok {
		preview.ImageURL = src
	}

	if target.Kind == link.KindPost {
		preview.MessageHTML = s.fetchMessageExcerpt(ctx, s.rebase(redirect.EmbedURL))
	}

	return preview, nil
}

func (s *ScrapeSource) rebase(u string) string {
	if s.base == scrapeBase {
		return u
	}

	return s.base + strings.TrimPrefix(u, scrapeBase)
}

// fetchMessageExcerpt fetches the embeddable post page. Failure here is
// non-fatal: the excerpt is silently omitted and the rest of the preview
// still returns.
func (s *ScrapeSource) fetchMessageExcerpt(ctx context.Context, embedURL string) string {
	body, err := s.fetcher.Fetch(ctx, embedURL)
	if err != nil {
		failuresTotal.WithLabelValues(stageEmbed).Inc()
		s.logger.Debug().Err(err).Str("url", embedURL).Msg("embed page fetch failed")

		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		failuresTotal.WithLabelValues(stageEmbed).Inc()
		s.logger.Debug().Err(err).Str("url", embedURL).Msg("embed page parse failed")

		return ""
	}

	return innerHTML(doc.Find(selectorMessageText).First())
}

func innerHTML(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}

	h, err := sel.Html()
	if err != nil {
		return ""
	}

	return strings.TrimSpace(h)
}
