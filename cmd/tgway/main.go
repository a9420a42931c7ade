package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/tgway/internal/access"
	"github.com/lueurxax/tgway/internal/enrich"
	"github.com/lueurxax/tgway/internal/platform/config"
	"github.com/lueurxax/tgway/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := enrich.NewFetcher(cfg.FetchRPS, cfg.FetchTimeout)

	images, err := enrich.NewImageCache(cfg.ImageDir, fetcher)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init image cache")
	}

	source, err := newSource(ctx, cfg, fetcher, images, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init enrichment source")
	}

	pipeline := enrich.NewPipeline(source, images, &logger)
	gate := access.New(cfg.Blacklist, cfg.Whitelist)

	handler, err := web.NewHandler(gate, pipeline, cfg.BaseURL, cfg.ImageDir, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init web handler")
	}

	server := web.NewServer(handler.Router(), cfg.ListenPort, &logger)

	if err := server.Start(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("server stopped")

			return
		}

		logger.Fatal().Err(err).Msg("server error")
	}
}

// newSource picks the enrichment strategy. The telegram source connects in
// the background; lookups degrade until the login completes.
func newSource(ctx context.Context, cfg *config.Config, fetcher *enrich.Fetcher, images *enrich.ImageCache, logger *zerolog.Logger) (enrich.Source, error) {
	switch cfg.EnrichStrategy {
	case config.StrategyTelegram:
		cache, err := enrich.NewMetadataCache(cfg.CacheDir)
		if err != nil {
			return nil, err
		}

		source := enrich.NewTelegramSource(cfg, cache, images, logger)

		go func() {
			if err := source.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("telegram client stopped")
			}
		}()

		return source, nil
	case config.StrategyOff:
		return nil, nil
	default:
		return enrich.NewScrapeSource(fetcher, logger), nil
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
