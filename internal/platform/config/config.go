package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Enrichment strategy values.
const (
	StrategyScrape   = "scrape"
	StrategyTelegram = "telegram"
	StrategyOff      = "off"
)

var (
	// ErrInvalidStrategy indicates an unknown enrichment strategy value.
	ErrInvalidStrategy = errors.New("invalid enrichment strategy")
	// ErrMissingTelegramCredentials indicates the telegram strategy is enabled
	// without api id, api hash and bot token.
	ErrMissingTelegramCredentials = errors.New("telegram strategy requires TG_API_ID, TG_API_HASH and TG_BOT_TOKEN")
	// ErrInvalidBaseURL indicates BASE_URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("BASE_URL must be an absolute http(s) URL")
)

type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"local"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	ListenPort int    `env:"LISTEN_PORT" envDefault:"8080"`

	Blacklist []string `env:"BLACKLIST" envSeparator:","`
	Whitelist []string `env:"WHITELIST" envSeparator:","`

	CacheDir string `env:"CACHE_DIR" envDefault:"./cache"`
	ImageDir string `env:"IMAGE_DIR" envDefault:"./cache/img"`

	EnrichStrategy string        `env:"ENRICH_STRATEGY" envDefault:"scrape"`
	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	FetchRPS       float64       `env:"FETCH_RPS" envDefault:"2"`

	TGAPIID       int    `env:"TG_API_ID"`
	TGAPIHash     string `env:"TG_API_HASH"`
	TGBotToken    string `env:"TG_BOT_TOKEN"`
	TGSessionPath string `env:"TG_SESSION_PATH" envDefault:"./tg.session"`

	// Optional MTProxy for outbound MTProto traffic.
	MTProxyHost   string `env:"MTPROXY_HOST"`
	MTProxyPort   int    `env:"MTPROXY_PORT" envDefault:"443"`
	MTProxySecret string `env:"MTPROXY_SECRET"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.EnrichStrategy {
	case StrategyScrape, StrategyOff:
	case StrategyTelegram:
		if c.TGAPIID == 0 || c.TGAPIHash == "" || c.TGBotToken == "" {
			return ErrMissingTelegramCredentials
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStrategy, c.EnrichStrategy)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	return nil
}
