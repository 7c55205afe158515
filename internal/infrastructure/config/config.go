package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"feedrelay/internal/domain"
)

// Duration decodes Go duration strings ("60s", "2h") from TOML and the environment.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type SourceConfig struct {
	Enabled     bool    `toml:"enabled"`
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	RatePerSec  float64 `toml:"rate_per_sec"`
	Burst       int     `toml:"burst"`
	Concurrency int     `toml:"concurrency"`
}

type InstrumentConfig struct {
	Symbol   string                    `toml:"symbol"`
	Name     string                    `toml:"name"`
	Category string                    `toml:"category"`
	Feeds    map[string]domain.FeedRef `toml:"feeds"`
}

type Config struct {
	App struct {
		HTTPAddr  string `toml:"http_addr"`
		LogLevel  string `toml:"log_level"`
		LogFormat string `toml:"log_format"` // console | json
		LogFile   string `toml:"log_file"`
	} `toml:"app"`

	Cache struct {
		TTL              Duration `toml:"ttl"`
		DisplayStaleness Duration `toml:"display_staleness"`
		AdapterTimeout   Duration `toml:"adapter_timeout"`
	} `toml:"cache"`

	Broadcast struct {
		Interval Duration `toml:"interval"`
	} `toml:"broadcast"`

	Relay struct {
		Enabled        bool              `toml:"enabled"`
		Interval       Duration          `toml:"interval"`
		Staleness      Duration          `toml:"staleness"`
		RPCURL         string            `toml:"rpc_url"`
		ChainID        int64             `toml:"chain_id"`
		PrivateKey     string            `toml:"private_key"`
		RPCTimeout     Duration          `toml:"rpc_timeout"`
		ConfirmTimeout Duration          `toml:"confirm_timeout"`
		Adapters       map[string]string `toml:"adapters"` // source -> adapter contract address
	} `toml:"relay"`

	Sources map[string]SourceConfig `toml:"sources"`

	Instruments []InstrumentConfig `toml:"instruments"`

	SQLite struct {
		Enabled bool   `toml:"enabled"`
		Path    string `toml:"path"`
	} `toml:"sqlite"`

	Postgres struct {
		Enabled bool   `toml:"enabled"`
		DSN     string `toml:"dsn"`
	} `toml:"postgres"`

	Redis struct {
		Enabled  bool     `toml:"enabled"`
		Addr     string   `toml:"addr"`
		Password string   `toml:"password"`
		DB       int      `toml:"db"`
		Prefix   string   `toml:"prefix"`
		TTL      Duration `toml:"ttl"`
		Channel  string   `toml:"channel"`
	} `toml:"redis"`

	Kafka struct {
		Enabled bool     `toml:"enabled"`
		Brokers []string `toml:"brokers"`
		Topic   string   `toml:"topic"`
	} `toml:"kafka"`
}

var defaultBaseURLs = map[domain.Source]string{
	domain.SourcePyth:     "https://hermes.pyth.network",
	domain.SourceDIA:      "https://api.diadata.org",
	domain.SourceRedStone: "https://api.redstone.finance",
	domain.SourceMetals:   "https://api.metals.dev/v1",
	domain.SourceExchange: "http://localhost:8090",
}

// Load reads .env (optional), the TOML file (optional), environment overrides,
// then applies defaults and validates.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	cfg.Relay.Enabled = true
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if err := normalizeSources(&cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalizeSources rekeys [sources.*] tables by canonical source name. Unknown names are kept for validate.
func normalizeSources(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return nil
	}
	out := make(map[string]SourceConfig, len(cfg.Sources))
	for name, sc := range cfg.Sources {
		key := name
		if src, ok := domain.ParseSource(name); ok {
			key = string(src)
		}
		if _, dup := out[key]; dup {
			return fmt.Errorf("sources.%s: declared more than once", key)
		}
		out[key] = sc
	}
	cfg.Sources = out
	return nil
}

func applyEnv(cfg *Config) error {
	durations := []struct {
		key string
		dst *Duration
	}{
		{"RELAY_POLL_INTERVAL", &cfg.Relay.Interval},
		{"BROADCAST_INTERVAL", &cfg.Broadcast.Interval},
		{"LIVE_CACHE_TTL", &cfg.Cache.TTL},
		{"RELAY_STALENESS", &cfg.Relay.Staleness},
		{"DISPLAY_STALENESS", &cfg.Cache.DisplayStaleness},
	}
	for _, d := range durations {
		v, ok := os.LookupEnv(d.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := d.dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}

	setString("RELAYER_PRIVATE_KEY", &cfg.Relay.PrivateKey)
	setString("RPC_URL", &cfg.Relay.RPCURL)
	setString("HTTP_ADDR", &cfg.App.HTTPAddr)
	setString("LOG_LEVEL", &cfg.App.LogLevel)

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("RELAY_DISABLED"))); v == "1" || v == "true" || v == "yes" {
		cfg.Relay.Enabled = false
	}

	for src, key := range map[domain.Source]string{
		domain.SourcePyth:     "PYTH_BASE_URL",
		domain.SourceDIA:      "DIA_BASE_URL",
		domain.SourceRedStone: "REDSTONE_BASE_URL",
		domain.SourceMetals:   "METALS_BASE_URL",
		domain.SourceExchange: "EXCHANGE_BASE_URL",
	} {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		if cfg.Sources == nil {
			cfg.Sources = map[string]SourceConfig{}
		}
		sc, ok := cfg.Sources[string(src)]
		if !ok {
			sc.Enabled = true
		}
		sc.BaseURL = v
		cfg.Sources[string(src)] = sc
	}

	if v := strings.TrimSpace(os.Getenv("METALS_API_KEY")); v != "" {
		if cfg.Sources == nil {
			cfg.Sources = map[string]SourceConfig{}
		}
		sc, ok := cfg.Sources[string(domain.SourceMetals)]
		if !ok {
			sc.Enabled = true
		}
		sc.APIKey = v
		cfg.Sources[string(domain.SourceMetals)] = sc
	}
	return nil
}

func setString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(d *Duration, def time.Duration) {
	if d.Duration <= 0 {
		d.Duration = def
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = ":8080"
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.LogFormat == "" {
		cfg.App.LogFormat = "console"
	}

	setDuration(&cfg.Cache.TTL, 60*time.Second)
	setDuration(&cfg.Cache.DisplayStaleness, 2*time.Hour)
	setDuration(&cfg.Cache.AdapterTimeout, 8*time.Second)
	setDuration(&cfg.Broadcast.Interval, 5*time.Second)
	setDuration(&cfg.Relay.Interval, 60*time.Second)
	setDuration(&cfg.Relay.Staleness, 10*time.Minute)
	setDuration(&cfg.Relay.RPCTimeout, 10*time.Second)
	setDuration(&cfg.Relay.ConfirmTimeout, 30*time.Second)

	// a missing [sources] table enables every provider with its public endpoint
	if cfg.Sources == nil {
		cfg.Sources = map[string]SourceConfig{}
	}
	for _, src := range domain.AllSources() {
		sc, ok := cfg.Sources[string(src)]
		if !ok {
			sc.Enabled = true
		}
		if sc.BaseURL == "" {
			sc.BaseURL = defaultBaseURLs[src]
		}
		if sc.Concurrency <= 0 {
			sc.Concurrency = 4
		}
		if sc.RatePerSec > 0 && sc.Burst <= 0 {
			sc.Burst = 1
		}
		sc.BaseURL = strings.TrimRight(sc.BaseURL, "/")
		cfg.Sources[string(src)] = sc
	}

	if cfg.SQLite.Enabled && cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "data/feedrelay.db"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "feedrelay"
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "feedrelay:prices"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "feedrelay.prices"
	}
}

func validate(cfg *Config) error {
	for name := range cfg.Sources {
		if _, ok := domain.ParseSource(name); !ok {
			return fmt.Errorf("sources.%s: unknown source", name)
		}
	}
	for name, addr := range cfg.Relay.Adapters {
		if _, ok := domain.ParseSource(name); !ok {
			return fmt.Errorf("relay.adapters.%s: unknown source", name)
		}
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("relay.adapters.%s: empty address", name)
		}
	}
	if cfg.Cache.AdapterTimeout.Duration >= cfg.Relay.Interval.Duration {
		return errors.New("cache.adapter_timeout must be shorter than relay.interval")
	}
	if cfg.Postgres.Enabled && strings.TrimSpace(cfg.Postgres.DSN) == "" {
		return errors.New("postgres.dsn empty but enabled")
	}
	if cfg.Redis.Enabled && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("redis.addr empty but enabled")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers empty but enabled")
	}
	if _, err := cfg.Registry(); err != nil {
		return err
	}
	return nil
}

// RelayReady reports whether the on-chain writer can be built, and why not.
func (c *Config) RelayReady() (bool, string) {
	switch {
	case !c.Relay.Enabled:
		return false, "disabled by config"
	case strings.TrimSpace(c.Relay.PrivateKey) == "":
		return false, "RELAYER_PRIVATE_KEY not set"
	case strings.TrimSpace(c.Relay.RPCURL) == "":
		return false, "RPC_URL not set"
	}
	return true, ""
}

// RelayAdapters returns the source -> adapter address table.
func (c *Config) RelayAdapters() map[domain.Source]string {
	out := make(map[domain.Source]string, len(c.Relay.Adapters))
	for name, addr := range c.Relay.Adapters {
		if src, ok := domain.ParseSource(name); ok {
			out[src] = strings.TrimSpace(addr)
		}
	}
	return out
}

// EnabledSources lists enabled providers in canonical order.
func (c *Config) EnabledSources() []domain.Source {
	var out []domain.Source
	for _, src := range domain.AllSources() {
		if c.Sources[string(src)].Enabled {
			out = append(out, src)
		}
	}
	return out
}

// Registry builds the instrument registry from [[instruments]], or the built-in set when none are configured.
func (c *Config) Registry() (*domain.Registry, error) {
	if len(c.Instruments) == 0 {
		return domain.NewRegistry(domain.DefaultInstruments())
	}
	list := make([]domain.Instrument, 0, len(c.Instruments))
	for i, ic := range c.Instruments {
		cat, ok := domain.ParseCategory(ic.Category)
		if !ok {
			return nil, fmt.Errorf("instruments[%d] %s: %w: %q", i, ic.Symbol, domain.ErrUnknownCategory, ic.Category)
		}
		feeds := make(map[domain.Source]domain.FeedRef, len(ic.Feeds))
		for name, ref := range ic.Feeds {
			src, ok := domain.ParseSource(name)
			if !ok {
				return nil, fmt.Errorf("instruments[%d] %s: unknown source %q", i, ic.Symbol, name)
			}
			feeds[src] = ref
		}
		list = append(list, domain.Instrument{
			Symbol:   ic.Symbol,
			Name:     ic.Name,
			Category: cat,
			Feeds:    feeds,
		})
	}
	return domain.NewRegistry(list)
}
