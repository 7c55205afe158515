package sourcefeed

import (
	"net/http"

	"feedrelay/internal/application/port"
	"feedrelay/internal/domain"

	"github.com/rs/zerolog/log"
)

// Settings configures one provider adapter.
type Settings struct {
	BaseURL     string
	APIKey      string
	RatePerSec  float64 // 0 disables pacing
	Burst       int
	Concurrency int // per-instrument fan-out limit
	HTTPClient  *http.Client
}

// Factory builds a provider adapter.
type Factory func(s Settings) port.SourceAdapter

// registry maps each source to its adapter factory, filled by the provider packages' init()
var registry = make(map[domain.Source]Factory)

// Register is called from each provider package's init().
func Register(src domain.Source, factory Factory) {
	if factory == nil {
		log.Warn().Str("source", string(src)).Msg("invalid source adapter factory")
		return
	}
	if _, exists := registry[src]; exists {
		log.Warn().Str("source", string(src)).Msg("source adapter factory already registered, overwriting")
	}
	registry[src] = factory
	log.Debug().Str("source", string(src)).Msg("source adapter factory registered")
}

func Get(src domain.Source) (Factory, bool) {
	factory, ok := registry[src]
	return factory, ok
}

// Build creates adapters for the given sources in canonical order.
// Sources without settings or without a registered factory are skipped with a warning.
func Build(settings map[domain.Source]Settings) []port.SourceAdapter {
	var out []port.SourceAdapter
	for _, src := range domain.AllSources() {
		s, ok := settings[src]
		if !ok {
			continue
		}
		factory, ok := Get(src)
		if !ok {
			log.Warn().Str("source", string(src)).Msg("no adapter factory registered")
			continue
		}
		out = append(out, factory(s))
	}
	return out
}
