package aggregate

import (
	"time"

	"feedrelay/internal/domain"
)

// SourceHealth is the last refresh outcome of one adapter.
type SourceHealth struct {
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	Quotes    int       `json:"quotes"`
	ElapsedMs int64     `json:"elapsedMs"`
	CheckedAt time.Time `json:"checkedAt"`
}

func (s *Service) recordHealth(results []AdapterResult, at time.Time) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	for _, r := range results {
		h := SourceHealth{
			OK:        r.Err == nil,
			Quotes:    len(r.Quotes),
			ElapsedMs: r.Elapsed.Milliseconds(),
			CheckedAt: at,
		}
		if r.Err != nil {
			h.Error = r.Err.Error()
		}
		s.health[r.Source] = h
	}
}

// Health returns a copy of the per-source outcomes of the last refresh.
func (s *Service) Health() map[domain.Source]SourceHealth {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	out := make(map[domain.Source]SourceHealth, len(s.health))
	for k, v := range s.health {
		out[k] = v
	}
	return out
}

// CacheAge is the time since the last refresh attempt, or -1 before the first one.
func (s *Service) CacheAge() time.Duration {
	snap := s.cache.Load()
	if snap.LastFetch.IsZero() {
		return -1
	}
	return s.now().Sub(snap.LastFetch)
}
