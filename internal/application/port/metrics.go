package port

import (
	"time"

	"feedrelay/internal/domain"
)

type Metrics interface {
	AdapterFetched(src domain.Source, err error, quotes int, elapsed time.Duration)
	RelayWrite(src domain.Source, status domain.RelayStatus)
	Subscribers(n int)
	CycleSkipped()
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) AdapterFetched(domain.Source, error, int, time.Duration) {}
func (NopMetrics) RelayWrite(domain.Source, domain.RelayStatus)            {}
func (NopMetrics) Subscribers(int)                                         {}
func (NopMetrics) CycleSkipped()                                           {}
