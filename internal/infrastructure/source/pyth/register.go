package pyth

import (
	"feedrelay/internal/application/port"
	"feedrelay/internal/domain"
	"feedrelay/internal/infrastructure/sourcefeed"
)

func init() {
	sourcefeed.Register(domain.SourcePyth, func(s sourcefeed.Settings) port.SourceAdapter {
		return New(s)
	})
}
