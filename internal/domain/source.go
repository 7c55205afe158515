package domain

import "strings"

// Source identifies an upstream price provider.
type Source string

const (
	SourcePyth     Source = "pyth"
	SourceDIA      Source = "dia"
	SourceRedStone Source = "redstone"
	SourceMetals   Source = "metals"
	SourceExchange Source = "exchange"
)

var allSources = []Source{
	SourcePyth,
	SourceDIA,
	SourceRedStone,
	SourceMetals,
	SourceExchange,
}

// AllSources returns the known sources in their canonical order.
func AllSources() []Source {
	out := make([]Source, len(allSources))
	copy(out, allSources)
	return out
}

// ParseSource matches a source name case-insensitively.
func ParseSource(s string) (Source, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, src := range allSources {
		if string(src) == s {
			return src, true
		}
	}
	return "", false
}

// Rank is the position of the source in AllSources, or len(AllSources) if unknown.
func (s Source) Rank() int {
	for i, src := range allSources {
		if src == s {
			return i
		}
	}
	return len(allSources)
}

func (s Source) String() string { return string(s) }
