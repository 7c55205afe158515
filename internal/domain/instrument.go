package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Category groups instruments for filtering.
type Category string

const (
	CategoryCommodity    Category = "commodity"
	CategoryEquity       Category = "equity"
	CategoryFund         Category = "fund"
	CategoryFX           Category = "fx"
	CategoryListedEquity Category = "exchange-listed-equity"
)

var allCategories = []Category{
	CategoryCommodity,
	CategoryEquity,
	CategoryFund,
	CategoryFX,
	CategoryListedEquity,
}

func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range allCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// PriceDecimals is the fixed-point precision shared by every quote.
const PriceDecimals uint8 = 8

// FeedRef is the per-source identifier of an instrument.
// Only the fields relevant to the source are set.
type FeedRef struct {
	FeedID      string `toml:"feed_id"`      // pyth price feed id
	Ticker      string `toml:"ticker"`       // dia, redstone, metals, exchange symbol
	Divisor     int64  `toml:"divisor"`      // exchange: minor units per major unit
	UnitFactor  string `toml:"unit_factor"`  // metals: multiplier from the provider unit to the quoted unit
	HistoryFile string `toml:"history_file"` // exchange: local close history used instead of the live endpoint
}

// Instrument is a real-world asset tracked by the relay.
type Instrument struct {
	ID       string
	Symbol   string
	Name     string
	Category Category
	Decimals uint8
	Feeds    map[Source]FeedRef
}

// InstrumentID derives the on-chain asset key: keccak256("<SYMBOL>/USD") as 0x-prefixed hex.
func InstrumentID(symbol string) string {
	return crypto.Keccak256Hash([]byte(strings.ToUpper(symbol) + "/USD")).Hex()
}

func (i Instrument) Feed(src Source) (FeedRef, bool) {
	ref, ok := i.Feeds[src]
	return ref, ok
}

// Sources lists the sources this instrument is mapped to, in canonical order.
func (i Instrument) Sources() []Source {
	var out []Source
	for _, src := range allSources {
		if _, ok := i.Feeds[src]; ok {
			out = append(out, src)
		}
	}
	return out
}
