package domain

import (
	"encoding/json"
	"math/big"
)

type QuoteStatus string

const (
	QuoteOK    QuoteStatus = "ok"
	QuoteStale QuoteStatus = "stale"
)

type CacheStatus string

const (
	CacheFresh CacheStatus = "fresh"
	CacheStale CacheStatus = "stale"
)

// SourcePrice is one source's contribution to a LivePriceView.
type SourcePrice struct {
	Price     *big.Int
	Timestamp int64
	Status    QuoteStatus
}

// LivePriceView is the per-instrument read model served over REST and the push channel.
type LivePriceView struct {
	AssetID      string
	Symbol       string
	Name         string
	Category     Category
	DisplayPrice *big.Int
	Sources      map[Source]SourcePrice
	Median       *big.Int
	LastUpdated  int64
	CacheStatus  CacheStatus
}

type sourcePriceJSON struct {
	Price     string      `json:"price"`
	Timestamp int64       `json:"timestamp"`
	Status    QuoteStatus `json:"status"`
}

type livePriceViewJSON struct {
	AssetID         string                     `json:"assetId"`
	Symbol          string                     `json:"symbol"`
	Name            string                     `json:"name"`
	Category        Category                   `json:"category"`
	DisplayPrice    string                     `json:"displayPrice"`
	DisplayPriceRaw string                     `json:"displayPriceRaw"`
	Sources         map[Source]sourcePriceJSON `json:"sources"`
	Median          string                     `json:"median"`
	LastUpdated     int64                      `json:"lastUpdated"`
	CacheStatus     CacheStatus                `json:"cacheStatus"`
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// MarshalJSON encodes prices as strings so 8-decimal integers survive JSON number precision.
func (v LivePriceView) MarshalJSON() ([]byte, error) {
	out := livePriceViewJSON{
		AssetID:         v.AssetID,
		Symbol:          v.Symbol,
		Name:            v.Name,
		Category:        v.Category,
		DisplayPrice:    FormatFixed(v.DisplayPrice),
		DisplayPriceRaw: intString(v.DisplayPrice),
		Sources:         make(map[Source]sourcePriceJSON, len(v.Sources)),
		Median:          intString(v.Median),
		LastUpdated:     v.LastUpdated,
		CacheStatus:     v.CacheStatus,
	}
	for src, sp := range v.Sources {
		out.Sources[src] = sourcePriceJSON{
			Price:     intString(sp.Price),
			Timestamp: sp.Timestamp,
			Status:    sp.Status,
		}
	}
	return json.Marshal(out)
}
