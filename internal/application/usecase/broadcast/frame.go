package broadcast

import (
	"encoding/json"
	"time"

	"feedrelay/internal/domain"
)

const (
	TypeSubscribe    = "subscribe"
	TypeUnsubscribe  = "unsubscribe"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypePriceUpdate  = "priceUpdate"
	TypeError        = "error"
)

// Message is an inbound control frame.
type Message struct {
	Type    string `json:"type"`
	AssetID string `json:"assetId,omitempty"`
}

type controlFrame struct {
	Type      string `json:"type"`
	AssetID   string `json:"assetId,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type updateFrame struct {
	Type      string                 `json:"type"`
	Data      []domain.LivePriceView `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

func encodeControl(typ, assetID, msg string, at time.Time) []byte {
	b, _ := json.Marshal(controlFrame{Type: typ, AssetID: assetID, Message: msg, Timestamp: at.UnixMilli()})
	return b
}

func encodeUpdate(views []domain.LivePriceView, at time.Time) ([]byte, error) {
	if views == nil {
		views = []domain.LivePriceView{}
	}
	return json.Marshal(updateFrame{Type: TypePriceUpdate, Data: views, Timestamp: at.UnixMilli()})
}
