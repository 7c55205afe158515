package redis

import (
	"context"
	"encoding/json"
	"time"

	"feedrelay/internal/application/port"
	"feedrelay/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Repo mirrors the latest views into a hash and announces each cycle on a pub/sub channel.
type Repo struct {
	rdb       *redis.Client
	ttl       time.Duration
	keyLatest string // prefix + ":latest"
	channel   string
}

type update struct {
	Type      string                 `json:"type"`
	Data      []domain.LivePriceView `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, channel string) *Repo {
	if channel == "" {
		channel = prefix + ":prices"
	}
	return &Repo{
		rdb:       rdb,
		ttl:       ttl,
		keyLatest: prefix + ":latest",
		channel:   channel,
	}
}

func (r *Repo) PublishViews(ctx context.Context, views []domain.LivePriceView) error {
	if len(views) == 0 {
		return nil
	}

	// Hash: field = asset id -> view json
	fields := make(map[string]any, len(views))
	for _, v := range views {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fields[v.AssetID] = string(b)
	}
	msg, err := encodeUpdate(views, time.Now())
	if err != nil {
		return err
	}

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, fields)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	pipe.Publish(ctx, r.channel, msg)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Repo) Close() error { return nil }

func encodeUpdate(views []domain.LivePriceView, at time.Time) ([]byte, error) {
	return json.Marshal(update{Type: "priceUpdate", Data: views, Timestamp: at.UnixMilli()})
}

var _ port.ViewPublisher = (*Repo)(nil)
