package kafka

import (
	"context"
	"encoding/json"
	"time"

	"feedrelay/internal/application/port"
	"feedrelay/internal/domain"

	"github.com/segmentio/kafka-go"
)

// Publisher emits one message per instrument view, keyed by asset id.
type Publisher struct {
	w *kafka.Writer
}

func New(brokers []string, topic string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Publisher) PublishViews(ctx context.Context, views []domain.LivePriceView) error {
	msgs, err := messages(views)
	if err != nil || len(msgs) == 0 {
		return err
	}
	return p.w.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error { return p.w.Close() }

func messages(views []domain.LivePriceView) ([]kafka.Message, error) {
	out := make([]kafka.Message, 0, len(views))
	for _, v := range views {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out = append(out, kafka.Message{Key: []byte(v.AssetID), Value: b})
	}
	return out, nil
}

var _ port.ViewPublisher = (*Publisher)(nil)
