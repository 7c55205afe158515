package broadcast

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"feedrelay/internal/application/port"
	"feedrelay/internal/application/usecase/aggregate"
	"feedrelay/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Conn is one push-channel connection. Send must not block.
type Conn interface {
	Send(frame []byte) error
	Close() error
}

// Viewer computes views from the cache without refreshing it.
type Viewer interface {
	View(f aggregate.Filter) []domain.LivePriceView
}

type subscriber struct {
	conn   Conn
	assets map[string]struct{} // empty means all instruments
}

type HubDeps struct {
	Viewer   Viewer
	Registry *domain.Registry
	Metrics  port.Metrics
	Now      func() time.Time
}

// Hub tracks push subscribers and their asset subscriptions.
type Hub struct {
	viewer   Viewer
	registry *domain.Registry
	metrics  port.Metrics
	now      func() time.Time

	mu   sync.Mutex
	subs map[string]*subscriber
}

func NewHub(deps HubDeps) *Hub {
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Hub{
		viewer:   deps.Viewer,
		registry: deps.Registry,
		metrics:  deps.Metrics,
		now:      deps.Now,
		subs:     make(map[string]*subscriber),
	}
}

// Connect registers conn with an empty subscription set and returns its id.
func (h *Hub) Connect(conn Conn) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.subs[id] = &subscriber{conn: conn, assets: make(map[string]struct{})}
	n := len(h.subs)
	h.mu.Unlock()

	h.metrics.Subscribers(n)
	log.Debug().Str("conn", id).Int("subscribers", n).Msg("subscriber connected")
	return id
}

func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	_, ok := h.subs[id]
	delete(h.subs, id)
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		h.metrics.Subscribers(n)
		log.Debug().Str("conn", id).Int("subscribers", n).Msg("subscriber disconnected")
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Subscriptions returns the asset ids conn id is subscribed to.
func (h *Hub) Subscriptions(id string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subs[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(sub.assets))
	for a := range sub.assets {
		out = append(out, a)
	}
	return out
}

// HandleMessage applies one inbound control frame. Protocol errors are answered
// with an error frame and the connection stays open.
func (h *Hub) HandleMessage(id string, raw []byte) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	h.mu.Unlock()
	if !ok {
		return
	}

	now := h.now()
	reply := func(frame []byte) {
		if err := sub.conn.Send(frame); err != nil {
			log.Debug().Err(err).Str("conn", id).Msg("reply failed")
			h.drop(id, sub)
		}
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		reply(encodeControl(TypeError, "", "invalid message: "+err.Error(), now))
		return
	}

	switch msg.Type {
	case TypePing:
		reply(encodeControl(TypePong, "", "", now))

	case TypeSubscribe, TypeUnsubscribe:
		assetID := strings.ToLower(strings.TrimSpace(msg.AssetID))
		if assetID == "" {
			reply(encodeControl(TypeError, "", msg.Type+" requires assetId", now))
			return
		}
		if h.registry != nil {
			if _, known := h.registry.Get(assetID); !known {
				reply(encodeControl(TypeError, msg.AssetID, "unknown assetId", now))
				return
			}
		}
		h.mu.Lock()
		if msg.Type == TypeSubscribe {
			sub.assets[assetID] = struct{}{}
		} else {
			delete(sub.assets, assetID)
		}
		h.mu.Unlock()

		ack := TypeSubscribed
		if msg.Type == TypeUnsubscribe {
			ack = TypeUnsubscribed
		}
		reply(encodeControl(ack, assetID, "", now))

	default:
		reply(encodeControl(TypeError, "", "unknown message type: "+msg.Type, now))
	}
}

// Tick pushes a priceUpdate to every subscriber. With no subscribers it does nothing.
func (h *Hub) Tick(ctx context.Context) {
	type target struct {
		id     string
		sub    *subscriber
		assets map[string]struct{}
	}

	h.mu.Lock()
	if len(h.subs) == 0 {
		h.mu.Unlock()
		return
	}
	targets := make([]target, 0, len(h.subs))
	for id, sub := range h.subs {
		assets := make(map[string]struct{}, len(sub.assets))
		for a := range sub.assets {
			assets[a] = struct{}{}
		}
		targets = append(targets, target{id, sub, assets})
	}
	h.mu.Unlock()

	views := h.viewer.View(aggregate.Filter{})
	now := h.now()

	var all []byte
	for _, t := range targets {
		if ctx.Err() != nil {
			return
		}
		var frame []byte
		var err error
		if len(t.assets) == 0 {
			if all == nil {
				all, err = encodeUpdate(views, now)
			}
			frame = all
		} else {
			frame, err = encodeUpdate(filterViews(views, t.assets), now)
		}
		if err != nil {
			log.Error().Err(err).Msg("encode price update failed")
			return
		}
		if err := t.sub.conn.Send(frame); err != nil {
			log.Debug().Err(err).Str("conn", t.id).Msg("push failed, dropping subscriber")
			h.drop(t.id, t.sub)
		}
	}
}

func (h *Hub) drop(id string, sub *subscriber) {
	h.Disconnect(id)
	_ = sub.conn.Close()
}

func filterViews(views []domain.LivePriceView, assets map[string]struct{}) []domain.LivePriceView {
	out := make([]domain.LivePriceView, 0, len(assets))
	for _, v := range views {
		if _, ok := assets[strings.ToLower(v.AssetID)]; ok {
			out = append(out, v)
		}
	}
	return out
}
