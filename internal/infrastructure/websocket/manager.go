package websocket

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"feedrelay/internal/application/usecase/broadcast"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
	writeTimeout = 10 * time.Second
	maxMessage   = 4096
	sendBuffer   = 32
)

var ErrClosed = errors.New("connection closed")
var ErrSendQueueFull = errors.New("send queue full")

// Hub is the subset of broadcast.Hub the transport drives.
type Hub interface {
	Connect(conn broadcast.Conn) string
	Disconnect(id string)
	HandleMessage(id string, raw []byte)
}

// Manager upgrades HTTP requests to push-channel connections and wires them to the hub.
type Manager struct {
	hub      Hub
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*client]struct{}
}

func NewManager(hub Hub) *Manager {
	return &Manager{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// browser origin policy is enforced by the CORS layer
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*client]struct{}),
	}
}

func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(ws)
	m.track(c, true)
	id := m.hub.Connect(c)

	go c.writeLoop()
	c.readLoop(func(b []byte) { m.hub.HandleMessage(id, b) })

	m.hub.Disconnect(id)
	_ = c.Close()
	m.track(c, false)
}

// Shutdown closes every open connection.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	conns := make([]*client, 0, len(m.conns))
	for c := range m.conns {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

func (m *Manager) track(c *client, add bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if add {
		m.conns[c] = struct{}{}
	} else {
		delete(m.conns, c)
	}
}

// client owns one connection: one reader goroutine, one writer goroutine fed by a buffered queue.
type client struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(ws *websocket.Conn) *client {
	return &client{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send enqueues a frame without blocking.
func (c *client) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrSendQueueFull
	}
}

// Close signals the writer, which sends a normal close frame and then closes the socket.
func (c *client) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *client) readLoop(onMessage func([]byte)) {
	c.ws.SetReadLimit(maxMessage)
	_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		typ, b, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))
		onMessage(b)
	}
}

func (c *client) writeLoop() {
	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()
	defer c.ws.Close()

	for {
		select {
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				_ = c.Close()
				return
			}
		case <-pingTicker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}
