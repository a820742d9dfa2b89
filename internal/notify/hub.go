package notify

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// envelope is the wire form of an event.
type envelope struct {
	Type    string `json:"type"`
	Payload Event  `json:"payload"`
}

// Encode renders an event the way the hub sends it.
func Encode(evt Event) ([]byte, error) {
	return json.Marshal(envelope{Type: evt.Type(), Payload: evt})
}

// Hub pushes events to websocket observers. It is a Publisher and an
// http.Handler.
type Hub struct {
	upgrader   websocket.Upgrader
	registry   *Registry
	logger     *log.Logger
	nextID     atomic.Uint64
	bufferSize int
}

// NewHub creates a hub whose subscribers buffer bufferSize events.
func NewHub(bufferSize int, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		registry:   NewRegistry(),
		logger:     logger,
		bufferSize: bufferSize,
	}
}

// Publish sends evt to every connected observer.
func (h *Hub) Publish(evt Event) {
	h.registry.Publish(evt)
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	return h.registry.Count()
}

// ServeHTTP upgrades the request and streams events until the observer
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sub := NewSubscriber(SubscriberID(h.nextID.Add(1)), h.bufferSize)
	h.registry.Register(sub)
	h.logger.Info("observer connected", "id", sub.ID(), "remote", r.RemoteAddr)

	go h.readPump(conn, sub)
	h.writePump(conn, sub)

	h.registry.Unregister(sub.ID())
	h.logger.Info("observer disconnected", "id", sub.ID(), "remote", r.RemoteAddr)
}

// readPump discards inbound frames and ends the subscriber when the peer
// closes.
func (h *Hub) readPump(conn *websocket.Conn, sub *Subscriber) {
	defer sub.Close()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Close()
		conn.Close()
	}()

	for {
		select {
		case evt := <-sub.Events():
			data, err := Encode(evt)
			if err != nil {
				h.logger.Error("cannot encode event", "type", evt.Type(), "error", err)
				continue
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sub.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
