package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/crease/internal/app"
)

const (
	clientBuffer = 32
	writeWait    = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventSource publishes live session events.
type EventSource interface {
	Subscribe(fn func(app.Event)) (unsubscribe func())
	Status() app.Status
}

// EventsHandler forwards live frame, capture and summary events to WebSocket
// clients. Slow clients drop events rather than stall the live loop.
type EventsHandler struct {
	source EventSource
}

// NewEventsHandler creates a new EventsHandler for the given session.
func NewEventsHandler(source EventSource) *EventsHandler {
	return &EventsHandler{source: source}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan []byte, clientBuffer)
	done := make(chan struct{})

	// Queued before subscribing so it goes first and cannot block.
	if hello, err := json.Marshal(map[string]interface{}{"event": "status", "status": h.source.Status()}); err == nil {
		send <- hello
	}

	unsubscribe := h.source.Subscribe(func(e app.Event) {
		msg, err := json.Marshal(e)
		if err != nil {
			return
		}
		select {
		case send <- msg:
		default:
		}
	})
	defer unsubscribe()

	// Reads only detect the client going away.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.WithError(err).Debug("WebSocket client write failed")
				return
			}
		}
	}
}
