// Package control implements the bidirectional control channel: the
// websocket-shaped bridge between the mediator and the UI described in
// spec.md §6. Inbound commands flow in (start/stop/intercept toggles/
// forward/drop/replay); capture events and command replies flow out.
//
// The hub's connection bookkeeping (register/unregister/broadcast via a
// single owning goroutine, so the connection set never needs a lock)
// mirrors the teacher's one-way dashboard feed; unlike that feed, each
// connection here also reads and dispatches commands concurrently.
package control

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/antigravity/mediator/internal/capture"
	"github.com/antigravity/mediator/internal/pending"
	"github.com/antigravity/mediator/internal/replayer"
)

// Lifecycle starts and stops the browser automation surface. Implemented
// by whatever owns the browser driver; the hub never touches the browser
// directly (spec.md §6's "bootstrapping the browser binary" collaborator
// is out of the mediator's scope).
type Lifecycle interface {
	Start(ctx context.Context, url string) error
	Stop() error
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// conn wraps a single control-channel WebSocket connection.
type conn struct {
	ws   *websocket.Conn
	send chan []byte
	mu   sync.Mutex
}

// Hub manages the set of active control-channel connections, broadcasts
// capture events to all of them (command replies, including
// intercept_status, go only to the requesting connection), and
// dispatches inbound commands from each connection to the mediator's
// collaborators.
type Hub struct {
	connections  map[*conn]bool
	registerCh   chan *conn
	unregisterCh chan *conn
	broadcastCh  chan []byte

	flags     *capture.Flags
	pending   *pending.Registry
	replayer  *replayer.Replayer
	lifecycle Lifecycle
}

// New creates a Hub wired to the mediator's shared state. replayer and
// lifecycle may be nil (replay/start/stop commands then reply with an
// error instead of panicking).
func New(flags *capture.Flags, reg *pending.Registry, rep *replayer.Replayer, lifecycle Lifecycle) *Hub {
	return &Hub{
		connections:  make(map[*conn]bool),
		registerCh:   make(chan *conn),
		unregisterCh: make(chan *conn),
		broadcastCh:  make(chan []byte, 256),
		flags:        flags,
		pending:      reg,
		replayer:     rep,
		lifecycle:    lifecycle,
	}
}

// Run is the hub's connection-bookkeeping event loop. Call it in a
// goroutine once at startup.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.registerCh:
			h.connections[c] = true
			slog.Debug("control channel client connected", "total", len(h.connections))

		case c := <-h.unregisterCh:
			if _, ok := h.connections[c]; ok {
				delete(h.connections, c)
				close(c.send)
				slog.Debug("control channel client disconnected", "total", len(h.connections))
			}

		case msg := <-h.broadcastCh:
			for c := range h.connections {
				select {
				case c.send <- msg:
				default:
					delete(h.connections, c)
					close(c.send)
				}
			}
		}
	}
}

// broadcast sends msg to every connected client. Non-blocking — a full
// channel drops the message rather than stalling the hub.
func (h *Hub) broadcast(msg []byte) {
	select {
	case h.broadcastCh <- msg:
	default:
	}
}

// EmitRequest implements mediator.CaptureSink.
func (h *Hub) EmitRequest(req capture.Request) {
	h.broadcast(marshal(outbound{Type: "capture", Data: captureEnvelope{Type: "request", Request: &req}}))
}

// EmitResponse implements mediator.CaptureSink.
func (h *Hub) EmitResponse(resp capture.Response) {
	h.broadcast(marshal(outbound{Type: "capture", Data: captureEnvelope{Type: "response", Response: &resp}}))
}

// captureEnvelope disambiguates a capture event's payload by its own
// `type` field, as spec.md §6 requires ("the item's type field
// disambiguates").
type captureEnvelope struct {
	Type     string            `json:"type"`
	Request  *capture.Request  `json:"request,omitempty"`
	Response *capture.Response `json:"response,omitempty"`
}

// ServeHTTP upgrades an HTTP connection to the control channel WebSocket
// and starts its read/write pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("control channel upgrade failed", "error", err)
		return
	}

	c := &conn{ws: ws, send: make(chan []byte, 64)}
	h.registerCh <- c

	go c.writePump()
	go h.readPump(c)
}

func (c *conn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		c.mu.Lock()
		err := c.ws.WriteMessage(websocket.TextMessage, msg)
		c.mu.Unlock()
		if err != nil {
			return
		}
	}
}

// reply sends msg directly to c, bypassing the broadcast channel — used
// for command replies that spec.md §6 addresses to the requester, not
// every connected client.
func (c *conn) reply(msg []byte) {
	defer func() {
		// send may already be closed by the hub's unregister path if the
		// connection drops between decode and reply.
		recover()
	}()
	c.send <- msg
}

func (h *Hub) readPump(c *conn) {
	defer func() {
		h.unregisterCh <- c
		c.ws.Close()
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		h.handle(c, data)
	}
}
