/*
Package api
File: hub.go
Description:
    The WebSocket Hub is the real-time render channel.

    It maintains a registry of all connected clients. The session pushes a
    View after every mutation and tick; the hub wraps it in a Message and
    writes it to every socket. Clients may also send intents over the socket;
    those go through the same Dispatch as the REST API, and the outcome
    (notice or rejection) is sent back to that client only.

    Architecture:
    - Hub: one per session, run as a goroutine.
    - Client: one browser connection, with its own read/write pumps.
    - ServeWs: upgrades the HTTP request and registers the client.
*/

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/everforgeworks/tycoon-clicker/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = maxSaveBytes + 1024
	sendBuffer     = 64
)

// Message defines the standard JSON envelope for all real-time communication.
type Message struct {
	Type    string      `json:"type"`             // "state", "notice", "error", "result"
	Payload interface{} `json:"payload"`          // View, Outcome or error text
	Sender  string      `json:"sender"`           // "SYSTEM" or the client id
	Intent  string      `json:"intent,omitempty"` // Intent that produced a reply
}

// Client represents a single connected browser tab.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

// directMessage is addressed to a single client.
type directMessage struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	api     *API
	clients map[*Client]bool

	// Rendered state, sent to every client.
	Broadcast chan []byte

	register   chan *Client
	unregister chan *Client
	direct     chan directMessage
	done       chan struct{}

	msgsPerSecond int
}

// NewHub creates a hub bound to api. Run it in a goroutine.
func NewHub(api *API, msgsPerSecond int) *Hub {
	return &Hub{
		api:           api,
		clients:       make(map[*Client]bool),
		Broadcast:     make(chan []byte, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		direct:        make(chan directMessage, 64),
		done:          make(chan struct{}),
		msgsPerSecond: msgsPerSecond,
	}
}

// Run is the main event loop for the Hub. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.api.metrics.RecordWSConnection(1)
			h.api.logger.Info("WS: client " + client.id + " connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.api.metrics.RecordWSConnection(-1)
			}

		case d := <-h.direct:
			if h.clients[d.client] {
				select {
				case d.client.send <- d.data:
					h.api.metrics.RecordWSMessage(false)
				default:
				}
			}

		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
					h.api.metrics.RecordWSMessage(false)
				default:
					// Send buffer full: the client is stuck, drop it.
					close(client.send)
					delete(h.clients, client)
					h.api.metrics.RecordWSConnection(-1)
				}
			}
		}
	}
}

// PublishView is a session subscriber: it queues v for every client.
// Views are dropped when the broadcast queue is full; the next tick resends.
func (h *Hub) PublishView(v game.View) {
	b, err := json.Marshal(Message{Type: "state", Payload: v, Sender: "SYSTEM"})
	if err != nil {
		h.api.logger.Error("WS: marshal view: " + err.Error())
		return
	}
	select {
	case h.Broadcast <- b:
	case <-h.done:
	default:
	}
}

// upgrader configures the WebSocket handshake.
// CheckOrigin allows any host; the game has no cross-site secrets.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request and starts the client's pumps.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.api.logger.Warn("WS Upgrade Error: " + err.Error())
		return
	}

	client := &Client{
		id:      uuid.NewString(),
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(h.msgsPerSecond), 2*h.msgsPerSecond),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// First render for the new tab
	client.reply(Message{Type: "state", Payload: h.api.session.View(), Sender: "SYSTEM"})

	go client.writePump()
	go client.readPump()
}

// reply queues a message for this client only. The hub delivers it, so a
// client that was already dropped simply never receives it.
func (c *Client) reply(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		c.hub.api.logger.Error("WS: marshal reply: " + err.Error())
		return
	}
	select {
	case c.hub.direct <- directMessage{client: c, data: b}:
	case <-c.hub.done:
	}
}

// readPump turns inbound frames into intents.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.api.logger.Warn("WS Error: " + err.Error())
			}
			return
		}
		c.hub.api.metrics.RecordWSMessage(true)

		if !c.limiter.Allow() {
			c.hub.api.metrics.RecordWSThrottled()
			c.reply(Message{Type: "error", Payload: "Slow down", Sender: "SYSTEM"})
			continue
		}

		var in Intent
		if err := json.Unmarshal(raw, &in); err != nil {
			c.reply(Message{Type: "error", Payload: "Malformed message", Sender: "SYSTEM"})
			continue
		}

		out, err := c.hub.api.Dispatch(in)
		if err != nil {
			c.reply(Message{Type: "error", Payload: userMessage(err), Sender: c.id, Intent: in.Type})
			continue
		}
		if out.Notice != "" {
			c.reply(Message{Type: "notice", Payload: out.Notice, Sender: c.id, Intent: in.Type})
		}
		switch in.Type {
		case "export":
			c.reply(Message{Type: "result", Payload: out.Result, Sender: c.id, Intent: in.Type})
		case "sync":
			c.reply(Message{Type: "state", Payload: c.hub.api.session.View(), Sender: "SYSTEM"})
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
