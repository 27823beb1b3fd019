package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/chargebox-core/internal/infrastructure/config"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/logging"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
	"github.com/nerrad567/chargebox-core/internal/telemetry"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	// Event types carried by WSTypeEvent messages.
	EventTypeRequest  = "ocpp.request"
	EventTypeResponse = "ocpp.response"

	// ChannelAll subscribes to the events of every charge box.
	ChannelAll = "*"

	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 256

	defaultStreamPingInterval = 30 * time.Second
	defaultStreamPongTimeout  = 10 * time.Second
	defaultStreamMessageSize  = 8192
)

// WSMessage is a message sent to or from an event stream client.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Channel   string `json:"channel,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload for subscribe/unsubscribe messages.
// Channels are charge box ids or ChannelAll.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// Hub streams request and response events to WebSocket clients. Each
// client subscribes to the charge boxes it wants to watch.
//
// Hub implements telemetry.Sink; attach it to the gateway and dispatcher
// hooks with telemetry.Attach.
type Hub struct {
	logger       *logging.Logger
	pingInterval time.Duration
	pongTimeout  time.Duration
	readLimit    int64
	clients      map[*WSClient]struct{}
	mu           sync.RWMutex
}

// WSClient is one connected stream client.
type WSClient struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	subscriptions map[string]struct{}
	mu            sync.RWMutex
}

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// NewHub creates a hub. Keepalive timing follows the websocket config.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	h := &Hub{
		logger:       logger,
		pingInterval: time.Duration(cfg.PingInterval) * time.Second,
		pongTimeout:  time.Duration(cfg.PongTimeout) * time.Second,
		readLimit:    defaultStreamMessageSize,
		clients:      make(map[*WSClient]struct{}),
	}
	if h.pingInterval <= 0 {
		h.pingInterval = defaultStreamPingInterval
	}
	if h.pongTimeout <= 0 {
		h.pongTimeout = defaultStreamPongTimeout
	}
	return h
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("event stream client connected", "clients", h.ClientCount())
}

// Unregister removes a client from the hub.
// Only the goroutine that removes the client from the map closes its send
// channel.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("event stream client disconnected", "clients", h.ClientCount())
}

// ObserveRequest implements telemetry.Sink.
func (h *Hub) ObserveRequest(_ context.Context, ev ocpp.RequestEvent) error {
	msg := telemetry.RequestMessage(ev)
	h.Broadcast(msg.ChargeBoxID, EventTypeRequest, msg)
	return nil
}

// ObserveResponse implements telemetry.Sink.
func (h *Hub) ObserveResponse(_ context.Context, ev ocpp.ResponseEvent) error {
	msg := telemetry.ResponseMessage(ev)
	h.Broadcast(msg.ChargeBoxID, EventTypeResponse, msg)
	return nil
}

// Broadcast sends an event to every client subscribed to channel or to
// ChannelAll. It never blocks: a client with a full buffer misses the event.
func (h *Hub) Broadcast(channel, eventType string, payload any) {
	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		if client.isSubscribed(channel) {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		Channel:   channel,
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("failed to marshal stream event", "error", err)
		return
	}

	for _, client := range clients {
		client.trySend(data)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects all clients and closes their send channels
// so writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// handleEventStream upgrades to a WebSocket streaming exchange events.
// The optional chargebox query parameter (comma separated ids, or "*")
// sets the initial subscriptions.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	initial, ok := parseChannels(r.URL.Query().Get("chargebox"))
	if !ok {
		writeBadRequest(w, "invalid chargebox parameter")
		return
	}

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("event stream upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}, len(initial)),
	}
	for _, ch := range initial {
		client.subscriptions[ch] = struct{}{}
	}

	s.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// parseChannels normalises a comma separated channel list. Charge box ids
// are upper-cased the same way the registry keys them.
func parseChannels(raw string) ([]string, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	var channels []string
	for _, part := range strings.Split(raw, ",") {
		ch, ok := normaliseChannel(part)
		if !ok {
			return nil, false
		}
		channels = append(channels, ch)
	}
	return channels, true
}

func normaliseChannel(raw string) (string, bool) {
	if strings.TrimSpace(raw) == ChannelAll {
		return ChannelAll, true
	}
	id, err := ocpp.ParseChargeBoxID(raw)
	if err != nil {
		return "", false
	}
	return string(id), true
}

func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	wait := c.hub.pingInterval + c.hub.pongTimeout
	c.conn.SetReadLimit(c.hub.readLimit)
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("event stream read error", "error", err)
			}
			return
		}
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(wait))
		c.handleMessage(message)
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(c.hub.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.pongTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.pongTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var msg struct {
		Type    string             `json:"type"`
		ID      string             `json:"id"`
		Payload WSSubscribePayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe, WSTypeUnsubscribe:
		c.updateSubscriptions(msg.ID, msg.Type, msg.Payload.Channels)
	case WSTypePing:
		c.sendResponse(msg.ID, WSTypePong, nil)
	default:
		c.sendError(msg.ID, "unknown message type: "+msg.Type)
	}
}

func (c *WSClient) updateSubscriptions(id, kind string, raw []string) {
	channels := make([]string, 0, len(raw))
	for _, r := range raw {
		ch, ok := normaliseChannel(r)
		if !ok {
			c.sendError(id, "invalid channel: "+r)
			return
		}
		channels = append(channels, ch)
	}

	c.mu.Lock()
	for _, ch := range channels {
		if kind == WSTypeSubscribe {
			c.subscriptions[ch] = struct{}{}
		} else {
			delete(c.subscriptions, ch)
		}
	}
	c.mu.Unlock()

	key := "subscribed"
	if kind == WSTypeUnsubscribe {
		key = "unsubscribed"
	}
	c.sendResponse(id, WSTypeResponse, map[string]any{key: channels})
}

// trySend queues data without blocking. Closed channels (client gone
// mid-broadcast) and full buffers (slow client) drop the message.
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
	}
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.subscriptions[ChannelAll]; ok {
		return true
	}
	_, ok := c.subscriptions[channel]
	return ok
}

func (c *WSClient) sendResponse(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *WSClient) sendError(id, message string) {
	c.sendResponse(id, WSTypeError, map[string]string{"message": message})
}
