package ocppj

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// Conn is one charge box WebSocket connection. It implements
// chargebox.Connection.
//
// Outbound calls are correlated with their CALLRESULT or CALLERROR through a
// pending-call table keyed by message id. Inbound CALLs are dispatched
// concurrently so a slow handler never blocks responses to outbound calls.
type Conn struct {
	id       ocpp.ChargeBoxID
	ws       *websocket.Conn
	endpoint *Endpoint

	send chan []byte

	mu      sync.Mutex
	pending map[string]chan Frame

	closed    chan struct{}
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
}

func newConn(ctx context.Context, id ocpp.ChargeBoxID, ws *websocket.Conn, e *Endpoint) *Conn {
	ctx, cancel := context.WithCancel(ctx)
	return &Conn{
		id:       id,
		ws:       ws,
		endpoint: e,
		send:     make(chan []byte, e.cfg.SendBuffer),
		pending:  make(map[string]chan Frame),
		closed:   make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ChargeBoxID returns the identity negotiated when the connection opened.
func (c *Conn) ChargeBoxID() ocpp.ChargeBoxID { return c.id }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string { return c.ws.RemoteAddr().String() }

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} { return c.closed }

// Close closes the connection. Pending calls fail with ErrConnectionClosed.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.cancel()
		err = c.ws.Close()
	})
	return err
}

// Call sends req as a CALL frame and waits for the matching answer.
// It returns ctx.Err() when ctx ends first and ErrConnectionClosed when the
// connection closes first.
func (c *Conn) Call(ctx context.Context, req *ocpp.Request) (*ocpp.Response, error) {
	payload, err := req.EncodePayload()
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", req.Action, err)
	}

	id := req.ID.String()
	data, err := Frame{Type: TypeCall, ID: id, Action: req.Action, Payload: payload}.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding %s frame: %w", req.Action, err)
	}

	answer, err := c.expect(id)
	if err != nil {
		return nil, err
	}
	defer c.forget(id)

	select {
	case c.send <- data:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, ErrConnectionClosed
	}

	select {
	case f := <-answer:
		now := time.Now()
		if f.Type == TypeCallError {
			return &ocpp.Response{
				Request:   req,
				Timestamp: now,
				Error: &ocpp.CallError{
					Class:       ocpp.ClassProtocol,
					Code:        f.ErrorCode,
					Description: f.ErrorDescription,
					Details:     f.ErrorDetails,
				},
			}, nil
		}
		return ocpp.NewResult(req, f.Payload, now), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, ErrConnectionClosed
	}
}

func (c *Conn) expect(id string) (chan Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return nil, ErrConnectionClosed
	default:
	}
	if _, dup := c.pending[id]; dup {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRequestID, id)
	}
	ch := make(chan Frame, 1)
	c.pending[id] = ch
	return ch, nil
}

func (c *Conn) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// resolve hands an answer frame to the waiting Call. Reports false when no
// call is waiting for f.ID.
func (c *Conn) resolve(f Frame) bool {
	c.mu.Lock()
	ch, ok := c.pending[f.ID]
	delete(c.pending, f.ID)
	c.mu.Unlock()

	if ok {
		ch <- f
	}
	return ok
}

// trySend queues data without blocking. Frames for a closed connection or a
// full buffer are dropped.
func (c *Conn) trySend(data []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		c.endpoint.logger.Warn("ocpp send buffer full, dropping frame", "charge_box_id", c.id)
		return false
	}
}

// readPump reads frames until the connection fails.
func (c *Conn) readPump() {
	cfg := c.endpoint.cfg
	log := c.endpoint.logger

	defer c.endpoint.closed(c)

	c.ws.SetReadLimit(cfg.MaxMessageSize)
	//nolint:errcheck // Best-effort deadline on connection setup
	c.ws.SetReadDeadline(time.Now().Add(cfg.PingInterval + cfg.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.PingInterval + cfg.PongTimeout))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("ocpp read error", "charge_box_id", c.id, "error", err)
			} else {
				log.Debug("ocpp connection closed", "charge_box_id", c.id, "error", err)
			}
			return
		}
		// Any frame counts as liveness.
		//nolint:errcheck // Best-effort deadline reset
		c.ws.SetReadDeadline(time.Now().Add(cfg.PingInterval + cfg.PongTimeout))
		c.handleFrame(message)
	}
}

func (c *Conn) handleFrame(message []byte) {
	log := c.endpoint.logger

	f, err := ParseFrame(message)
	if err != nil {
		log.Warn("malformed ocpp frame", "charge_box_id", c.id, "error", err)
		switch {
		case f.ID == "":
		case f.Type == TypeCallResult || f.Type == TypeCallError:
			// Answers are never answered. Fail the waiting call instead.
			c.resolve(callErrorFrame(f.ID, ocpp.CodeFormatViolation, err.Error(), nil))
		default:
			c.reply(callErrorFrame(f.ID, ocpp.CodeFormatViolation, err.Error(), nil))
		}
		return
	}

	switch f.Type {
	case TypeCall:
		go c.handleCall(f)
	case TypeCallResult, TypeCallError:
		if !c.resolve(f) {
			log.Debug("unmatched ocpp answer", "charge_box_id", c.id, "message_id", f.ID)
		}
	}
}

// handleCall dispatches one inbound CALL and queues the answer.
func (c *Conn) handleCall(f Frame) {
	req := &ocpp.Request{
		ChargeBoxID: c.id,
		Action:      f.Action,
		Payload:     f.Payload,
		WireID:      f.ID,
	}
	if id, err := ocpp.ParseRequestID(f.ID); err == nil {
		req.ID = id
	}

	resp := c.endpoint.dispatcher.Dispatch(c.ctx, c.id, c, req)

	if resp.Error != nil {
		c.reply(callErrorFrame(f.ID, resp.Error.Code, resp.Error.Description, resp.Error.Details))
		return
	}

	payload, err := ocpp.MarshalPayload(resp.Payload)
	if err != nil {
		c.endpoint.logger.Error("encoding ocpp response", "charge_box_id", c.id, "action", f.Action, "error", err)
		c.reply(callErrorFrame(f.ID, ocpp.CodeInternalError, "response encoding failed", nil))
		return
	}
	c.reply(Frame{Type: TypeCallResult, ID: f.ID, Payload: payload})
}

func (c *Conn) reply(f Frame) {
	data, err := f.Encode()
	if err != nil {
		c.endpoint.logger.Error("encoding ocpp frame", "charge_box_id", c.id, "error", err)
		return
	}
	c.trySend(data)
}

// writePump writes queued frames and keep-alive pings.
func (c *Conn) writePump() {
	cfg := c.endpoint.cfg
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close() //nolint:errcheck // already closing
	}()

	for {
		select {
		case message := <-c.send:
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.ws.SetWriteDeadline(time.Now().Add(cfg.PongTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.ws.SetWriteDeadline(time.Now().Add(cfg.PongTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			//nolint:errcheck // Best-effort close message
			c.ws.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}
