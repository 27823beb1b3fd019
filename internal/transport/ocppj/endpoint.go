// Package ocppj is the OCPP-J WebSocket transport.
//
// An Endpoint accepts charge box connections on "{path}/{chargeBoxID}",
// announces each new connection to the charge box registry, dispatches
// inbound CALL frames through the dispatcher and answers with CALLRESULT or
// CALLERROR. Each Conn implements chargebox.Connection so the command gateway
// can send CALL frames and await the answer.
package ocppj

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/chargebox-core/internal/chargebox"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// Dispatcher processes one inbound request.
// *dispatcher.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, id ocpp.ChargeBoxID, conn chargebox.Connection, req *ocpp.Request) *ocpp.Response
}

// Registry is notified when connections open and close.
// *chargebox.Registry implements it.
type Registry interface {
	Upsert(id ocpp.ChargeBoxID, conn chargebox.Connection, now time.Time)
	Forget(id ocpp.ChargeBoxID, conn chargebox.Connection) bool
}

// Logger defines the logging interface used by the transport.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config holds transport settings.
type Config struct {
	// Path is the mount prefix. The single path segment after it names the
	// charge box.
	Path               string
	Subprotocols       []string
	MaxMessageSize     int64
	PingInterval       time.Duration
	PongTimeout        time.Duration
	SendBuffer         int
	ForgetOnDisconnect bool
}

func (c Config) withDefaults() Config {
	c.Path = strings.TrimRight(c.Path, "/")
	if c.Path == "" {
		c.Path = "/ocpp"
	}
	if !strings.HasPrefix(c.Path, "/") {
		c.Path = "/" + c.Path
	}
	if len(c.Subprotocols) == 0 {
		c.Subprotocols = []string{"ocpp2.0.1"}
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 65536
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 10 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	return c
}

// Endpoint accepts charge box WebSocket connections.
type Endpoint struct {
	cfg        Config
	dispatcher Dispatcher
	registry   Registry
	upgrader   websocket.Upgrader
	logger     Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

// NewEndpoint creates an endpoint.
func NewEndpoint(cfg Config, d Dispatcher, reg Registry) *Endpoint {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Endpoint{
		cfg:        cfg,
		dispatcher: d,
		registry:   reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    cfg.Subprotocols,
			CheckOrigin: func(_ *http.Request) bool {
				// Charge boxes are not browsers.
				return true
			},
		},
		logger: noopLogger{},
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[*Conn]struct{}),
	}
}

// SetLogger sets the logger for the endpoint.
func (e *Endpoint) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	e.logger = logger
}

// ServeHTTP upgrades the request. The path must be "{Path}/{chargeBoxID}".
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := e.chargeBoxID(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Error("ocpp websocket upgrade failed", "charge_box_id", id, "error", err)
		return
	}
	if ws.Subprotocol() == "" {
		e.logger.Warn("charge box negotiated no ocpp subprotocol", "charge_box_id", id,
			"offered", websocket.Subprotocols(r))
	}

	conn := newConn(e.ctx, id, ws, e)
	e.mu.Lock()
	e.conns[conn] = struct{}{}
	e.mu.Unlock()

	e.registry.Upsert(id, conn, time.Now())
	e.logger.Info("charge box connected",
		"charge_box_id", id,
		"remote_addr", ws.RemoteAddr().String(),
		"subprotocol", ws.Subprotocol(),
	)

	go conn.writePump()
	go conn.readPump()
}

// chargeBoxID extracts the identity from a request path. Anything but one
// non-empty segment after the mount prefix is rejected.
func (e *Endpoint) chargeBoxID(p string) (ocpp.ChargeBoxID, error) {
	rest, ok := strings.CutPrefix(p, e.cfg.Path+"/")
	if !ok {
		return "", fmt.Errorf("%w: must start with %s/", ErrInvalidPath, e.cfg.Path)
	}
	if strings.Contains(rest, "/") {
		return "", fmt.Errorf("%w: id must be a single segment", ErrInvalidPath)
	}
	id, err := ocpp.ParseChargeBoxID(rest)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	return id, nil
}

// closed is called by a Conn once its read loop ends.
func (e *Endpoint) closed(c *Conn) {
	c.Close() //nolint:errcheck // closing anyway

	e.mu.Lock()
	delete(e.conns, c)
	e.mu.Unlock()

	if e.cfg.ForgetOnDisconnect {
		e.registry.Forget(c.id, c)
	}
	e.logger.Info("charge box disconnected", "charge_box_id", c.id)
}

// ConnectionCount returns the number of open connections.
func (e *Endpoint) ConnectionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.conns)
}

// Close closes every connection.
func (e *Endpoint) Close() error {
	e.cancel()

	e.mu.RLock()
	conns := make([]*Conn, 0, len(e.conns))
	for c := range e.conns {
		conns = append(conns, c)
	}
	e.mu.RUnlock()

	for _, c := range conns {
		c.Close() //nolint:errcheck // best-effort shutdown
	}
	return nil
}
