// Package dispatcher handles requests that charge boxes send to the central
// system.
//
// Every inbound request notifies request observers, refreshes the sender's
// record in the charge box registry, computes a response through the handler
// table, notifies response observers with the elapsed time and returns the
// response for the transport to serialise.
//
// Handlers answer with a fixed acceptance for every supported action, except
// DataTransfer (vendor check plus a payload transform) and BootNotification
// (registration status, heartbeat interval and current time). Callers can
// replace a handler with SetHandler.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/nerrad567/chargebox-core/internal/chargebox"
	"github.com/nerrad567/chargebox-core/internal/fanout"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

const (
	moduleName = "dispatcher"
	tracerName = "github.com/nerrad567/chargebox-core/internal/dispatcher"
)

// Defaults for Config.
const (
	DefaultHeartbeatInterval  = 300 * time.Second
	DefaultVendorID           = "GraphDefined"
	DefaultRegistrationStatus = ocpp.StatusAccepted
)

// Registrar records that a charge box was seen on a connection.
// *chargebox.Registry implements it.
type Registrar interface {
	Upsert(id ocpp.ChargeBoxID, conn chargebox.Connection, now time.Time)
}

// Logger defines the logging interface used by the Dispatcher.
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

// Config holds the values the stub handlers answer with.
type Config struct {
	// HeartbeatInterval is returned in BootNotification responses.
	HeartbeatInterval time.Duration
	// VendorID is the only vendor whose DataTransfer requests are accepted.
	VendorID string
	// RegistrationStatus is returned in BootNotification responses.
	RegistrationStatus string
}

func (c Config) withDefaults() Config {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.VendorID == "" {
		c.VendorID = DefaultVendorID
	}
	if c.RegistrationStatus == "" {
		c.RegistrationStatus = DefaultRegistrationStatus
	}
	return c
}

// Handler computes the response payload for one request. A non-nil
// CallError is sent instead of a payload.
type Handler func(ctx context.Context, req *ocpp.Request) (any, *ocpp.CallError)

// Dispatcher is the inbound message path. It is safe for concurrent use.
type Dispatcher struct {
	registrar Registrar
	cfg       Config
	hooks     ocpp.Hooks
	sender    string
	logger    Logger
	tracer    oteltrace.Tracer
	now       func() time.Time

	mu       sync.RWMutex
	handlers map[ocpp.Action]Handler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(d *Dispatcher) { d.SetLogger(logger) }
}

// WithSenderName sets the sender reported in events.
func WithSenderName(name string) Option {
	return func(d *Dispatcher) { d.sender = name }
}

// WithTracerProvider sets the tracer provider used for dispatch spans.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(d *Dispatcher) {
		if tp != nil {
			d.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a dispatcher that records senders in registrar.
func New(registrar Registrar, cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registrar: registrar,
		cfg:       cfg.withDefaults(),
		sender:    moduleName,
		logger:    noopLogger{},
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
	d.handlers = d.defaultHandlers()
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	d.logger = logger
}

// SetHandler replaces the handler of an inbound action.
func (d *Dispatcher) SetHandler(action ocpp.Action, h Handler) error {
	if !action.IsInbound() {
		return fmt.Errorf("%w: %s", ocpp.ErrUnknownAction, action)
	}
	if h == nil {
		return fmt.Errorf("dispatcher: nil handler for %s", action)
	}
	d.mu.Lock()
	d.handlers[action] = h
	d.mu.Unlock()
	return nil
}

func (d *Dispatcher) handler(action ocpp.Action) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[action]
	return h, ok
}

// Hooks returns the observer surface of the dispatcher.
func (d *Dispatcher) Hooks() *ocpp.Hooks { return &d.hooks }

// Config returns the effective configuration.
func (d *Dispatcher) Config() Config { return d.cfg }

// Handles reports whether action has a handler.
func (d *Dispatcher) Handles(action ocpp.Action) bool {
	_, ok := d.handler(action)
	return ok
}

// Dispatch processes one request received from id over conn and returns the
// response to send back. It never returns nil.
//
// ctx is passed to observers and handlers; dispatch itself is not
// cancellable.
func (d *Dispatcher) Dispatch(ctx context.Context, id ocpp.ChargeBoxID, conn chargebox.Connection, req *ocpp.Request) *ocpp.Response {
	start := time.Now()
	now := d.now()

	if req.ChargeBoxID == "" {
		req.ChargeBoxID = id
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = now
	}

	ctx, span := d.tracer.Start(ctx, "ocpp.receive "+string(req.Action),
		oteltrace.WithSpanKind(oteltrace.SpanKindServer),
		oteltrace.WithAttributes(
			attribute.String("ocpp.charge_box_id", string(id)),
			attribute.String("ocpp.action", string(req.Action)),
		),
	)
	defer span.End()

	fanout.Notify(ctx, d.logger, moduleName, string(req.Action), d.hooks.RequestObservers(req.Action), func() ocpp.RequestEvent {
		return ocpp.RequestEvent{
			Timestamp: req.Timestamp,
			Direction: ocpp.Inbound,
			Sender:    d.sender,
			Request:   req,
		}
	})

	d.registrar.Upsert(id, conn, now)

	resp := d.respond(ctx, req)

	elapsed := time.Since(start)
	fanout.Notify(ctx, d.logger, moduleName, string(req.Action), d.hooks.ResponseObservers(req.Action), func() ocpp.ResponseEvent {
		return ocpp.ResponseEvent{
			Timestamp: resp.Timestamp,
			Direction: ocpp.Inbound,
			Sender:    d.sender,
			Request:   req,
			Response:  resp,
			Elapsed:   elapsed,
		}
	})

	if resp.Error != nil {
		span.SetStatus(codes.Error, resp.Error.Description)
		span.SetAttributes(attribute.String("ocpp.error_code", resp.Error.Code))
	}
	return resp
}

func (d *Dispatcher) respond(ctx context.Context, req *ocpp.Request) (resp *ocpp.Response) {
	h, ok := d.handler(req.Action)
	if !ok {
		d.logger.Warn("unsupported inbound action",
			"charge_box_id", req.ChargeBoxID,
			"action", req.Action,
		)
		return ocpp.NewErrorResponse(req, ocpp.ClassProtocol, ocpp.CodeNotImplemented,
			fmt.Sprintf("action %q is not supported", req.Action), d.now())
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("inbound handler panicked",
				"charge_box_id", req.ChargeBoxID,
				"action", req.Action,
				"panic", rec,
			)
			resp = ocpp.NewErrorResponse(req, ocpp.ClassProtocol, ocpp.CodeInternalError, "internal error", d.now())
		}
	}()

	payload, callErr := h(ctx, req)
	if callErr != nil {
		return &ocpp.Response{Request: req, Timestamp: d.now(), Error: callErr}
	}
	return ocpp.NewResult(req, payload, d.now())
}
