// Package gateway sends commands from the central system to charge boxes.
//
// Every command kind follows the same path:
//
//  1. allocate a request id (unless supplied) and build the Request with a
//     timestamp and deadline
//  2. notify request observers
//  3. resolve the charge box in the registry; forward over its connection
//     and await the response, or synthesise an "unreachable" response
//     without any I/O
//  4. notify response observers with the elapsed time
//  5. return the response
//
// Observer failures are isolated by the fanout package and never affect the
// command. Cancellation and deadline expiry while awaiting a charge box are
// reported both as a Timeout class response and as an ErrCallFailed error.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/nerrad567/chargebox-core/internal/chargebox"
	"github.com/nerrad567/chargebox-core/internal/fanout"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// DefaultRequestTimeout bounds the wait for a charge box response.
const DefaultRequestTimeout = 30 * time.Second

const (
	moduleName = "gateway"
	tracerName = "github.com/nerrad567/chargebox-core/internal/gateway"
)

// Resolver looks up the live connection of a charge box.
// *chargebox.Registry implements it.
type Resolver interface {
	Resolve(id ocpp.ChargeBoxID) (chargebox.Record, bool)
}

// Logger defines the logging interface used by the Gateway.
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

// Gateway is the outbound command path. It is safe for concurrent use.
type Gateway struct {
	resolver       Resolver
	ids            *ocpp.IDAllocator
	hooks          ocpp.Hooks
	requestTimeout time.Duration
	sender         string
	logger         Logger
	tracer         oteltrace.Tracer
	now            func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithRequestTimeout sets the default response timeout.
// Non-positive values are ignored.
func WithRequestTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.requestTimeout = d
		}
	}
}

// WithIDAllocator shares an id allocator between gateways.
func WithIDAllocator(ids *ocpp.IDAllocator) Option {
	return func(g *Gateway) {
		if ids != nil {
			g.ids = ids
		}
	}
}

// WithSenderName sets the sender reported in events.
func WithSenderName(name string) Option {
	return func(g *Gateway) { g.sender = name }
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(g *Gateway) { g.SetLogger(logger) }
}

// WithTracerProvider sets the tracer provider used for command spans.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(g *Gateway) {
		if tp != nil {
			g.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates a gateway that routes through resolver.
func New(resolver Resolver, opts ...Option) *Gateway {
	g := &Gateway{
		resolver:       resolver,
		ids:            ocpp.NewIDAllocator(),
		requestTimeout: DefaultRequestTimeout,
		sender:         moduleName,
		logger:         noopLogger{},
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetLogger sets the logger for the gateway.
func (g *Gateway) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	g.logger = logger
}

// Hooks returns the observer surface of the gateway.
func (g *Gateway) Hooks() *ocpp.Hooks { return &g.hooks }

// RequestTimeout returns the default response timeout.
func (g *Gateway) RequestTimeout() time.Duration { return g.requestTimeout }

// CallOption adjusts one outbound request.
type CallOption func(*callOptions)

type callOptions struct {
	requestID       ocpp.RequestID
	timestamp       time.Time
	timeout         time.Duration
	customData      ocpp.CustomData
	eventTrackingID string
}

// WithRequestID uses id instead of allocating one.
func WithRequestID(id ocpp.RequestID) CallOption {
	return func(o *callOptions) { o.requestID = id }
}

// WithTimestamp sets the request timestamp.
func WithTimestamp(ts time.Time) CallOption {
	return func(o *callOptions) { o.timestamp = ts }
}

// WithTimeout overrides the response timeout for one request.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithCustomData attaches vendor custom data to the request payload.
func WithCustomData(cd ocpp.CustomData) CallOption {
	return func(o *callOptions) { o.customData = cd }
}

// WithEventTrackingID sets the id that ties events of one request together.
func WithEventTrackingID(id string) CallOption {
	return func(o *callOptions) { o.eventTrackingID = id }
}

// Result is the typed outcome of one command.
// Payload is only meaningful when Response.OK() is true.
type Result[T any] struct {
	Request  *ocpp.Request
	Response *ocpp.Response
	Payload  T
}

// OK reports whether the charge box answered with a result.
func (r *Result[T]) OK() bool {
	return r != nil && r.Response.OK()
}

// Send runs the outbound algorithm for action with an untyped payload.
//
// The returned response is never nil unless the action is not outbound. A
// non-nil error wraps ErrCallFailed when the charge box was reachable but did
// not answer in time or the transport failed.
func (g *Gateway) Send(ctx context.Context, id ocpp.ChargeBoxID, action ocpp.Action, payload any, opts ...CallOption) (*ocpp.Response, error) {
	if !action.IsOutbound() {
		return nil, fmt.Errorf("%w: %s", ErrNotOutbound, action)
	}

	o := callOptions{timeout: g.requestTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	now := g.now()

	req := &ocpp.Request{
		ID:              o.requestID,
		ChargeBoxID:     id,
		Action:          action,
		Timestamp:       o.timestamp,
		Deadline:        now.Add(o.timeout),
		EventTrackingID: o.eventTrackingID,
		CustomData:      o.customData,
		Payload:         payload,
	}
	if req.ID == 0 {
		req.ID = g.ids.Next()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = now
	}
	if req.EventTrackingID == "" {
		req.EventTrackingID = uuid.NewString()
	}

	ctx, span := g.tracer.Start(ctx, "ocpp.send "+string(action),
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("ocpp.charge_box_id", string(id)),
			attribute.String("ocpp.action", string(action)),
			attribute.String("ocpp.request_id", req.ID.String()),
		),
	)
	defer span.End()

	fanout.Notify(ctx, g.logger, moduleName, string(action), g.hooks.RequestObservers(action), func() ocpp.RequestEvent {
		return ocpp.RequestEvent{
			Timestamp: req.Timestamp,
			Direction: ocpp.Outbound,
			Sender:    g.sender,
			Request:   req,
		}
	})

	resp, callErr := g.forward(ctx, req)
	elapsed := time.Since(start)

	fanout.Notify(ctx, g.logger, moduleName, string(action), g.hooks.ResponseObservers(action), func() ocpp.ResponseEvent {
		return ocpp.ResponseEvent{
			Timestamp: resp.Timestamp,
			Direction: ocpp.Outbound,
			Sender:    g.sender,
			Request:   req,
			Response:  resp,
			Elapsed:   elapsed,
		}
	})

	if resp.Error != nil {
		span.SetStatus(codes.Error, resp.Error.Description)
		span.SetAttributes(
			attribute.String("ocpp.error_class", string(resp.Error.Class)),
			attribute.String("ocpp.error_code", resp.Error.Code),
		)
	}
	if callErr != nil {
		span.RecordError(callErr)
	}

	return resp, callErr
}

// forward resolves the target and either awaits its answer or synthesises
// the unreachable response.
func (g *Gateway) forward(ctx context.Context, req *ocpp.Request) (*ocpp.Response, error) {
	rec, ok := g.resolver.Resolve(req.ChargeBoxID)
	if !ok || rec.Conn == nil {
		g.logger.Debug("charge box unreachable",
			"charge_box_id", req.ChargeBoxID,
			"action", req.Action,
			"request_id", req.ID,
		)
		return ocpp.NewUnreachableResponse(req, g.now()), nil
	}

	callCtx, cancel := context.WithDeadline(ctx, req.Deadline)
	defer cancel()

	resp, err := rec.Conn.Call(callCtx, req)
	if err != nil {
		class, description := ocpp.ClassNetwork, "transport failure: "+err.Error()
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			class, description = ocpp.ClassTimeout, "no response before deadline"
		case errors.Is(err, context.Canceled):
			class, description = ocpp.ClassTimeout, "request cancelled"
		}
		g.logger.Warn("command failed",
			"charge_box_id", req.ChargeBoxID,
			"action", req.Action,
			"request_id", req.ID,
			"error", err,
		)
		failed := ocpp.NewErrorResponse(req, class, ocpp.CodeGenericError, description, g.now())
		return failed, fmt.Errorf("%w: %s to %s: %w", ErrCallFailed, req.Action, req.ChargeBoxID, err)
	}
	if resp == nil {
		return ocpp.NewErrorResponse(req, ocpp.ClassNetwork, ocpp.CodeGenericError, "empty response", g.now()),
			fmt.Errorf("%w: %s to %s: empty response", ErrCallFailed, req.Action, req.ChargeBoxID)
	}

	if resp.Request == nil {
		resp.Request = req
	}
	if resp.Timestamp.IsZero() {
		resp.Timestamp = g.now()
	}
	return resp, nil
}

// call is the typed wrapper used by every command method.
func call[T any](ctx context.Context, g *Gateway, id ocpp.ChargeBoxID, action ocpp.Action, payload any, opts []CallOption) (*Result[T], error) {
	resp, err := g.Send(ctx, id, action, payload, opts...)
	if resp == nil {
		return nil, err
	}

	res := &Result[T]{Request: resp.Request, Response: resp}
	if err != nil || !resp.OK() || resp.Payload == nil {
		return res, err
	}

	p, derr := ocpp.DecodePayload[T](resp.Payload)
	if derr != nil {
		return res, fmt.Errorf("%w: %s: %w", ErrInvalidResponse, action, derr)
	}
	res.Payload = p
	return res, nil
}
