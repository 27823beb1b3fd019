package ocpp

import (
	"time"

	"github.com/nerrad567/chargebox-core/internal/fanout"
)

// Direction tells which side initiated an exchange.
type Direction string

// Directions.
const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

// RequestEvent is raised when a request is sent (outbound) or received
// (inbound).
type RequestEvent struct {
	Timestamp time.Time
	Direction Direction
	Sender    string
	Request   *Request
}

// ResponseEvent is raised when a response is received (outbound) or sent
// (inbound).
type ResponseEvent struct {
	Timestamp time.Time
	Direction Direction
	Sender    string
	Request   *Request
	Response  *Response
	Elapsed   time.Duration
}

// Outcome returns "ok", or the error class of the response in lower case.
func (e ResponseEvent) Outcome() string {
	if e.Response == nil {
		return "none"
	}
	if e.Response.Error == nil {
		return "ok"
	}
	switch e.Response.Error.Class {
	case ClassServer:
		return "server_error"
	case ClassNetwork:
		return "network_error"
	case ClassTimeout:
		return "timeout"
	default:
		return "protocol_error"
	}
}

// RequestObserver receives request events.
type RequestObserver = fanout.Observer[RequestEvent]

// ResponseObserver receives response events.
type ResponseObserver = fanout.Observer[ResponseEvent]

// Hooks holds the two notification channels of every action. Observers can
// subscribe per action or to all actions. The zero value is ready to use.
type Hooks struct {
	requests  fanout.Keyed[Action, RequestEvent]
	responses fanout.Keyed[Action, ResponseEvent]
}

// OnRequest subscribes fn to request events for action.
func (h *Hooks) OnRequest(action Action, fn RequestObserver) (unsubscribe func()) {
	return h.requests.Subscribe(action, fn)
}

// OnResponse subscribes fn to response events for action.
func (h *Hooks) OnResponse(action Action, fn ResponseObserver) (unsubscribe func()) {
	return h.responses.Subscribe(action, fn)
}

// OnAnyRequest subscribes fn to request events of every action.
func (h *Hooks) OnAnyRequest(fn RequestObserver) (unsubscribe func()) {
	return h.requests.SubscribeAll(fn)
}

// OnAnyResponse subscribes fn to response events of every action.
func (h *Hooks) OnAnyResponse(fn ResponseObserver) (unsubscribe func()) {
	return h.responses.SubscribeAll(fn)
}

// RequestObservers snapshots the request observers for action.
func (h *Hooks) RequestObservers(action Action) []RequestObserver {
	return h.requests.Snapshot(action)
}

// ResponseObservers snapshots the response observers for action.
func (h *Hooks) ResponseObservers(action Action) []ResponseObserver {
	return h.responses.Snapshot(action)
}
