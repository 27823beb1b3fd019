package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/chargebox-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// Publisher publishes a JSON document. *mqtt.Client implements it.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// EventMessage is the body published for every exchange event.
type EventMessage struct {
	Timestamp   time.Time       `json:"timestamp"`
	Direction   string          `json:"direction"`
	Sender      string          `json:"sender,omitempty"`
	ChargeBoxID string          `json:"charge_box_id"`
	Action      string          `json:"action"`
	RequestID   string          `json:"request_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Outcome     string          `json:"outcome,omitempty"`
	ElapsedMS   *float64        `json:"elapsed_ms,omitempty"`
	Error       *ocpp.CallError `json:"error,omitempty"`
}

// EventPublisher publishes exchange events to
// chargebox/events/{chargeBoxID}/{direction}/{action}/{request|response}.
type EventPublisher struct {
	pub Publisher
}

// NewEventPublisher creates a publisher sink.
func NewEventPublisher(pub Publisher) *EventPublisher {
	return &EventPublisher{pub: pub}
}

// ObserveRequest implements Sink.
func (p *EventPublisher) ObserveRequest(_ context.Context, ev ocpp.RequestEvent) error {
	msg := RequestMessage(ev)
	return p.pub.PublishJSON(mqtt.Topics{}.Event(msg.ChargeBoxID, msg.Direction, msg.Action, mqtt.EventKindRequest), msg, false)
}

// ObserveResponse implements Sink.
func (p *EventPublisher) ObserveResponse(_ context.Context, ev ocpp.ResponseEvent) error {
	msg := ResponseMessage(ev)
	return p.pub.PublishJSON(mqtt.Topics{}.Event(msg.ChargeBoxID, msg.Direction, msg.Action, mqtt.EventKindResponse), msg, false)
}

// RequestMessage renders a request event with its encoded payload.
func RequestMessage(ev ocpp.RequestEvent) EventMessage {
	msg := newEventMessage(ev.Timestamp, ev.Direction, ev.Sender, ev.Request)
	if ev.Request != nil {
		if raw, err := ev.Request.EncodePayload(); err == nil {
			msg.Payload = raw
		}
	}
	return msg
}

// ResponseMessage renders a response event. Payload is set only for
// successful responses.
func ResponseMessage(ev ocpp.ResponseEvent) EventMessage {
	msg := newEventMessage(ev.Timestamp, ev.Direction, ev.Sender, ev.Request)
	msg.Outcome = ev.Outcome()
	elapsed := float64(ev.Elapsed) / float64(time.Millisecond)
	msg.ElapsedMS = &elapsed

	if ev.Response != nil {
		msg.Error = ev.Response.Error
		if ev.Response.Error == nil {
			if raw, err := ocpp.MarshalPayload(ev.Response.Payload); err == nil {
				msg.Payload = raw
			}
		}
	}
	return msg
}

func newEventMessage(ts time.Time, dir ocpp.Direction, sender string, req *ocpp.Request) EventMessage {
	msg := EventMessage{Timestamp: ts, Direction: string(dir), Sender: sender}
	if req != nil {
		msg.ChargeBoxID = string(req.ChargeBoxID)
		msg.Action = string(req.Action)
		msg.RequestID = req.WireID
		if msg.RequestID == "" {
			msg.RequestID = req.ID.String()
		}
	}
	return msg
}
