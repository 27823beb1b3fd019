// Package commandbus lets remote systems drive charge boxes over MQTT.
//
// A message on chargebox/command/{chargeBoxID}/{action} carrying
//
//	{"request_id": 4711, "timeout": "10s", "custom_data": {...}, "payload": {...}}
//
// is forwarded through the command gateway. The outcome, success or not, is
// published to chargebox/result/{chargeBoxID}/{requestID}. Every field but
// payload is optional.
package commandbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/chargebox-core/internal/audit"
	"github.com/nerrad567/chargebox-core/internal/gateway"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// Sender forwards one command. *gateway.Gateway implements it.
type Sender interface {
	Send(ctx context.Context, id ocpp.ChargeBoxID, action ocpp.Action, payload any, opts ...gateway.CallOption) (*ocpp.Response, error)
}

// Broker is the MQTT surface the bus needs. *mqtt.Client implements it.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	PublishJSON(topic string, v any, retained bool) error
	QoS() byte
}

// Auditor records forwarded commands. *audit.SQLiteRepository implements it.
type Auditor interface {
	Create(ctx context.Context, log *audit.AuditLog) error
}

// Logger defines the logging interface used by the bus.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Command is the body of a command message.
type Command struct {
	RequestID  ocpp.RequestID  `json:"request_id,omitempty"`
	Timeout    string          `json:"timeout,omitempty"`
	CustomData ocpp.CustomData `json:"custom_data,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// Result is the body published for every command.
type Result struct {
	RequestID   string          `json:"request_id"`
	ChargeBoxID string          `json:"charge_box_id"`
	Action      string          `json:"action"`
	Timestamp   time.Time       `json:"timestamp"`
	OK          bool            `json:"ok"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Error       *ocpp.CallError `json:"error,omitempty"`
	Failure     string          `json:"failure,omitempty"`
}

// rejectedID names the result topic of commands that never got a request id.
const rejectedID = "rejected"

// Bus bridges MQTT commands to the gateway.
type Bus struct {
	sender Sender
	broker Broker
	logger Logger
	audit  Auditor
	now    func() time.Time

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithAudit records every command forwarded to a charge box.
func WithAudit(a Auditor) Option {
	return func(b *Bus) { b.audit = a }
}

// New creates a bus. Call Start to begin consuming commands.
func New(sender Sender, broker Broker, opts ...Option) *Bus {
	b := &Bus{sender: sender, broker: broker, logger: noopLogger{}, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start subscribes to every command topic. Commands run until ctx ends or
// Stop is called.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		return nil
	}
	b.ctx, b.cancel = context.WithCancel(ctx)

	if err := b.broker.Subscribe(mqtt.Topics{}.AllCommands(), b.broker.QoS(), b.receive); err != nil {
		b.cancel()
		b.cancel = nil
		return fmt.Errorf("subscribing to commands: %w", err)
	}
	b.logger.Info("command bus started", "topic", mqtt.Topics{}.AllCommands())
	return nil
}

// Stop unsubscribes, cancels commands in flight and waits for them.
func (b *Bus) Stop() error {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	if cancel == nil {
		return ErrNotStarted
	}

	err := b.broker.Unsubscribe(mqtt.Topics{}.AllCommands())
	cancel()
	b.running.Wait()
	if err != nil {
		return fmt.Errorf("unsubscribing from commands: %w", err)
	}
	return nil
}

// receive runs on the MQTT client's goroutine and hands the command off so
// slow charge boxes never stall message delivery.
func (b *Bus) receive(topic string, payload []byte) error {
	b.mu.Lock()
	ctx := b.ctx
	stopped := b.cancel == nil
	if !stopped {
		b.running.Add(1)
	}
	b.mu.Unlock()

	if stopped {
		return nil
	}

	go func() {
		defer b.running.Done()
		b.Handle(ctx, topic, payload)
	}()
	return nil
}

// Handle executes one command message and publishes its result.
func (b *Bus) Handle(ctx context.Context, topic string, body []byte) {
	res := b.execute(ctx, topic, body)

	resultTopic := mqtt.Topics{}.Result(res.ChargeBoxID, res.RequestID)
	if res.ChargeBoxID == "" {
		resultTopic = mqtt.Topics{}.Result(rejectedID, res.RequestID)
	}
	if err := b.broker.PublishJSON(resultTopic, res, false); err != nil {
		b.logger.Error("publishing command result", "topic", resultTopic, "error", err)
	}
}

func (b *Bus) execute(ctx context.Context, topic string, body []byte) Result {
	res := Result{RequestID: rejectedID, Timestamp: b.now()}

	rawID, rawAction, err := mqtt.ParseCommandTopic(topic)
	if err != nil {
		return b.reject(res, err)
	}
	res.Action = rawAction

	id, err := ocpp.ParseChargeBoxID(rawID)
	if err != nil {
		return b.reject(res, err)
	}
	res.ChargeBoxID = string(id)

	action := ocpp.Action(rawAction)
	if !action.IsOutbound() {
		return b.reject(res, fmt.Errorf("%w: %s is not a command", ErrInvalidCommand, rawAction))
	}

	var cmd Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		return b.reject(res, fmt.Errorf("%w: %w", ErrInvalidCommand, err))
	}
	if cmd.RequestID != 0 {
		res.RequestID = cmd.RequestID.String()
	}

	opts := []gateway.CallOption{gateway.WithRequestID(cmd.RequestID)}
	if cmd.Timeout != "" {
		d, err := time.ParseDuration(cmd.Timeout)
		if err != nil || d <= 0 {
			return b.reject(res, fmt.Errorf("%w: timeout %q", ErrInvalidCommand, cmd.Timeout))
		}
		opts = append(opts, gateway.WithTimeout(d))
	}
	if len(cmd.CustomData) > 0 {
		opts = append(opts, gateway.WithCustomData(cmd.CustomData))
	}

	var payload any
	if len(cmd.Payload) > 0 {
		payload = cmd.Payload
	}

	resp, err := b.sender.Send(ctx, id, action, payload, opts...)
	if resp == nil {
		return b.reject(res, err)
	}
	b.recordAudit(ctx, id, action, resp)

	res.RequestID = resp.Request.ID.String()
	res.Timestamp = b.now()
	res.OK = resp.OK()
	res.Error = resp.Error
	if err != nil {
		res.Failure = err.Error()
	}
	if resp.OK() {
		raw, merr := ocpp.MarshalPayload(resp.Payload)
		if merr != nil {
			res.OK = false
			res.Failure = merr.Error()
		} else {
			res.Payload = raw
		}
	}
	return res
}

func (b *Bus) recordAudit(ctx context.Context, id ocpp.ChargeBoxID, action ocpp.Action, resp *ocpp.Response) {
	if b.audit == nil {
		return
	}
	err := b.audit.Create(context.WithoutCancel(ctx), &audit.AuditLog{
		Action:     audit.ActionCommand,
		EntityType: audit.EntityChargeBox,
		EntityID:   string(id),
		RequestID:  resp.Request.ID.String(),
		Source:     audit.SourceMQTT,
		Details:    map[string]any{"action": string(action), "ok": resp.OK()},
	})
	if err != nil {
		b.logger.Warn("recording audit log", "charge_box_id", id, "error", err)
	}
}

func (b *Bus) reject(res Result, err error) Result {
	b.logger.Warn("command rejected", "charge_box_id", res.ChargeBoxID, "action", res.Action, "error", err)
	res.Failure = err.Error()
	return res
}
