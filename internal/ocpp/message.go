package ocpp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrorClass groups call errors by where they originated.
type ErrorClass string

// Error classes.
const (
	// ClassServer is raised by the central system itself, for example when
	// the target charge box is unknown.
	ClassServer ErrorClass = "Server"
	// ClassNetwork signals a transport failure while forwarding.
	ClassNetwork ErrorClass = "Network"
	// ClassTimeout signals that the response did not arrive in time or the
	// caller cancelled.
	ClassTimeout ErrorClass = "Timeout"
	// ClassProtocol carries a CALLERROR reported by the peer or produced by
	// the dispatcher for a malformed or unsupported request.
	ClassProtocol ErrorClass = "Protocol"
)

// OCPP-J error codes used by this module.
const (
	CodeFormatViolation         = "FormatViolation"
	CodeGenericError            = "GenericError"
	CodeInternalError           = "InternalError"
	CodeMessageTypeNotSupported = "MessageTypeNotSupported"
	CodeNotImplemented          = "NotImplemented"
	CodeNotSupported            = "NotSupported"
	CodeProtocolError           = "ProtocolError"
	CodeRPCFrameworkError       = "RpcFrameworkError"
)

// UnreachableDescription is the description of the synthesised response for a
// charge box that has no registry record.
const UnreachableDescription = "Unknown or unreachable charge box!"

// CustomData is the vendor extension object allowed on every OCPP 2.0.1
// message. It must contain a "vendorId" key to be meaningful.
type CustomData map[string]any

// Request is one request travelling in either direction.
type Request struct {
	ID              RequestID   `json:"id"`
	ChargeBoxID     ChargeBoxID `json:"charge_box_id"`
	Action          Action      `json:"action"`
	Timestamp       time.Time   `json:"timestamp"`
	Deadline        time.Time   `json:"deadline,omitzero"`
	EventTrackingID string      `json:"event_tracking_id,omitempty"`
	CustomData      CustomData  `json:"custom_data,omitempty"`

	// Payload is a typed payload struct or a json.RawMessage.
	Payload any `json:"payload,omitempty"`

	// WireID is the id seen on the wire for inbound requests, which charge
	// boxes choose freely and need not be numeric.
	WireID string `json:"wire_id,omitempty"`
}

// Response answers one Request. Exactly one of Payload and Error is set.
type Response struct {
	Request   *Request   `json:"-"`
	Timestamp time.Time  `json:"timestamp"`
	Payload   any        `json:"payload,omitempty"`
	Error     *CallError `json:"error,omitempty"`
}

// OK reports whether the response carries a result rather than an error.
func (r *Response) OK() bool {
	return r != nil && r.Error == nil
}

// CallError describes why a request failed.
type CallError struct {
	Class       ErrorClass     `json:"class"`
	Code        string         `json:"code"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
}

// Error implements error.
func (e *CallError) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Class, e.Code, e.Description)
}

// NewResult builds a successful response for req.
func NewResult(req *Request, payload any, now time.Time) *Response {
	return &Response{Request: req, Timestamp: now, Payload: payload}
}

// NewErrorResponse builds a failed response for req.
func NewErrorResponse(req *Request, class ErrorClass, code, description string, now time.Time) *Response {
	return &Response{
		Request:   req,
		Timestamp: now,
		Error:     &CallError{Class: class, Code: code, Description: description},
	}
}

// NewUnreachableResponse builds the response returned when req targets a
// charge box with no live connection.
func NewUnreachableResponse(req *Request, now time.Time) *Response {
	return NewErrorResponse(req, ClassServer, CodeGenericError, UnreachableDescription, now)
}

// EncodePayload marshals the request payload and merges CustomData into it
// under the "customData" key.
func (r *Request) EncodePayload() (json.RawMessage, error) {
	return encodeWithCustomData(r.Payload, r.CustomData)
}

func encodeWithCustomData(payload any, custom CustomData) (json.RawMessage, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	if len(custom) == 0 {
		return raw, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: custom data needs an object payload", ErrPayloadType)
	}
	if obj == nil {
		obj = make(map[string]json.RawMessage, 1)
	}
	cd, err := json.Marshal(custom)
	if err != nil {
		return nil, fmt.Errorf("marshalling custom data: %w", err)
	}
	obj["customData"] = cd
	return json.Marshal(obj)
}

func marshalPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return json.RawMessage("{}"), nil
	case json.RawMessage:
		if len(p) == 0 {
			return json.RawMessage("{}"), nil
		}
		return p, nil
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshalling payload: %w", err)
		}
		return raw, nil
	}
}

// MarshalPayload returns the JSON form of payload; nil becomes "{}".
func MarshalPayload(payload any) (json.RawMessage, error) {
	return marshalPayload(payload)
}
