package ocppj

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// MessageType is the first element of an OCPP-J frame.
type MessageType int

// OCPP-J message types.
const (
	TypeCall       MessageType = 2
	TypeCallResult MessageType = 3
	TypeCallError  MessageType = 4
)

// Frame is one decoded OCPP-J message:
//
//	[2, id, action, payload]                       CALL
//	[3, id, payload]                               CALLRESULT
//	[4, id, errorCode, errorDescription, details]  CALLERROR
type Frame struct {
	Type             MessageType
	ID               string
	Action           ocpp.Action
	Payload          json.RawMessage
	ErrorCode        string
	ErrorDescription string
	ErrorDetails     map[string]any
}

// ParseFrame decodes data. On error the returned frame still carries the
// message id when it could be read, so the caller can answer with a
// CALLERROR.
func ParseFrame(data []byte) (Frame, error) {
	var f Frame

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return f, fmt.Errorf("%w: not a JSON array", ErrMalformedFrame)
	}
	if len(parts) < 3 {
		return f, fmt.Errorf("%w: %d elements", ErrMalformedFrame, len(parts))
	}

	var typ int
	if err := json.Unmarshal(parts[0], &typ); err != nil {
		return f, fmt.Errorf("%w: message type is not a number", ErrMalformedFrame)
	}
	if err := json.Unmarshal(parts[1], &f.ID); err != nil {
		return f, fmt.Errorf("%w: message id is not a string", ErrMalformedFrame)
	}
	f.Type = MessageType(typ)

	switch f.Type {
	case TypeCall:
		if len(parts) != 4 {
			return f, fmt.Errorf("%w: CALL needs 4 elements", ErrMalformedFrame)
		}
		var action string
		if err := json.Unmarshal(parts[2], &action); err != nil || action == "" {
			return f, fmt.Errorf("%w: action is not a string", ErrMalformedFrame)
		}
		f.Action = ocpp.Action(action)
		f.Payload = parts[3]

	case TypeCallResult:
		f.Payload = parts[2]

	case TypeCallError:
		if len(parts) < 4 {
			return f, fmt.Errorf("%w: CALLERROR needs at least 4 elements", ErrMalformedFrame)
		}
		if err := json.Unmarshal(parts[2], &f.ErrorCode); err != nil {
			return f, fmt.Errorf("%w: error code is not a string", ErrMalformedFrame)
		}
		if err := json.Unmarshal(parts[3], &f.ErrorDescription); err != nil {
			return f, fmt.Errorf("%w: error description is not a string", ErrMalformedFrame)
		}
		if len(parts) > 4 {
			// Details are informational; ignore shapes we cannot read.
			_ = json.Unmarshal(parts[4], &f.ErrorDetails) //nolint:errcheck
		}

	default:
		return f, fmt.Errorf("%w: %d", ErrUnknownMessageType, typ)
	}

	return f, nil
}

// Encode renders the frame as OCPP-J JSON.
func (f Frame) Encode() ([]byte, error) {
	switch f.Type {
	case TypeCall:
		return json.Marshal([]any{f.Type, f.ID, f.Action, payloadOrEmpty(f.Payload)})
	case TypeCallResult:
		return json.Marshal([]any{f.Type, f.ID, payloadOrEmpty(f.Payload)})
	case TypeCallError:
		details := f.ErrorDetails
		if details == nil {
			details = map[string]any{}
		}
		return json.Marshal([]any{f.Type, f.ID, f.ErrorCode, f.ErrorDescription, details})
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, f.Type)
	}
}

func payloadOrEmpty(p json.RawMessage) json.RawMessage {
	if len(p) == 0 {
		return json.RawMessage("{}")
	}
	return p
}

// callErrorFrame builds a CALLERROR answering id.
func callErrorFrame(id, code, description string, details map[string]any) Frame {
	return Frame{
		Type:             TypeCallError,
		ID:               id,
		ErrorCode:        code,
		ErrorDescription: description,
		ErrorDetails:     details,
	}
}
