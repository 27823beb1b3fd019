package ocpp

import "errors"

// Domain errors for the ocpp package.
var (
	// ErrEmptyChargeBoxID is returned when an identity is empty after trimming.
	ErrEmptyChargeBoxID = errors.New("ocpp: charge box id is empty")

	// ErrUnknownAction is returned when an action name is not supported.
	ErrUnknownAction = errors.New("ocpp: unknown action")

	// ErrNoPayload is returned when a typed payload is requested from an
	// empty message.
	ErrNoPayload = errors.New("ocpp: message has no payload")

	// ErrPayloadType is returned when a payload cannot be converted into the
	// requested type.
	ErrPayloadType = errors.New("ocpp: payload type mismatch")
)
