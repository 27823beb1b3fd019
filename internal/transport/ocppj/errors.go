package ocppj

import "errors"

// Domain errors for the ocppj package.
var (
	// ErrMalformedFrame is returned when a message is not a valid OCPP-J frame.
	ErrMalformedFrame = errors.New("ocppj: malformed frame")

	// ErrUnknownMessageType is returned for message types other than 2, 3 and 4.
	ErrUnknownMessageType = errors.New("ocppj: unknown message type")

	// ErrConnectionClosed is returned by Call once the connection is closed.
	ErrConnectionClosed = errors.New("ocppj: connection closed")

	// ErrDuplicateRequestID is returned when a request id is already pending
	// on the connection.
	ErrDuplicateRequestID = errors.New("ocppj: request id already pending")

	// ErrInvalidPath is returned for a connection path that does not name
	// exactly one charge box.
	ErrInvalidPath = errors.New("ocppj: invalid charge box path")
)
