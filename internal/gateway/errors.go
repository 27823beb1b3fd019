package gateway

import "errors"

// Domain errors for the gateway package.
var (
	// ErrCallFailed is returned when a forwarded request did not produce a
	// response: the caller cancelled, the deadline passed or the transport
	// failed. The accompanying Response carries a Timeout or Network class
	// CallError.
	ErrCallFailed = errors.New("gateway: call failed")

	// ErrInvalidResponse is returned when a charge box answered with a
	// payload that does not fit the expected response type.
	ErrInvalidResponse = errors.New("gateway: invalid response payload")

	// ErrNotOutbound is returned by Send for actions the central system
	// cannot send.
	ErrNotOutbound = errors.New("gateway: action cannot be sent to a charge box")
)
