// Package ocpp defines the message model shared by the outbound command
// gateway, the inbound dispatcher and the OCPP-J transport.
//
// It contains:
//
//   - ChargeBoxID, the normalised identity of a charge box
//   - RequestID and IDAllocator, the process-wide correlation id source
//   - Action, the name of every supported message kind
//   - Request, Response and CallError, the direction-agnostic envelope
//   - RequestEvent, ResponseEvent and Hooks, the observer surface
//   - typed payload structs for each OCPP 2.0.1 message kind
//
// Payloads are carried either as typed structs (when built in process) or as
// json.RawMessage (when decoded by the transport). DecodePayload converts
// between the two representations.
//
// Schema validation is not performed; the payload structs only name the JSON
// fields of each message.
package ocpp
