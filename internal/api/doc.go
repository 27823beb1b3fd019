// Package api implements the admin HTTP API of the central system.
//
// This package provides:
//   - REST endpoints for connected charge boxes and for sending them commands
//   - CRUD endpoints for the device repository
//   - read access to the message journal
//   - a WebSocket stream of live request/response events
//   - the Prometheus scrape endpoint and the OCPP-J upgrade route
//   - middleware (request ID, logging, recovery, body size limit)
//
// # Architecture
//
// The server sits beside the OCPP-J endpoint. Charge boxes connect on
// {websocket.path}/{chargeBoxID}; operators and back-office systems use
// /api/v1. Commands posted to /api/v1/chargeboxes/{id}/commands/{action} go
// through the same gateway as every other caller, so observers (metrics,
// MQTT, journal, the live stream) see them like any other exchange.
//
// # Optional Dependencies
//
// Only the logger, the charge box registry, the device repository and the
// gateway are required. Without a journal the journal route answers 503;
// without a gatherer /metrics is not mounted; without an OCPP handler the
// upgrade route is not mounted.
package api
