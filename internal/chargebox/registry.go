// Package chargebox tracks which charge boxes currently have a live
// connection.
//
// The Registry maps a ChargeBoxID to the connection that last carried traffic
// for it and the time that traffic was seen. Records are created or replaced
// whenever inbound traffic arrives (last write wins) and are consulted by the
// command gateway to route outbound requests. A missing record means the
// charge box is unreachable.
//
// Records are never expired by a timer. Forget removes a record only when it
// still points at the given connection, which lets the transport drop closed
// connections without clobbering a newer one.
package chargebox

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// Connection is the transport handle used to forward a request to a charge box
// and await its response. The registry never owns or closes a Connection.
type Connection interface {
	Call(ctx context.Context, req *ocpp.Request) (*ocpp.Response, error)
}

// Record is the registry value for one charge box.
type Record struct {
	Conn     Connection
	LastSeen time.Time
}

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is a concurrency-safe map from charge box id to Record.
type Registry struct {
	mu      sync.RWMutex
	records map[ocpp.ChargeBoxID]Record
	logger  Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[ocpp.ChargeBoxID]Record),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Upsert inserts or replaces the record for id.
func (r *Registry) Upsert(id ocpp.ChargeBoxID, conn Connection, now time.Time) {
	r.mu.Lock()
	prev, existed := r.records[id]
	r.records[id] = Record{Conn: conn, LastSeen: now}
	r.mu.Unlock()

	switch {
	case !existed:
		r.logger.Info("charge box registered", "charge_box_id", id)
	case prev.Conn != conn:
		r.logger.Info("charge box connection replaced", "charge_box_id", id)
	}
}

// Resolve returns the record for id.
func (r *Registry) Resolve(id ocpp.ChargeBoxID) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	return rec, ok
}

// ChargeBoxIDs returns the ids of all charge boxes with a record, sorted.
func (r *Registry) ChargeBoxIDs() []ocpp.ChargeBoxID {
	r.mu.RLock()
	ids := make([]ocpp.ChargeBoxID, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// ChargeBoxes returns a copy of all records.
func (r *Registry) ChargeBoxes() map[ocpp.ChargeBoxID]Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[ocpp.ChargeBoxID]Record, len(r.records))
	for id, rec := range r.records {
		out[id] = rec
	}
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Forget removes the record for id if it still refers to conn.
// Reports whether a record was removed.
func (r *Registry) Forget(id ocpp.ChargeBoxID, conn Connection) bool {
	r.mu.Lock()
	rec, ok := r.records[id]
	if ok && rec.Conn == conn {
		delete(r.records, id)
	}
	r.mu.Unlock()

	removed := ok && rec.Conn == conn
	if removed {
		r.logger.Info("charge box forgotten", "charge_box_id", id)
	}
	return removed
}
