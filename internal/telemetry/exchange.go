package telemetry

import (
	"context"

	"github.com/nerrad567/chargebox-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// PointWriter queues exchange points. *influxdb.Client implements it.
type PointWriter interface {
	WriteExchange(e influxdb.Exchange)
}

// ExchangeWriter writes one ocpp_exchange point per response event.
type ExchangeWriter struct {
	w PointWriter
}

// NewExchangeWriter creates a time-series sink.
func NewExchangeWriter(w PointWriter) *ExchangeWriter {
	return &ExchangeWriter{w: w}
}

// ObserveRequest implements Sink. Requests carry no latency and are skipped.
func (x *ExchangeWriter) ObserveRequest(context.Context, ocpp.RequestEvent) error {
	return nil
}

// ObserveResponse implements Sink.
func (x *ExchangeWriter) ObserveResponse(_ context.Context, ev ocpp.ResponseEvent) error {
	e := influxdb.Exchange{
		Direction: string(ev.Direction),
		Outcome:   ev.Outcome(),
		Elapsed:   ev.Elapsed,
		Timestamp: ev.Timestamp,
	}
	if ev.Request != nil {
		e.ChargeBoxID = string(ev.Request.ChargeBoxID)
		e.Action = string(ev.Request.Action)
	}
	x.w.WriteExchange(e)
	return nil
}
