package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementExchange is the measurement holding one point per completed
// request/response exchange.
const MeasurementExchange = "ocpp_exchange"

// Exchange describes one completed exchange with a charge box.
type Exchange struct {
	ChargeBoxID string
	Action      string
	Direction   string
	Outcome     string
	Elapsed     time.Duration
	Timestamp   time.Time
}

// exchangePoint renders e as an ocpp_exchange point. Identity, action,
// direction and outcome are tags; elapsed_ms is the only field.
func exchangePoint(e Exchange) *write.Point {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(
		MeasurementExchange,
		map[string]string{
			"charge_box_id": e.ChargeBoxID,
			"action":        e.Action,
			"direction":     e.Direction,
			"outcome":       e.Outcome,
		},
		map[string]any{
			"elapsed_ms": float64(e.Elapsed) / float64(time.Millisecond),
		},
		ts,
	)
}

// WriteExchange queues one exchange point. The write is non-blocking;
// failures surface through SetOnError.
func (c *Client) WriteExchange(e Exchange) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(exchangePoint(e))
}

// WritePoint queues a point with arbitrary tags and fields at timestamp.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
