// Package influxdb stores exchange latency as time-series points.
//
// Every completed request/response exchange with a charge box becomes one
// point in the ocpp_exchange measurement:
//
//	ocpp_exchange,charge_box_id=CP001,action=Reset,direction=outbound,outcome=ok elapsed_ms=12.5
//
// Writes go through the batching write API of influxdb-client-go v2 and
// never block the caller. Batch size and flush interval come from the
// influxdb section of the configuration.
package influxdb
