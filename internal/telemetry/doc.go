// Package telemetry turns exchange events into metrics, MQTT messages and
// time-series points.
//
// Every sink here is an ordinary observer: Attach subscribes it to the
// "any action" channels of a gateway's or dispatcher's hooks, so sinks run
// under the same fan-out isolation as any other subscriber. A slow or
// failing sink never affects the exchange it observes.
//
//	detach := telemetry.Attach(gw.Hooks(), metrics, publisher, telemetry.NewExchangeWriter(influx))
//	defer detach()
package telemetry
