// Package logging builds the structured logger shared by every component.
//
// Output is JSON (or text for local runs) through log/slog. Each entry
// carries service and version; Component adds a component field:
//
//	log := logging.New(cfg.Logging, version)
//	gw := gateway.New(registry, gateway.WithLogger(log.Component("gateway")))
//
// Components never import this package. They declare a small Logger
// interface of their own which *Logger satisfies.
package logging
