package telemetry

import (
	"context"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// Sink consumes exchange events.
type Sink interface {
	ObserveRequest(ctx context.Context, ev ocpp.RequestEvent) error
	ObserveResponse(ctx context.Context, ev ocpp.ResponseEvent) error
}

// Attach subscribes every sink to all actions of hooks. The returned
// function removes the subscriptions.
func Attach(hooks *ocpp.Hooks, sinks ...Sink) (detach func()) {
	unsubs := make([]func(), 0, 2*len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		unsubs = append(unsubs,
			hooks.OnAnyRequest(s.ObserveRequest),
			hooks.OnAnyResponse(s.ObserveResponse),
		)
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
