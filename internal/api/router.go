package api

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/chargebox-core/internal/telemetry"
)

// healthCheckTimeout bounds each component check of the health endpoint.
const healthCheckTimeout = 2 * time.Second

// defaultOCPPPath is used when the websocket config names no path.
const defaultOCPPPath = "/ocpp"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/events", s.handleEventStream)

		r.Route("/chargeboxes", func(r chi.Router) {
			r.Get("/", s.handleListChargeBoxes)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetChargeBox)
				r.Post("/commands/{action}", s.handleSendCommand)
			})
		})

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleCreateDevice)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Put("/", s.handlePutDevice)
				r.Patch("/", s.handlePatchDevice)
				r.Delete("/", s.handleDeleteDevice)
			})
		})

		r.Get("/journal", s.handleListJournal)
		r.Get("/audit", s.handleListAudit)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", telemetry.Handler(s.gatherer))
	}
	if s.ocpp != nil {
		r.Handle(s.ocppPath()+"/*", s.ocpp)
	}

	return r
}

func (s *Server) ocppPath() string {
	p := strings.TrimRight(s.wsCfg.Path, "/")
	if p == "" {
		return defaultOCPPPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// healthResponse is the body of GET /api/v1/health.
type healthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	ChargeBoxes int               `json:"charge_boxes"`
	Devices     int               `json:"devices"`
	Components  map[string]string `json:"components,omitempty"`
}

// handleHealth reports overall health and the state of each optional
// infrastructure component. Any failing component yields 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		Version:     s.version,
		ChargeBoxes: s.registry.Len(),
		Devices:     s.devices.Count(),
	}

	if len(s.healthChecks) > 0 {
		resp.Components = make(map[string]string, len(s.healthChecks))
		names := make([]string, 0, len(s.healthChecks))
		for name := range s.healthChecks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := s.healthChecks[name].HealthCheck(ctx)
			cancel()
			if err != nil {
				resp.Components[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Components[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
