package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/chargebox-core/internal/audit"
	"github.com/nerrad567/chargebox-core/internal/chargebox"
	"github.com/nerrad567/chargebox-core/internal/device"
	"github.com/nerrad567/chargebox-core/internal/gateway"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/config"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/logging"
	"github.com/nerrad567/chargebox-core/internal/journal"
	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ChargeBoxes lists the charge boxes known to the registry.
// *chargebox.Registry implements it.
type ChargeBoxes interface {
	Resolve(id ocpp.ChargeBoxID) (chargebox.Record, bool)
	ChargeBoxes() map[ocpp.ChargeBoxID]chargebox.Record
	Len() int
}

// CommandSender forwards one command to a charge box.
// *gateway.Gateway implements it.
type CommandSender interface {
	Send(ctx context.Context, id ocpp.ChargeBoxID, action ocpp.Action, payload any, opts ...gateway.CallOption) (*ocpp.Response, error)
}

// HealthChecker is implemented by infrastructure clients (MQTT, InfluxDB,
// SQLite) whose state the health endpoint reports.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Registry ChargeBoxes
	Devices  *device.Repository
	Gateway  CommandSender

	// Optional.
	OCPP         http.Handler // OCPP-J endpoint, mounted on {WS.Path}/*
	Connections  func() int   // open OCPP-J connections
	Journal      journal.Repository
	Audit        audit.Repository
	Gatherer     prometheus.Gatherer
	HealthChecks map[string]HealthChecker
	Hub          *Hub // live event stream; created by New when nil
	Version      string
}

// Server is the admin HTTP server.
//
// It manages the HTTP listener, routes, middleware and the live event hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	wsCfg        config.WebSocketConfig
	logger       *logging.Logger
	registry     ChargeBoxes
	devices      *device.Repository
	gateway      CommandSender
	ocpp         http.Handler
	connections  func() int
	journal      journal.Repository
	audit        audit.Repository
	gatherer     prometheus.Gatherer
	healthChecks map[string]HealthChecker
	hub          *Hub
	version      string
	startTime    time.Time
	server       *http.Server
	cancel       context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("charge box registry is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device repository is required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("command gateway is required")
	}

	s := &Server{
		cfg:          deps.Config,
		wsCfg:        deps.WS,
		logger:       deps.Logger,
		registry:     deps.Registry,
		devices:      deps.Devices,
		gateway:      deps.Gateway,
		ocpp:         deps.OCPP,
		connections:  deps.Connections,
		journal:      deps.Journal,
		audit:        deps.Audit,
		gatherer:     deps.Gatherer,
		healthChecks: deps.HealthChecks,
		hub:          deps.Hub,
		version:      deps.Version,
		startTime:    time.Now(),
	}
	if s.hub == nil {
		s.hub = NewHub(deps.WS, deps.Logger)
	}
	return s, nil
}

// Hub returns the live event hub. Attach it to the gateway and dispatcher
// hooks to feed it.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
