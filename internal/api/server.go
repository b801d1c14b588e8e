package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/casapulse/pulse-core/internal/infrastructure/config"
	"github.com/casapulse/pulse-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by the infrastructure clients the readiness
// probe inspects.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// QueueStats reports ingestion pipeline depth for the status endpoint.
type QueueStats interface {
	InFlight() int
	Pending() int
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	Version string

	// Readiness components, keyed by the name reported in /readyz.
	// A nil checker is reported as disabled rather than failing.
	Database HealthChecker
	MQTT     HealthChecker
	Redis    HealthChecker

	// Ingest is optional; when set, /api/v1/status reports pipeline depth.
	Ingest QueueStats
}

// Server is the operational HTTP server for Pulse Core.
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WebSocketConfig
	logger  *logging.Logger
	version string
	started time.Time

	database HealthChecker
	mqtt     HealthChecker
	redis    HealthChecker
	ingest   QueueStats

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a new API server with the given dependencies.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		version:  deps.Version,
		database: deps.Database,
		mqtt:     deps.MQTT,
		redis:    deps.Redis,
		ingest:   deps.Ingest,
	}, nil
}

// Hub returns the WebSocket hub for event fan-out. Available after Start.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start builds the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server stops with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	s.started = time.Now()

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

// Close gracefully shuts down the API server, waiting up to ten seconds
// for in-flight requests.
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
