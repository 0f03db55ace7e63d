package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"homeline/internal/adapter"
	"homeline/internal/audit"
	"homeline/internal/automation"
	"homeline/internal/device"
	"homeline/internal/infrastructure/config"
	"homeline/internal/notify"
)

// gracefulShutdownTimeout caps the wait for in-flight requests during
// shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Commander executes device commands and sensor reads. Satisfied by
// *controller.Controller.
type Commander interface {
	Control(ctx context.Context, deviceID int64, action string, actorID int64) (adapter.Result, error)
	ReadSensor(ctx context.Context, deviceID int64, actorID int64) (adapter.Reading, error)
}

// Reconciler re-syncs scheduled rules after a mutation. Satisfied by
// *automation.Scheduler. Optional; without one rule mutations skip the
// reconcile step.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// Logger defines the logging interface used by the server.
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

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     Logger
	Registry   *device.Registry
	History    device.HistoryRepository
	Controller Commander
	Rules      automation.Repository
	Scheduler  Reconciler
	Audits     audit.Repository
	Tokens     notify.TokenRepository

	// DefaultActorID is attributed to requests that do not name an
	// actor, normally the home owner.
	DefaultActorID int64

	Version string
}

// Server is the HTTP API for the home.
//
// Created with New() and started with Start(); all methods are safe for
// concurrent use.
type Server struct {
	cfg        config.APIConfig
	logger     Logger
	registry   *device.Registry
	history    device.HistoryRepository
	controller Commander
	rules      automation.Repository
	scheduler  Reconciler
	audits     audit.Repository
	tokens     notify.TokenRepository
	actorID    int64
	version    string

	server *http.Server
}

// New creates an API server. It does not listen until Start().
func New(deps Deps) (*Server, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("device controller is required")
	}
	if deps.Rules == nil {
		return nil, fmt.Errorf("rule repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Server{
		cfg:        deps.Config,
		logger:     logger,
		registry:   deps.Registry,
		history:    deps.History,
		controller: deps.Controller,
		rules:      deps.Rules,
		scheduler:  deps.Scheduler,
		audits:     deps.Audits,
		tokens:     deps.Tokens,
		actorID:    deps.DefaultActorID,
		version:    deps.Version,
	}, nil
}

// Start launches the HTTP listener in a background goroutine.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	s.logger.Info("api server listening", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the server, waiting for in-flight
// requests up to gracefulShutdownTimeout.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server has been started.
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
