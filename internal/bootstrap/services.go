package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/caquick/caquick-api/config"
)

const shutdownWaitTimeout = 10 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *AuthComponents
	Observability ObservabilityContainer
	DB            *sql.DB
	Redis         redis.UniversalClient
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices builds observability and the auth components.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(logger, deps.Config.Observability)

	auth, err := BuildAuth(AuthConfig{
		Auth:        deps.Config.Auth,
		DB:          deps.DB,
		RedisClient: deps.RedisClient,
		Metrics:     observability.Metrics,
		Alerts:      observability.Alerts,
		Logger:      logger,
	})
	if err != nil {
		if cerr := observability.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close statsd: %w", cerr))
		}
		return ServiceContainer{}, fmt.Errorf("build auth: %w", err)
	}

	return ServiceContainer{
		Auth:          auth,
		Observability: observability,
		DB:            deps.DB,
		Redis:         deps.RedisClient,
	}, nil
}

// ServiceOrchestrationConfig contains what RunServicesWithShutdown starts and stops.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// backgroundService describes a startable background component.
type backgroundService struct {
	name  string
	start func()
	stop  func()
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	stop func()
	done <-chan struct{}
}

func buildBackgroundServices(s ServiceContainer) []backgroundService {
	var out []backgroundService
	if s.Auth != nil && s.Auth.MemoryThrottle != nil {
		out = append(out, backgroundService{
			name:  "seller throttle expiry",
			start: s.Auth.MemoryThrottle.Start,
			stop:  s.Auth.MemoryThrottle.Stop,
		})
	}
	return out
}

func startBackgroundServices(logger *slog.Logger, services []backgroundService) []backgroundServiceHandle {
	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		done := make(chan struct{})
		go func(start func()) {
			defer close(done)
			start()
		}(svc.start)
		logger.Info("background service started", "service", svc.name)
		handles = append(handles, backgroundServiceHandle{name: svc.name, stop: svc.stop, done: done})
	}
	return handles
}

// RunServicesWithShutdown starts the HTTP server and background loops.
// This function blocks until a shutdown signal is received or the server fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	backgrounds := startBackgroundServices(logger, buildBackgroundServices(cfg.Services))
	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
		ErrCh:    errCh,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return waitForShutdown(shutdownConfig{
		quit:        quit,
		errCh:       errCh,
		httpServer:  server,
		timeout:     cfg.Config.HTTP.ShutdownTimeout,
		logger:      logger,
		backgrounds: backgrounds,
		closeFn:     cfg.Services.Observability.Close,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	quit        <-chan os.Signal
	errCh       <-chan error
	httpServer  *http.Server
	timeout     time.Duration
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
	closeFn     func() error
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case <-cfg.quit:
		cfg.logger.Info("shutting down services...")
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	timeout := cfg.timeout
	if timeout <= 0 {
		timeout = shutdownWaitTimeout
	}

	var errs []error
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}

	for _, svc := range cfg.backgrounds {
		if svc.stop != nil {
			svc.stop()
		}
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if cfg.closeFn != nil {
		if err := cfg.closeFn(); err != nil {
			errs = append(errs, fmt.Errorf("close observability: %w", err))
		}
	}

	return errors.Join(errs...)
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
