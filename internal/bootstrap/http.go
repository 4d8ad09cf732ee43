package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/caquick/caquick-api/config"
	httpx "github.com/caquick/caquick-api/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives a listener failure; it must be buffered.
	ErrCh chan<- error
}

// NewHTTPHandler builds the router with its middleware chain.
func NewHTTPHandler(cfg *HTTPServerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Cookies: httpx.CookieConfig{
			Domain: appCfg.Auth.CookieDomain,
			Secure: appCfg.Auth.CookieSecure,
		},
		Transport:  httpx.TokenTransport(appCfg.Auth.Transport),
		AccessTTL:  appCfg.Auth.AccessTTL(),
		RefreshTTL: appCfg.Auth.RefreshTTL(),
		Metrics:    cfg.Services.Observability.MetricsHandler,
		Ready:      readinessChecks(cfg.Services),
		Logger:     logger,
	}
	if cfg.Services.Auth != nil {
		services.Auth = cfg.Services.Auth.Service
		services.Guard = cfg.Services.Auth.Guard
	}

	return httpx.NewRouter(services)
}

func readinessChecks(s ServiceContainer) map[string]httpx.Pinger {
	checks := map[string]httpx.Pinger{}
	if s.DB != nil {
		checks["db"] = s.DB
	}
	if s.Redis != nil {
		rc := s.Redis
		checks["redis"] = httpx.PingFunc(func(ctx context.Context) error {
			return rc.Ping(ctx).Err()
		})
	}
	return checks
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpCfg := config.HTTPConfig{}
	if cfg.Config != nil {
		httpCfg = cfg.Config.HTTP
	}
	httpCfg.Sanitize()

	server := &http.Server{
		Addr:         httpCfg.Addr,
		Handler:      NewHTTPHandler(cfg),
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
		IdleTimeout:  httpCfg.IdleTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if cfg.ErrCh != nil {
				select {
				case cfg.ErrCh <- err:
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	if err := cfg.Server.Shutdown(cfg.Context); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
