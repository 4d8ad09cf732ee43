// Package httpx exposes the authentication API over HTTP.
package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth      AuthServiceInterface
	Guard     Guard
	Cookies   CookieConfig
	Transport TokenTransport
	AccessTTL time.Duration
	// RefreshTTL sets the refresh cookie lifetime.
	RefreshTTL time.Duration
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// Ready lists the dependencies checked by GET /readyz.
	Ready  map[string]Pinger
	Logger *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := services.Transport
	if transport == "" {
		transport = TransportCookie
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Ready))
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}

	if services.Auth != nil {
		h := &AuthHandlers{
			Svc:        services.Auth,
			Cookies:    services.Cookies,
			Transport:  transport,
			AccessTTL:  services.AccessTTL,
			RefreshTTL: services.RefreshTTL,
			Logger:     logger,
		}
		registerAuthRoutes(mux, h, authRouteConfig{
			Guard:        services.Guard,
			AcceptCookie: transport == TransportCookie,
			Logger:       logger,
		})
	}

	return Recover(logger)(Logging(logger)(mux))
}

type authRouteConfig struct {
	Guard        Guard
	AcceptCookie bool
	Logger       *slog.Logger
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, cfg authRouteConfig) {
	mux.HandleFunc("GET /auth/oidc/{provider}/start", h.StartOIDC)
	mux.HandleFunc("GET /auth/oidc/{provider}/callback", h.CallbackOIDC)
	mux.HandleFunc("POST /auth/refresh", h.Refresh)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("POST /auth/seller/login", h.SellerLogin)
	mux.HandleFunc("POST /auth/seller/refresh", h.SellerRefresh)
	mux.HandleFunc("POST /auth/seller/logout", h.SellerLogout)

	if cfg.Guard == nil {
		return
	}
	active := RequireAuth(cfg.Guard, AuthOptions{AcceptCookie: cfg.AcceptCookie, Logger: cfg.Logger})
	pending := RequireAuth(cfg.Guard, AuthOptions{AllowPending: true, AcceptCookie: cfg.AcceptCookie, Logger: cfg.Logger})

	mux.Handle("GET /auth/me", active(http.HandlerFunc(h.Me)))
	mux.Handle("POST /auth/seller/change-password", pending(http.HandlerFunc(h.SellerChangePassword)))
}
