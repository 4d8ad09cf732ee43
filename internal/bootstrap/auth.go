package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/caquick/caquick-api/config"
	"github.com/caquick/caquick-api/internal/adapters/accesstoken"
	"github.com/caquick/caquick-api/internal/adapters/devauth"
	"github.com/caquick/caquick-api/internal/adapters/oidc"
	"github.com/caquick/caquick-api/internal/adapters/ratelimit"
	redisadapter "github.com/caquick/caquick-api/internal/adapters/redis"
	"github.com/caquick/caquick-api/internal/data"
	"github.com/caquick/caquick-api/internal/data/cryptoutil"
	domainauth "github.com/caquick/caquick-api/internal/domain/auth"
	"github.com/caquick/caquick-api/internal/observability/statsd"
	"github.com/caquick/caquick-api/internal/ports"
	"github.com/caquick/caquick-api/internal/service"
	"github.com/caquick/caquick-api/internal/service/securityalert"
)

// AuthConfig contains dependencies for the auth components.
type AuthConfig struct {
	Auth        config.AuthConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Metrics     statsd.Sink
	Alerts      *securityalert.Service
	Logger      *slog.Logger
}

// AuthComponents is the wired session engine plus what its lifecycle needs.
type AuthComponents struct {
	Service *service.AuthService
	Guard   *service.AuthGuard
	Store   *data.AuthRepo
	Hasher  *cryptoutil.Argon2Hasher
	// MemoryThrottle is set when the in-process throttle is selected; its expiry loop must be run.
	MemoryThrottle *ratelimit.MemoryThrottle
}

// BuildAuth wires the identity client, credential store, token codec, hasher, and throttle
// selected by cfg into an AuthService and AuthGuard.
func BuildAuth(cfg AuthConfig) (*AuthComponents, error) {
	if cfg.DB == nil {
		return nil, errors.New("auth requires a database")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	identity, err := buildIdentityClient(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	codec, err := accesstoken.New(accesstoken.Config{
		Secret: []byte(cfg.Auth.AccessSecret),
		TTL:    cfg.Auth.AccessTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("access token codec: %w", err)
	}

	out := &AuthComponents{
		Store:  data.NewAuthRepo(cfg.DB),
		Hasher: NewPasswordHasher(cfg.Auth.PasswordHash),
	}

	throttle, err := buildThrottle(cfg, out)
	if err != nil {
		return nil, err
	}

	out.Service = service.NewAuthService(service.AuthServiceOptions{
		Identity: identity,
		Store:    out.Store,
		Tokens:   codec,
		Hasher:   out.Hasher,
		Throttle: throttle,
		Metrics:  cfg.Metrics,
		Alerts:   alertsOrNil(cfg.Alerts),
		Logger:   logger,
		Config: service.AuthConfig{
			FrontendBaseURL: cfg.Auth.FrontendBaseURL,
			AllowedReturnTo: cfg.Auth.AllowedReturnTo,
			RefreshTTL:      cfg.Auth.RefreshTTL(),
		},
	})
	out.Guard = service.NewAuthGuard(service.AuthGuardOptions{
		Tokens:  codec,
		Store:   out.Store,
		Metrics: cfg.Metrics,
		Logger:  logger,
	})

	logger.Info("auth configured",
		"mode", cfg.Auth.Mode,
		"transport", cfg.Auth.Transport,
		"throttle", cfg.Auth.SellerThrottle.Backend,
		"alerts", cfg.Alerts.Enabled(),
	)
	return out, nil
}

// NewPasswordHasher builds the argon2id hasher for seller passwords.
func NewPasswordHasher(cfg config.PasswordHashConfig) *cryptoutil.Argon2Hasher {
	return cryptoutil.NewArgon2Hasher(cryptoutil.Argon2Params{
		Time:    cfg.Time,
		Memory:  cfg.MemoryKiB,
		Threads: cfg.Threads,
	})
}

//nolint:ireturn // mode selects between the OIDC client and the dev provider at runtime.
func buildIdentityClient(cfg config.AuthConfig, logger *slog.Logger) (ports.IdentityClient, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		logger.Warn("dev auth mode enabled; OIDC providers are bypassed", "subject", cfg.DevAuth.Subject)
		prov, err := devauth.NewProvider(devauth.Config{
			Subject:        cfg.DevAuth.Subject,
			Email:          cfg.DevAuth.Email,
			EmailVerified:  cfg.DevAuth.EmailVerified,
			Name:           cfg.DevAuth.Name,
			BackendBaseURL: cfg.BackendBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("dev auth provider: %w", err)
		}
		return prov, nil

	default:
		providers := oidcProviders(cfg)
		if len(providers) == 0 {
			// Seller login and refresh still work; OIDC starts fail with a configuration error.
			logger.Warn("no OIDC provider configured")
		}
		client, err := oidc.NewClient(oidc.ClientConfig{
			Providers:      providers,
			BackendBaseURL: cfg.BackendBaseURL,
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("oidc client: %w", err)
		}
		return client, nil
	}
}

func oidcProviders(cfg config.AuthConfig) map[domainauth.Provider]oidc.ProviderConfig {
	all := map[domainauth.Provider]config.OIDCProviderConfig{
		domainauth.ProviderGoogle: cfg.Google,
		domainauth.ProviderKakao:  cfg.Kakao,
	}
	out := make(map[domainauth.Provider]oidc.ProviderConfig, len(all))
	for p, pc := range all {
		if !pc.Configured() {
			continue
		}
		out[p] = oidc.ProviderConfig{
			IssuerURL:    pc.IssuerURL,
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			Scopes:       pc.Scopes,
		}
	}
	return out
}

//nolint:ireturn // the backend is chosen by configuration.
func buildThrottle(cfg AuthConfig, out *AuthComponents) (ports.LoginThrottle, error) {
	t := cfg.Auth.SellerThrottle
	switch t.Backend {
	case config.ThrottleBackendRedis:
		if cfg.RedisClient == nil {
			return nil, errors.New("redis seller throttle selected but redis is not connected")
		}
		throttle, err := redisadapter.NewLoginThrottle(cfg.RedisClient, redisadapter.LoginThrottleOptions{
			Limit:  t.Limit,
			Window: t.Window,
			Prefix: "caquick:seller_login:",
		})
		if err != nil {
			return nil, fmt.Errorf("redis seller throttle: %w", err)
		}
		return throttle, nil

	case config.ThrottleBackendMemory:
		throttle, err := ratelimit.NewMemoryThrottle(ratelimit.Options{Limit: t.Limit, Window: t.Window})
		if err != nil {
			return nil, fmt.Errorf("memory seller throttle: %w", err)
		}
		out.MemoryThrottle = throttle
		return throttle, nil

	default:
		return nil, nil
	}
}

// alertsOrNil keeps a nil *Service from becoming a non-nil interface.
//
//nolint:ireturn // returns the interface the auth service consumes.
func alertsOrNil(svc *securityalert.Service) service.SecurityNotifier {
	if !svc.Enabled() {
		return nil
	}
	return svc
}
