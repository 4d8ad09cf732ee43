package config

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/caquick/caquick-api/internal/errors"
)

// DevAccessSecret signs access tokens in dev mode when JWT_ACCESS_SECRET is unset.
const DevAccessSecret = "caquick-dev-access-secret"

// AuthMode represents the identity provider mode for the application.
type AuthMode string

const (
	// AuthModeOIDC uses the configured OIDC providers.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeMock uses a local identity that skips the provider (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oidc", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oidc, mock)", v)
	}
}

// TokenTransport selects how access tokens reach the browser.
type TokenTransport string

const (
	// TokenTransportCookie mirrors the access token into an httpOnly cookie.
	TokenTransportCookie TokenTransport = "cookie"
	// TokenTransportBearer returns the access token only in response bodies.
	TokenTransportBearer TokenTransport = "bearer"
)

// UnmarshalText implements encoding.TextUnmarshaler for TokenTransport.
func (t *TokenTransport) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "cookie", "bearer":
		*t = TokenTransport(v)
		return nil
	default:
		return fmt.Errorf("invalid TokenTransport: %q (valid options: cookie, bearer)", v)
	}
}

// ThrottleBackend selects where seller login attempts are counted.
type ThrottleBackend string

const (
	ThrottleBackendMemory ThrottleBackend = "memory"
	ThrottleBackendRedis  ThrottleBackend = "redis"
	ThrottleBackendNone   ThrottleBackend = "none"
)

// UnmarshalText implements encoding.TextUnmarshaler for ThrottleBackend.
func (b *ThrottleBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis", "none":
		*b = ThrottleBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid ThrottleBackend: %q (valid options: memory, redis, none)", v)
	}
}

// OIDCProviderConfig contains one provider's client registration.
type OIDCProviderConfig struct {
	IssuerURL    string   `env:"ISSUER_URL"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES"        envSeparator:" "`
}

// Configured reports whether the provider can be offered at all.
func (c OIDCProviderConfig) Configured() bool {
	return c.IssuerURL != "" && c.ClientID != "" && c.ClientSecret != ""
}

func (c *OIDCProviderConfig) sanitize() {
	c.IssuerURL = strings.TrimSpace(c.IssuerURL)
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.Scopes = compact(c.Scopes)
}

// DevAuthConfig controls the identity returned when AUTH_MODE=mock.
type DevAuthConfig struct {
	Subject       string `env:"SUBJECT"        envDefault:"dev-user"`
	Email         string `env:"EMAIL"          envDefault:"dev@example.com"`
	EmailVerified bool   `env:"EMAIL_VERIFIED" envDefault:"true"`
	Name          string `env:"NAME"           envDefault:"Dev User"`
}

// SellerThrottleConfig bounds seller login attempts per username.
type SellerThrottleConfig struct {
	Backend ThrottleBackend `env:"BACKEND" envDefault:"memory"`
	Limit   int             `env:"LIMIT"   envDefault:"5"`
	Window  time.Duration   `env:"WINDOW"  envDefault:"15m"`
}

// PasswordHashConfig tunes argon2id for new seller password hashes.
type PasswordHashConfig struct {
	MemoryKiB uint32 `env:"MEMORY_KIB" envDefault:"65536"`
	Time      uint32 `env:"TIME"       envDefault:"3"`
	Threads   uint8  `env:"THREADS"    envDefault:"4"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity client to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oidc"`

	// AccessSecret signs access tokens. Required outside dev mode.
	AccessSecret     string `env:"JWT_ACCESS_SECRET"`
	AccessTTLSeconds int    `env:"JWT_ACCESS_EXPIRES_SECONDS" envDefault:"900"`
	RefreshTTLDays   int    `env:"AUTH_REFRESH_EXPIRES_DAYS"  envDefault:"30"`

	CookieDomain string         `env:"AUTH_COOKIE_DOMAIN"`
	CookieSecure bool           `env:"AUTH_COOKIE_SECURE"   envDefault:"true"`
	Transport    TokenTransport `env:"AUTH_TOKEN_TRANSPORT" envDefault:"cookie"`

	FrontendBaseURL string   `env:"FRONTEND_BASE_URL"      envDefault:"http://localhost:3000"`
	BackendBaseURL  string   `env:"BACKEND_BASE_URL"       envDefault:"http://localhost:8080"`
	AllowedReturnTo []string `env:"AUTH_ALLOWED_RETURN_TO" envSeparator:","`

	Google OIDCProviderConfig `envPrefix:"OIDC_GOOGLE_"`
	Kakao  OIDCProviderConfig `envPrefix:"OIDC_KAKAO_"`

	DevAuth        DevAuthConfig        `envPrefix:"DEV_AUTH_"`
	SellerThrottle SellerThrottleConfig `envPrefix:"AUTH_SELLER_THROTTLE_"`
	PasswordHash   PasswordHashConfig   `envPrefix:"AUTH_ARGON2_"`
}

// AccessTTL returns the access token lifetime.
func (c *AuthConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLSeconds) * time.Second
}

// RefreshTTL returns the refresh session lifetime.
func (c *AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// Sanitize applies defaults and guardrails. In dev mode a missing access secret falls back to
// DevAccessSecret.
func (c *AuthConfig) Sanitize(isDev bool) {
	c.AccessSecret = strings.TrimSpace(c.AccessSecret)
	if c.AccessSecret == "" && isDev {
		c.AccessSecret = DevAccessSecret
	}
	if c.AccessTTLSeconds <= 0 {
		c.AccessTTLSeconds = 900
	}
	if c.RefreshTTLDays <= 0 {
		c.RefreshTTLDays = 30
	}
	if c.Mode == "" {
		c.Mode = AuthModeOIDC
	}
	if c.Transport == "" {
		c.Transport = TokenTransportCookie
	}

	c.CookieDomain = strings.TrimSpace(c.CookieDomain)
	c.FrontendBaseURL = strings.TrimRight(strings.TrimSpace(c.FrontendBaseURL), "/")
	c.BackendBaseURL = strings.TrimRight(strings.TrimSpace(c.BackendBaseURL), "/")
	c.AllowedReturnTo = compact(c.AllowedReturnTo)

	c.Google.sanitize()
	c.Kakao.sanitize()

	if c.SellerThrottle.Backend == "" {
		c.SellerThrottle.Backend = ThrottleBackendMemory
	}
	if c.SellerThrottle.Limit <= 0 || c.SellerThrottle.Window <= 0 {
		c.SellerThrottle.Backend = ThrottleBackendNone
	}
}

// Validate reports missing required settings as configuration errors.
func (c *AuthConfig) Validate() error {
	if c.AccessSecret == "" {
		return apperrors.Configuration("JWT_ACCESS_SECRET is required")
	}
	if c.BackendBaseURL == "" {
		return apperrors.Configuration("BACKEND_BASE_URL is required")
	}
	if c.FrontendBaseURL == "" {
		return apperrors.Configuration("FRONTEND_BASE_URL is required")
	}
	return nil
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
